package signal

import (
	"context"
	"fmt"

	"go.mau.fi/libsignal/ecc"
	groupRecord "go.mau.fi/libsignal/groups/state/record"
	groupStore "go.mau.fi/libsignal/groups/state/store"
	"go.mau.fi/libsignal/keys/identity"
	"go.mau.fi/libsignal/keys/message"
	"go.mau.fi/libsignal/protocol"
	"go.mau.fi/libsignal/serialize"
	"go.mau.fi/libsignal/state/record"
	"go.mau.fi/libsignal/state/store"

	"sigvault/internal/domain"
)

// Store adapts a domain.CredentialStore to store.SignalProtocol. One Store
// serves one logical identity, like the credential store beneath it.
type Store struct {
	creds      domain.CredentialStore
	serializer *serialize.Serializer

	// IdentityChanged, when set, is invoked after SaveIdentity replaces a
	// previously pinned key with a different one. Orchestration uses it to
	// flag a possible key rotation or impersonation attempt.
	IdentityChanged func(addr domain.PeerAddress)
}

// NewStore returns an adapter over creds using the given serializer for
// record blobs.
func NewStore(creds domain.CredentialStore, serializer *serialize.Serializer) *Store {
	return &Store{creds: creds, serializer: serializer}
}

func peerAddress(addr *protocol.SignalAddress) domain.PeerAddress {
	return domain.NewPeerAddress(addr.Name(), addr.DeviceID())
}

func to32(b []byte) ([32]byte, error) {
	var out [32]byte
	if len(b) != 32 {
		return out, fmt.Errorf("%w: key of %d bytes, want 32", domain.ErrCorruptState, len(b))
	}
	copy(out[:], b)
	return out, nil
}

func to64(b []byte) ([64]byte, error) {
	var out [64]byte
	if len(b) != 64 {
		return out, fmt.Errorf("%w: signature of %d bytes, want 64", domain.ErrCorruptState, len(b))
	}
	copy(out[:], b)
	return out, nil
}

func eccPair(kp domain.KeyPair) (*ecc.ECKeyPair, error) {
	pub, err := to32(kp.Public)
	if err != nil {
		return nil, err
	}
	priv, err := to32(kp.Private)
	if err != nil {
		return nil, err
	}
	return ecc.NewECKeyPair(ecc.NewDjbECPublicKey(pub), ecc.NewDjbECPrivateKey(priv)), nil
}

func domainPair(kp *ecc.ECKeyPair) domain.KeyPair {
	pub := kp.PublicKey().PublicKey()
	priv := kp.PrivateKey().Serialize()
	return domain.KeyPair{Public: pub[:], Private: priv[:]}
}

// ---------- store.IdentityKey ----------

// GetIdentityKeyPair returns the local identity key pair, or nil if the
// account has not been initialized.
func (s *Store) GetIdentityKeyPair() *identity.KeyPair {
	kp, ok, err := s.creds.IdentityKeyPair()
	if err != nil || !ok {
		return nil
	}
	pub, err := to32(kp.Public)
	if err != nil {
		return nil
	}
	priv, err := to32(kp.Private)
	if err != nil {
		return nil
	}
	return identity.NewKeyPair(
		identity.NewKey(ecc.NewDjbECPublicKey(pub)),
		ecc.NewDjbECPrivateKey(priv),
	)
}

// GetLocalRegistrationID returns the local registration id, or zero if the
// account has not been initialized.
func (s *Store) GetLocalRegistrationID() uint32 {
	id, ok, err := s.creds.RegistrationID()
	if err != nil || !ok {
		return 0
	}
	return id
}

// SaveIdentity pins the peer's identity key, notifying IdentityChanged if a
// different key was replaced.
func (s *Store) SaveIdentity(_ context.Context, address *protocol.SignalAddress, identityKey *identity.Key) error {
	raw := identityKey.PublicKey().PublicKey()
	replaced, err := s.creds.SaveIdentity(peerAddress(address), raw[:])
	if err != nil {
		return err
	}
	if replaced && s.IdentityChanged != nil {
		s.IdentityChanged(peerAddress(address))
	}
	return nil
}

// IsTrustedIdentity evaluates trust-on-first-use against the pinned key.
func (s *Store) IsTrustedIdentity(_ context.Context, address *protocol.SignalAddress, identityKey *identity.Key) (bool, error) {
	raw := identityKey.PublicKey().PublicKey()
	return s.creds.IsTrustedIdentity(peerAddress(address), raw[:])
}

// ---------- store.PreKey ----------

// LoadPreKey returns the stored pre-key record, or nil when absent.
func (s *Store) LoadPreKey(_ context.Context, preKeyID uint32) (*record.PreKey, error) {
	pk, ok, err := s.creds.LoadPreKey(preKeyID)
	if err != nil || !ok {
		return nil, err
	}
	pair, err := eccPair(pk.KeyPair)
	if err != nil {
		return nil, err
	}
	return record.NewPreKey(pk.ID, pair, s.serializer.PreKeyRecord), nil
}

// StorePreKey stores a pre-key record under its id.
func (s *Store) StorePreKey(_ context.Context, preKeyID uint32, preKeyRecord *record.PreKey) error {
	return s.creds.StorePreKey(domain.PreKey{
		ID:      preKeyID,
		KeyPair: domainPair(preKeyRecord.KeyPair()),
	})
}

// ContainsPreKey reports whether a pre-key record is stored under id.
func (s *Store) ContainsPreKey(_ context.Context, preKeyID uint32) (bool, error) {
	return s.creds.ContainsPreKey(preKeyID)
}

// RemovePreKey consumes the pre-key stored under id.
func (s *Store) RemovePreKey(_ context.Context, preKeyID uint32) error {
	return s.creds.RemovePreKey(preKeyID)
}

// ---------- store.SignedPreKey ----------

// LoadSignedPreKey returns the stored signed pre-key record, or nil when
// absent.
func (s *Store) LoadSignedPreKey(_ context.Context, signedPreKeyID uint32) (*record.SignedPreKey, error) {
	spk, ok, err := s.creds.LoadSignedPreKey(signedPreKeyID)
	if err != nil || !ok {
		return nil, err
	}
	return s.signedRecord(spk)
}

// LoadSignedPreKeys returns every stored signed pre-key record.
func (s *Store) LoadSignedPreKeys(_ context.Context) ([]*record.SignedPreKey, error) {
	spks, err := s.creds.LoadSignedPreKeys()
	if err != nil {
		return nil, err
	}
	out := make([]*record.SignedPreKey, 0, len(spks))
	for _, spk := range spks {
		rec, err := s.signedRecord(spk)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) signedRecord(spk domain.SignedPreKey) (*record.SignedPreKey, error) {
	pair, err := eccPair(spk.KeyPair)
	if err != nil {
		return nil, err
	}
	sig, err := to64(spk.Signature)
	if err != nil {
		return nil, err
	}
	return record.NewSignedPreKey(spk.ID, spk.CreatedAt, pair, sig, s.serializer.SignedPreKeyRecord), nil
}

// StoreSignedPreKey stores a signed pre-key record under its id.
func (s *Store) StoreSignedPreKey(_ context.Context, signedPreKeyID uint32, rec *record.SignedPreKey) error {
	sig := rec.Signature()
	return s.creds.StoreSignedPreKey(domain.SignedPreKey{
		PreKey: domain.PreKey{
			ID:      signedPreKeyID,
			KeyPair: domainPair(rec.KeyPair()),
		},
		Signature: sig[:],
		CreatedAt: rec.Timestamp(),
	})
}

// ContainsSignedPreKey reports whether a signed pre-key record is stored
// under id.
func (s *Store) ContainsSignedPreKey(_ context.Context, signedPreKeyID uint32) (bool, error) {
	return s.creds.ContainsSignedPreKey(signedPreKeyID)
}

// RemoveSignedPreKey drops the signed pre-key stored under id.
func (s *Store) RemoveSignedPreKey(_ context.Context, signedPreKeyID uint32) error {
	return s.creds.RemoveSignedPreKey(signedPreKeyID)
}

// ---------- store.Session ----------

// LoadSession returns the stored session for the address, or a fresh empty
// record when none exists; the session builder requires a non-nil record.
func (s *Store) LoadSession(_ context.Context, address *protocol.SignalAddress) (*record.Session, error) {
	blob, ok, err := s.creds.LoadSession(peerAddress(address))
	if err != nil {
		return nil, err
	}
	if !ok {
		return record.NewSession(s.serializer.Session, s.serializer.State), nil
	}
	return record.NewSessionFromBytes(blob, s.serializer.Session, s.serializer.State)
}

// GetSubDeviceSessions lists the device ids of the named peer that have a
// stored session.
func (s *Store) GetSubDeviceSessions(_ context.Context, name string) ([]uint32, error) {
	return s.creds.SubDeviceSessions(name)
}

// StoreSession persists the serialized session record for the address.
func (s *Store) StoreSession(_ context.Context, remoteAddress *protocol.SignalAddress, rec *record.Session) error {
	return s.creds.StoreSession(peerAddress(remoteAddress), rec.Serialize())
}

// ContainsSession reports whether a session is stored for the address.
func (s *Store) ContainsSession(_ context.Context, remoteAddress *protocol.SignalAddress) (bool, error) {
	return s.creds.ContainsSession(peerAddress(remoteAddress))
}

// DeleteSession tears down the session for the address.
func (s *Store) DeleteSession(_ context.Context, remoteAddress *protocol.SignalAddress) error {
	return s.creds.RemoveSession(peerAddress(remoteAddress))
}

// DeleteAllSessions clears every stored session.
func (s *Store) DeleteAllSessions(_ context.Context) error {
	return s.creds.RemoveEverySession()
}

// RemoveAllSessions removes the sessions of every device of the named
// peer. It is not part of the library contract but backs multi-device
// session teardown.
func (s *Store) RemoveAllSessions(name string) error {
	return s.creds.RemoveAllSessions(name)
}

// ---------- groups store.SenderKey ----------

// StoreSenderKey persists the serialized sender key for (sender, group).
func (s *Store) StoreSenderKey(_ context.Context, senderKeyName *protocol.SenderKeyName, keyRecord *groupRecord.SenderKey) error {
	return s.creds.StoreSenderKey(
		peerAddress(senderKeyName.Sender()),
		senderKeyName.GroupID(),
		keyRecord.Serialize(),
	)
}

// LoadSenderKey returns the stored sender key for (sender, group), or a
// fresh empty record when none exists.
func (s *Store) LoadSenderKey(_ context.Context, senderKeyName *protocol.SenderKeyName) (*groupRecord.SenderKey, error) {
	blob, ok, err := s.creds.LoadSenderKey(peerAddress(senderKeyName.Sender()), senderKeyName.GroupID())
	if err != nil {
		return nil, err
	}
	if !ok {
		return groupRecord.NewSenderKey(s.serializer.SenderKeyRecord, s.serializer.SenderKeyState), nil
	}
	return groupRecord.NewSenderKeyFromBytes(blob, s.serializer.SenderKeyRecord, s.serializer.SenderKeyState)
}

// ---------- store.MessageKey ----------

// LoadMessageKey returns stored per-message keys, or nil when absent.
func (s *Store) LoadMessageKey(_ context.Context, keyID uint32) (*message.Keys, error) {
	mk, ok, err := s.creds.LoadMessageKey(keyID)
	if err != nil || !ok {
		return nil, err
	}
	return message.NewKeys(mk.CipherKey, mk.MacKey, mk.IV, mk.Index), nil
}

// StoreMessageKey stores per-message keys under id.
func (s *Store) StoreMessageKey(_ context.Context, keyID uint32, key *message.Keys) error {
	return s.creds.StoreMessageKey(keyID, domain.MessageKeys{
		CipherKey: key.CipherKey(),
		MacKey:    key.MacKey(),
		IV:        key.Iv(),
		Index:     key.Index(),
	})
}

// ContainsMessageKey reports whether per-message keys are stored under id.
func (s *Store) ContainsMessageKey(_ context.Context, keyID uint32) (bool, error) {
	return s.creds.ContainsMessageKey(keyID)
}

// RemoveMessageKey drops the per-message keys stored under id.
func (s *Store) RemoveMessageKey(_ context.Context, keyID uint32) error {
	return s.creds.RemoveMessageKey(keyID)
}

// Compile-time assertions that Store satisfies the protocol library's
// storage contracts.
var (
	_ store.SignalProtocol = (*Store)(nil)
	_ store.MessageKey     = (*Store)(nil)
	_ groupStore.SenderKey = (*Store)(nil)
)
