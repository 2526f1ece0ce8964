package store

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"sigvault/internal/codec"
	"sigvault/internal/domain"
	"sigvault/internal/util/memzero"
)

// localID is the identifier of the singleton records (identity key pair,
// registration id) within their namespaces.
const localID = "local"

// key is the composite store key: record kind plus identifier. Keeping the
// kind out of the identifier string removes the prefix-collision class of
// bugs entirely.
type key struct {
	kind domain.RecordKind
	id   string
}

// Memory is an in-memory domain.CredentialStore for a single identity.
//
// Not safe for concurrent use; every operation completes synchronously and
// never blocks on I/O.
type Memory struct {
	records map[key]domain.Record
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{records: make(map[key]domain.Record)}
}

// ---------- Primitives ----------

func (s *Memory) get(k key) (domain.Record, bool, error) {
	if k.kind == 0 || k.id == "" {
		return domain.Record{}, false, fmt.Errorf("%w: empty store key", domain.ErrInvalidArgument)
	}
	rec, ok := s.records[k]
	return rec, ok, nil
}

// put overwrites silently; replaced private material is wiped first.
func (s *Memory) put(k key, rec domain.Record) error {
	if k.kind == 0 || k.id == "" {
		return fmt.Errorf("%w: empty store key", domain.ErrInvalidArgument)
	}
	if rec.IsZero() {
		return fmt.Errorf("%w: empty record for %s/%s", domain.ErrInvalidArgument, k.kind, k.id)
	}
	if old, ok := s.records[k]; ok {
		wipe(old)
	}
	s.records[k] = rec
	return nil
}

// remove is a no-op when the key is absent.
func (s *Memory) remove(k key) error {
	if k.kind == 0 || k.id == "" {
		return fmt.Errorf("%w: empty store key", domain.ErrInvalidArgument)
	}
	if old, ok := s.records[k]; ok {
		wipe(old)
		delete(s.records, k)
	}
	return nil
}

func wipe(rec domain.Record) {
	for _, b := range rec.Sensitive() {
		memzero.Zero(b)
	}
}

func numericID(id uint32) string { return strconv.FormatUint(uint64(id), 10) }

// ---------- Local identity ----------

// IdentityKeyPair returns the local identity key pair, if set.
func (s *Memory) IdentityKeyPair() (domain.KeyPair, bool, error) {
	rec, ok, err := s.get(key{domain.KindIdentity, localID})
	if err != nil || !ok {
		return domain.KeyPair{}, false, err
	}
	kp, err := rec.Identity()
	if err != nil {
		return domain.KeyPair{}, false, err
	}
	return kp, true, nil
}

// SetIdentityKeyPair records the local identity key pair, replacing any
// previous one.
func (s *Memory) SetIdentityKeyPair(kp domain.KeyPair) error {
	rec, err := domain.NewIdentityRecord(kp)
	if err != nil {
		return err
	}
	return s.put(key{domain.KindIdentity, localID}, rec)
}

// RegistrationID returns the local registration id, if set.
func (s *Memory) RegistrationID() (uint32, bool, error) {
	rec, ok, err := s.get(key{domain.KindRegistrationID, localID})
	if err != nil || !ok {
		return 0, false, err
	}
	id, err := rec.RegistrationID()
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// SetRegistrationID records the local registration id.
func (s *Memory) SetRegistrationID(id uint32) error {
	return s.put(key{domain.KindRegistrationID, localID}, domain.NewRegistrationIDRecord(id))
}

// ---------- One-time pre-keys ----------

// LoadPreKey returns the pre-key with the given id, if stored.
func (s *Memory) LoadPreKey(id uint32) (domain.PreKey, bool, error) {
	rec, ok, err := s.get(key{domain.KindPreKey, numericID(id)})
	if err != nil || !ok {
		return domain.PreKey{}, false, err
	}
	pk, err := rec.PreKey()
	if err != nil {
		return domain.PreKey{}, false, err
	}
	return pk, true, nil
}

// StorePreKey stores pk under its id, replacing silently.
func (s *Memory) StorePreKey(pk domain.PreKey) error {
	rec, err := domain.NewPreKeyRecord(pk)
	if err != nil {
		return err
	}
	return s.put(key{domain.KindPreKey, numericID(pk.ID)}, rec)
}

// ContainsPreKey reports whether a pre-key with the given id is stored.
func (s *Memory) ContainsPreKey(id uint32) (bool, error) {
	_, ok, err := s.get(key{domain.KindPreKey, numericID(id)})
	return ok, err
}

// RemovePreKey consumes the pre-key with the given id. Removing an absent
// id is a no-op.
func (s *Memory) RemovePreKey(id uint32) error {
	return s.remove(key{domain.KindPreKey, numericID(id)})
}

// PreKeys returns the remaining pre-keys ordered by id, for bundle assembly.
func (s *Memory) PreKeys() ([]domain.PreKey, error) {
	var out []domain.PreKey
	for k, rec := range s.records {
		if k.kind != domain.KindPreKey {
			continue
		}
		pk, err := rec.PreKey()
		if err != nil {
			return nil, err
		}
		out = append(out, pk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ---------- Signed pre-keys ----------

// LoadSignedPreKey returns the signed pre-key with the given id, if stored.
func (s *Memory) LoadSignedPreKey(id uint32) (domain.SignedPreKey, bool, error) {
	rec, ok, err := s.get(key{domain.KindSignedPreKey, numericID(id)})
	if err != nil || !ok {
		return domain.SignedPreKey{}, false, err
	}
	spk, err := rec.SignedPreKey()
	if err != nil {
		return domain.SignedPreKey{}, false, err
	}
	return spk, true, nil
}

// LoadSignedPreKeys returns all stored signed pre-keys ordered by id.
func (s *Memory) LoadSignedPreKeys() ([]domain.SignedPreKey, error) {
	var out []domain.SignedPreKey
	for k, rec := range s.records {
		if k.kind != domain.KindSignedPreKey {
			continue
		}
		spk, err := rec.SignedPreKey()
		if err != nil {
			return nil, err
		}
		out = append(out, spk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// StoreSignedPreKey stores spk under its id, replacing silently.
func (s *Memory) StoreSignedPreKey(spk domain.SignedPreKey) error {
	rec, err := domain.NewSignedPreKeyRecord(spk)
	if err != nil {
		return err
	}
	return s.put(key{domain.KindSignedPreKey, numericID(spk.ID)}, rec)
}

// ContainsSignedPreKey reports whether a signed pre-key with the given id
// is stored.
func (s *Memory) ContainsSignedPreKey(id uint32) (bool, error) {
	_, ok, err := s.get(key{domain.KindSignedPreKey, numericID(id)})
	return ok, err
}

// RemoveSignedPreKey drops a rotated-out signed pre-key.
func (s *Memory) RemoveSignedPreKey(id uint32) error {
	return s.remove(key{domain.KindSignedPreKey, numericID(id)})
}

// ---------- Sessions ----------

// LoadSession returns the opaque session blob for addr, if stored.
func (s *Memory) LoadSession(addr domain.PeerAddress) ([]byte, bool, error) {
	if addr.IsZero() {
		return nil, false, fmt.Errorf("%w: empty peer address", domain.ErrInvalidArgument)
	}
	rec, ok, err := s.get(key{domain.KindSession, addr.String()})
	if err != nil || !ok {
		return nil, false, err
	}
	blob, err := rec.Session()
	if err != nil {
		return nil, false, err
	}
	raw, err := codec.Decode(blob)
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// StoreSession stores the opaque session blob for addr, replacing silently.
func (s *Memory) StoreSession(addr domain.PeerAddress, blob []byte) error {
	if addr.IsZero() {
		return fmt.Errorf("%w: empty peer address", domain.ErrInvalidArgument)
	}
	if blob == nil {
		return fmt.Errorf("%w: nil session blob for %s", domain.ErrInvalidArgument, addr)
	}
	return s.put(key{domain.KindSession, addr.String()}, domain.NewSessionRecord(codec.Encode(blob)))
}

// ContainsSession reports whether a session is stored for addr.
func (s *Memory) ContainsSession(addr domain.PeerAddress) (bool, error) {
	if addr.IsZero() {
		return false, fmt.Errorf("%w: empty peer address", domain.ErrInvalidArgument)
	}
	_, ok, err := s.get(key{domain.KindSession, addr.String()})
	return ok, err
}

// RemoveSession tears down the session for addr, if any.
func (s *Memory) RemoveSession(addr domain.PeerAddress) error {
	if addr.IsZero() {
		return fmt.Errorf("%w: empty peer address", domain.ErrInvalidArgument)
	}
	return s.remove(key{domain.KindSession, addr.String()})
}

// RemoveAllSessions removes the sessions of every device of the named peer.
// Other peers' sessions are untouched; the device separator in the stored
// address keeps "alice" from matching "alicette".
func (s *Memory) RemoveAllSessions(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty peer name", domain.ErrInvalidArgument)
	}
	prefix := name + ":"
	for k := range s.records {
		if k.kind == domain.KindSession && strings.HasPrefix(k.id, prefix) {
			delete(s.records, k)
		}
	}
	return nil
}

// RemoveEverySession clears the whole session namespace.
func (s *Memory) RemoveEverySession() error {
	for k := range s.records {
		if k.kind == domain.KindSession {
			delete(s.records, k)
		}
	}
	return nil
}

// SubDeviceSessions lists the device ids of the named peer that currently
// have a stored session.
func (s *Memory) SubDeviceSessions(name string) ([]uint32, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty peer name", domain.ErrInvalidArgument)
	}
	var out []uint32
	for k := range s.records {
		if k.kind != domain.KindSession {
			continue
		}
		addr, err := domain.ParsePeerAddress(k.id)
		if err != nil {
			return nil, fmt.Errorf("%w: unparseable session key %q", domain.ErrCorruptState, k.id)
		}
		if addr.Name == name {
			out = append(out, addr.DeviceID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// ---------- Peer identity trust ----------

// IsTrustedIdentity evaluates trust-on-first-use: an unknown peer is
// trusted unconditionally, a known peer only if key matches the pinned
// bytes exactly. The check never mutates trust state; committing a key is
// SaveIdentity's job.
func (s *Memory) IsTrustedIdentity(addr domain.PeerAddress, identityKey []byte) (bool, error) {
	if addr.IsZero() {
		return false, fmt.Errorf("%w: empty peer address", domain.ErrInvalidArgument)
	}
	if len(identityKey) == 0 {
		return false, fmt.Errorf("%w: empty candidate key for %s", domain.ErrInvalidArgument, addr)
	}
	pinned, ok, err := s.TrustedIdentity(addr)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return bytes.Equal(pinned, identityKey), nil
}

// SaveIdentity pins identityKey for addr, replacing any previous key, and
// reports whether a different key was replaced. Callers use the flag to
// warn about a possible rotation or impersonation attempt.
func (s *Memory) SaveIdentity(addr domain.PeerAddress, identityKey []byte) (bool, error) {
	if addr.IsZero() {
		return false, fmt.Errorf("%w: empty peer address", domain.ErrInvalidArgument)
	}
	rec, err := domain.NewTrustedKeyRecord(identityKey)
	if err != nil {
		return false, err
	}
	prev, had, err := s.TrustedIdentity(addr)
	if err != nil {
		return false, err
	}
	if err := s.put(key{domain.KindTrustedKey, addr.String()}, rec); err != nil {
		return false, err
	}
	return had && !bytes.Equal(prev, identityKey), nil
}

// TrustedIdentity returns the pinned identity key for addr, if any.
func (s *Memory) TrustedIdentity(addr domain.PeerAddress) ([]byte, bool, error) {
	if addr.IsZero() {
		return nil, false, fmt.Errorf("%w: empty peer address", domain.ErrInvalidArgument)
	}
	rec, ok, err := s.get(key{domain.KindTrustedKey, addr.String()})
	if err != nil || !ok {
		return nil, false, err
	}
	pinned, err := rec.TrustedKey()
	if err != nil {
		return nil, false, err
	}
	return pinned, true, nil
}

// ---------- Group sender keys ----------

func senderKeyID(sender domain.PeerAddress, groupID string) string {
	return sender.String() + "|" + groupID
}

// LoadSenderKey returns the sender-key blob for (sender, group), if stored.
func (s *Memory) LoadSenderKey(sender domain.PeerAddress, groupID string) ([]byte, bool, error) {
	if sender.IsZero() || groupID == "" {
		return nil, false, fmt.Errorf("%w: empty sender key name", domain.ErrInvalidArgument)
	}
	rec, ok, err := s.get(key{domain.KindSenderKey, senderKeyID(sender, groupID)})
	if err != nil || !ok {
		return nil, false, err
	}
	blob, err := rec.SenderKey()
	if err != nil {
		return nil, false, err
	}
	raw, err := codec.Decode(blob)
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// StoreSenderKey stores the sender-key blob for (sender, group).
func (s *Memory) StoreSenderKey(sender domain.PeerAddress, groupID string, blob []byte) error {
	if sender.IsZero() || groupID == "" {
		return fmt.Errorf("%w: empty sender key name", domain.ErrInvalidArgument)
	}
	if blob == nil {
		return fmt.Errorf("%w: nil sender key blob", domain.ErrInvalidArgument)
	}
	rec := domain.NewSenderKeyRecord(codec.Encode(blob))
	return s.put(key{domain.KindSenderKey, senderKeyID(sender, groupID)}, rec)
}

// ---------- Per-message keys ----------

// LoadMessageKey returns stored per-message key material, if any.
func (s *Memory) LoadMessageKey(id uint32) (domain.MessageKeys, bool, error) {
	rec, ok, err := s.get(key{domain.KindMessageKey, numericID(id)})
	if err != nil || !ok {
		return domain.MessageKeys{}, false, err
	}
	mk, err := rec.MessageKeys()
	if err != nil {
		return domain.MessageKeys{}, false, err
	}
	return mk, true, nil
}

// StoreMessageKey stores per-message key material under id.
func (s *Memory) StoreMessageKey(id uint32, mk domain.MessageKeys) error {
	return s.put(key{domain.KindMessageKey, numericID(id)}, domain.NewMessageKeyRecord(mk))
}

// ContainsMessageKey reports whether key material is stored under id.
func (s *Memory) ContainsMessageKey(id uint32) (bool, error) {
	_, ok, err := s.get(key{domain.KindMessageKey, numericID(id)})
	return ok, err
}

// RemoveMessageKey drops the key material stored under id.
func (s *Memory) RemoveMessageKey(id uint32) error {
	return s.remove(key{domain.KindMessageKey, numericID(id)})
}

// Compile-time assertion that Memory implements domain.CredentialStore.
var _ domain.CredentialStore = (*Memory)(nil)
