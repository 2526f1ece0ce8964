package domain

import "fmt"

// RecordKind enumerates the value variants a credential store holds. The
// kind is part of the composite store key, so the namespaces of the
// different record classes cannot collide.
type RecordKind uint8

const (
	KindIdentity RecordKind = iota + 1
	KindRegistrationID
	KindPreKey
	KindSignedPreKey
	KindSession
	KindTrustedKey
	KindSenderKey
	KindMessageKey
)

// String returns the namespace label of the kind.
func (k RecordKind) String() string {
	switch k {
	case KindIdentity:
		return "identity"
	case KindRegistrationID:
		return "registration-id"
	case KindPreKey:
		return "pre-key"
	case KindSignedPreKey:
		return "signed-pre-key"
	case KindSession:
		return "session"
	case KindTrustedKey:
		return "trusted-key"
	case KindSenderKey:
		return "sender-key"
	case KindMessageKey:
		return "message-key"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Record is a tagged variant holding exactly one of the store's value
// shapes. Constructors validate on write; accessors check the tag on read
// and fail with ErrCorruptState on a mismatch instead of coercing.
type Record struct {
	kind RecordKind

	keyPair   KeyPair      // KindIdentity
	scalar    uint32       // KindRegistrationID
	preKey    PreKey       // KindPreKey
	signedKey SignedPreKey // KindSignedPreKey
	blob      string       // KindSession, KindSenderKey (codec-encoded)
	raw       []byte       // KindTrustedKey
	msgKeys   MessageKeys  // KindMessageKey
}

// Kind returns the variant tag; zero for an empty record.
func (r Record) Kind() RecordKind { return r.kind }

// IsZero reports whether the record holds no variant.
func (r Record) IsZero() bool { return r.kind == 0 }

// NewIdentityRecord wraps the local identity key pair.
func NewIdentityRecord(kp KeyPair) (Record, error) {
	if kp.IsZero() {
		return Record{}, fmt.Errorf("%w: identity key pair missing a half", ErrInvalidArgument)
	}
	return Record{kind: KindIdentity, keyPair: kp.Clone()}, nil
}

// NewRegistrationIDRecord wraps the local registration id.
func NewRegistrationIDRecord(id uint32) Record {
	return Record{kind: KindRegistrationID, scalar: id}
}

// NewPreKeyRecord wraps a one-time pre-key.
func NewPreKeyRecord(pk PreKey) (Record, error) {
	if pk.KeyPair.IsZero() {
		return Record{}, fmt.Errorf("%w: pre-key %d missing a key half", ErrInvalidArgument, pk.ID)
	}
	pk.KeyPair = pk.KeyPair.Clone()
	return Record{kind: KindPreKey, preKey: pk}, nil
}

// NewSignedPreKeyRecord wraps a signed pre-key.
func NewSignedPreKeyRecord(spk SignedPreKey) (Record, error) {
	if spk.KeyPair.IsZero() {
		return Record{}, fmt.Errorf("%w: signed pre-key %d missing a key half", ErrInvalidArgument, spk.ID)
	}
	spk.KeyPair = spk.KeyPair.Clone()
	spk.Signature = append([]byte(nil), spk.Signature...)
	return Record{kind: KindSignedPreKey, signedKey: spk}, nil
}

// NewSessionRecord wraps an opaque session blob already encoded to a string.
func NewSessionRecord(blob string) Record {
	return Record{kind: KindSession, blob: blob}
}

// NewTrustedKeyRecord wraps a peer's pinned identity key bytes.
func NewTrustedKeyRecord(key []byte) (Record, error) {
	if len(key) == 0 {
		return Record{}, fmt.Errorf("%w: empty trusted key", ErrInvalidArgument)
	}
	return Record{kind: KindTrustedKey, raw: append([]byte(nil), key...)}, nil
}

// NewSenderKeyRecord wraps an opaque group sender-key blob.
func NewSenderKeyRecord(blob string) Record {
	return Record{kind: KindSenderKey, blob: blob}
}

// NewMessageKeyRecord wraps derived per-message keys.
func NewMessageKeyRecord(mk MessageKeys) Record {
	return Record{kind: KindMessageKey, msgKeys: mk}
}

func (r Record) mismatch(want RecordKind) error {
	return fmt.Errorf("%w: want %s record, have %s", ErrCorruptState, want, r.kind)
}

// Identity unwraps the identity key pair variant.
func (r Record) Identity() (KeyPair, error) {
	if r.kind != KindIdentity {
		return KeyPair{}, r.mismatch(KindIdentity)
	}
	if r.keyPair.IsZero() {
		return KeyPair{}, fmt.Errorf("%w: identity record missing a key half", ErrCorruptState)
	}
	return r.keyPair.Clone(), nil
}

// RegistrationID unwraps the scalar variant.
func (r Record) RegistrationID() (uint32, error) {
	if r.kind != KindRegistrationID {
		return 0, r.mismatch(KindRegistrationID)
	}
	return r.scalar, nil
}

// PreKey unwraps the one-time pre-key variant.
func (r Record) PreKey() (PreKey, error) {
	if r.kind != KindPreKey {
		return PreKey{}, r.mismatch(KindPreKey)
	}
	pk := r.preKey
	pk.KeyPair = pk.KeyPair.Clone()
	return pk, nil
}

// SignedPreKey unwraps the signed pre-key variant.
func (r Record) SignedPreKey() (SignedPreKey, error) {
	if r.kind != KindSignedPreKey {
		return SignedPreKey{}, r.mismatch(KindSignedPreKey)
	}
	spk := r.signedKey
	spk.KeyPair = spk.KeyPair.Clone()
	spk.Signature = append([]byte(nil), spk.Signature...)
	return spk, nil
}

// Session unwraps the session blob variant.
func (r Record) Session() (string, error) {
	if r.kind != KindSession {
		return "", r.mismatch(KindSession)
	}
	return r.blob, nil
}

// TrustedKey unwraps the pinned identity key variant.
func (r Record) TrustedKey() ([]byte, error) {
	if r.kind != KindTrustedKey {
		return nil, r.mismatch(KindTrustedKey)
	}
	return append([]byte(nil), r.raw...), nil
}

// SenderKey unwraps the group sender-key blob variant.
func (r Record) SenderKey() (string, error) {
	if r.kind != KindSenderKey {
		return "", r.mismatch(KindSenderKey)
	}
	return r.blob, nil
}

// MessageKeys unwraps the per-message key material variant.
func (r Record) MessageKeys() (MessageKeys, error) {
	if r.kind != KindMessageKey {
		return MessageKeys{}, r.mismatch(KindMessageKey)
	}
	return r.msgKeys, nil
}

// Sensitive returns the byte slices holding private key material, so the
// store can wipe them when the record is dropped.
func (r Record) Sensitive() [][]byte {
	switch r.kind {
	case KindIdentity:
		return [][]byte{r.keyPair.Private}
	case KindPreKey:
		return [][]byte{r.preKey.KeyPair.Private}
	case KindSignedPreKey:
		return [][]byte{r.signedKey.KeyPair.Private}
	case KindMessageKey:
		return [][]byte{r.msgKeys.CipherKey, r.msgKeys.MacKey}
	default:
		return nil
	}
}
