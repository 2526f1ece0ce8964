package domain

// KeyPair holds the raw public and private halves of a Curve25519 key.
//
// Both halves must be present when stored; the store rejects a pair with an
// empty half.
type KeyPair struct {
	Public  []byte
	Private []byte
}

// IsZero reports whether either half of the pair is missing.
func (k KeyPair) IsZero() bool {
	return len(k.Public) == 0 || len(k.Private) == 0
}

// Clone returns a deep copy so callers cannot alias stored key material.
func (k KeyPair) Clone() KeyPair {
	return KeyPair{
		Public:  append([]byte(nil), k.Public...),
		Private: append([]byte(nil), k.Private...),
	}
}

// PreKey is a one-time pre-key: a key pair identified by a numeric id.
type PreKey struct {
	ID      uint32
	KeyPair KeyPair
}

// SignedPreKey is a long-lived pre-key whose public half is signed by the
// identity key. The signature is carried alongside the pair and is not
// re-validated on read.
type SignedPreKey struct {
	PreKey
	Signature []byte
	CreatedAt int64
}

// MessageKeys holds derived per-message key material for out-of-order
// decryption.
type MessageKeys struct {
	CipherKey []byte
	MacKey    []byte
	IV        []byte
	Index     uint32
}
