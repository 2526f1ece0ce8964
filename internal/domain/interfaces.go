package domain

// CredentialStore is the storage contract the Signal protocol engine is run
// against: namespaced, type-checked CRUD over the local identity material,
// per-peer trust state and per-peer session records.
//
// A store instance serves exactly one logical identity. Simulating several
// parties in one process requires one instance per party; sharing an
// instance corrupts cross-referenced session and trust state.
type CredentialStore interface {
	// Local identity
	IdentityKeyPair() (KeyPair, bool, error)
	SetIdentityKeyPair(kp KeyPair) error
	RegistrationID() (uint32, bool, error)
	SetRegistrationID(id uint32) error

	// One-time pre-keys
	LoadPreKey(id uint32) (PreKey, bool, error)
	StorePreKey(pk PreKey) error
	ContainsPreKey(id uint32) (bool, error)
	RemovePreKey(id uint32) error
	PreKeys() ([]PreKey, error)

	// Signed pre-keys
	LoadSignedPreKey(id uint32) (SignedPreKey, bool, error)
	LoadSignedPreKeys() ([]SignedPreKey, error)
	StoreSignedPreKey(spk SignedPreKey) error
	ContainsSignedPreKey(id uint32) (bool, error)
	RemoveSignedPreKey(id uint32) error

	// Sessions
	LoadSession(addr PeerAddress) ([]byte, bool, error)
	StoreSession(addr PeerAddress, blob []byte) error
	ContainsSession(addr PeerAddress) (bool, error)
	RemoveSession(addr PeerAddress) error
	RemoveAllSessions(name string) error
	RemoveEverySession() error
	SubDeviceSessions(name string) ([]uint32, error)

	// Peer identity trust (trust-on-first-use). IsTrustedIdentity never
	// mutates trust state; SaveIdentity is the separate commit and reports
	// whether a different previously pinned key was replaced.
	IsTrustedIdentity(addr PeerAddress, key []byte) (bool, error)
	SaveIdentity(addr PeerAddress, key []byte) (bool, error)
	TrustedIdentity(addr PeerAddress) ([]byte, bool, error)

	// Group sender keys
	LoadSenderKey(sender PeerAddress, groupID string) ([]byte, bool, error)
	StoreSenderKey(sender PeerAddress, groupID string, blob []byte) error

	// Per-message keys (optional protocol feature)
	LoadMessageKey(id uint32) (MessageKeys, bool, error)
	StoreMessageKey(id uint32, mk MessageKeys) error
	ContainsMessageKey(id uint32) (bool, error)
	RemoveMessageKey(id uint32) error
}
