package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a short hex fingerprint of an identity public key.
//
// It hashes with SHA-256 and truncates to 10 bytes (20 hex chars), enough
// for users to compare keys out of band without juggling full keys.
func Fingerprint(pub []byte) string {
	sum := sha256.Sum256(pub)
	return hex.EncodeToString(sum[:10])
}
