// Package crypto holds small display-side helpers.
//
// The actual protocol cryptography (key agreement, ratcheting, message
// framing) lives entirely in the external protocol library; this package
// only derives short public-key fingerprints for logging and out-of-band
// verification.
package crypto
