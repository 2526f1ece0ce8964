// Package messaging is a thin facade over the protocol library's session
// builder and cipher.
//
// It establishes sessions from remote pre-key bundles and encrypts and
// decrypts message envelopes, leaving all ratchet state management to the
// library and all persistence to the credential store behind the signal
// adapter.
package messaging
