// Package signal adapts the credential store to the storage contract of the
// go.mau.fi/libsignal protocol library.
//
// The adapter converts between the library's record types and the store's
// domain variants: pre-keys and signed pre-keys are kept as raw key pairs,
// sessions and group sender keys as serialized blobs. The protocol engine
// (session builder, session cipher) reads and writes exclusively through
// this adapter; it never touches the backing store directly.
package signal
