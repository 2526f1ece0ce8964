// Package codec converts byte sequences to strings and back without loss.
//
// The credential store keeps opaque protocol blobs (sessions, sender keys)
// in string-typed record variants; this codec is the bridge. The mapping is
// one byte to one rune (Latin-1 style), never a UTF-8 reinterpretation of
// the input, so round-tripping reproduces the exact original bytes.
package codec
