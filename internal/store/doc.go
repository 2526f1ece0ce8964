// Package store provides the in-memory credential store backing the Signal
// protocol engine.
//
// It contains the concrete implementation of domain.CredentialStore: a map
// keyed by (record kind, identifier) holding tagged-variant records. Kind
// membership in the key gives each record class its own namespace, so
// pre-keys, signed pre-keys, sessions and trust entries cannot collide.
//
// The store is memory-resident and accumulate-only: entries appear through
// explicit puts and disappear only through explicit removes (pre-key
// consumption, signed pre-key rotation, session teardown). There is no TTL
// and no garbage collection. A persistent implementation must satisfy the
// same contract.
//
// Instances are not safe for concurrent use and serve exactly one logical
// identity each.
package store
