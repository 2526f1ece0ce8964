// Package account manages the local party's credential material.
//
// It drives the protocol library's key helpers to create the identity key
// pair, registration id, one-time pre-keys and signed pre-key, persists
// everything through the credential store, and assembles the publishable
// pre-key bundle other parties use to establish sessions.
package account
