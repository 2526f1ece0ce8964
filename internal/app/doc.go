// Package app wires application dependencies for the CLI.
//
// It builds a Party (one logical identity with its own credential store,
// protocol store adapter and services) from Config. Each simulated party
// gets a separate store instance; sharing one store between identities
// corrupts session and trust state.
package app
