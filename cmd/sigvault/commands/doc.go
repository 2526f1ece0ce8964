// Package commands defines the sigvault CLI.
//
// Commands
//
//   - demo    Run a two-party encrypted exchange in process
//
// # Implementation
//
// The root command configures logging before any subcommand runs. The demo
// wires two independent parties (separate stores, separate identities) and
// walks the full flow: initialize credentials, exchange pre-key bundles,
// establish sessions, then encrypt and decrypt in both directions.
package commands
