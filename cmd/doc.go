// Package cmd implements the minimalist command-line interface.
//
// The package wires the remote package into cobra subcommands: put and get
// move file contents over SCP, exec runs a command batch, run drives a YAML
// manifest of file pushes and commands and writes a report, verify validates
// a manifest, and install appends a public key to authorized_keys.
//
// Start with init.go for the flag and environment wiring, connect.go for how
// a session is established, and runCmd.go for the manifest flow.
package cmd
