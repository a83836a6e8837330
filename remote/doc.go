// Package remote is a thin helper for driving a host over SSH.
//
// Establish opens a TCP connection, performs the SSH handshake and
// authenticates with a private key file. The returned Session can then push a
// file with WriteFile, pull one with ReadFile, and run a batch of shell
// commands with RunCommands. Transfers use SCP; each command batch runs on its
// own exec channel.
//
// Every failure is returned as a *Error naming the stage that failed (see the
// Err* sentinels). Nothing is retried.
package remote
