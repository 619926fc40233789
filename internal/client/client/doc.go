// Package client talks to the GophVault gRPC endpoint.
//
// GRPCClient keeps one connection and the current session token. The token
// is attached to every call by a unary interceptor; the master password is
// sent only on calls that unlock the vault and is never stored. Status codes
// are mapped to the sentinel errors below so the CLI can react with
// errors.Is.
//
// InitDatabase opens the local SQLite database that remembers the session
// between runs.
package client
