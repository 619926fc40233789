// Package cli implements the interactive GophVault command line client.
//
// The session token is kept in the local session database; the master
// password is asked for on every command that opens the vault and is
// dropped as soon as the call returns.
package cli
