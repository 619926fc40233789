// Package common defines the sentinel errors and small helpers shared by the
// client and server layers of GophVault. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrValidation     = errors.New("validation error")
	ErrDerivationBusy = errors.New("key derivation capacity exhausted")

	// Credential errors. Unknown email and wrong password both map to
	// ErrInvalidCredentials.
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrMasterPasswordRequired = errors.New("master password required")

	// ErrInvalidMasterPassword rejects the master password resupplied on a
	// call that already carries a valid session.
	ErrInvalidMasterPassword = errors.New("invalid master password")

	// Second factor.
	ErrMfaRequired           = errors.New("mfa code required")
	ErrInvalidMfaCode        = errors.New("invalid mfa code")
	ErrMfaVerificationFailed = errors.New("mfa verification failed")
	ErrMfaNotPending         = errors.New("mfa enrollment not started")
	ErrMfaAlreadyEnabled     = errors.New("mfa already enabled")
	ErrMfaNotEnabled         = errors.New("mfa not enabled")

	// Envelope errors.
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrMalformedRecord      = errors.New("malformed record")

	// Session token errors. Expired, malformed and forged tokens are not
	// told apart.
	ErrTokenInvalid = errors.New("invalid token")
)
