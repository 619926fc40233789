package client

import "errors"

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrMfaRequired  = errors.New("mfa code required")
	ErrNotLoggedIn  = errors.New("not logged in")

	// ErrInvalidMasterPassword leaves the session in place; only the
	// vault unlock failed.
	ErrInvalidMasterPassword = errors.New("invalid master password")
)
