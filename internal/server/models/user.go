// Package models defines server-side data models persisted in the database.
package models

import "time"

// MfaState is the second-factor enrollment state of a user.
type MfaState string

const (
	MfaDisabled MfaState = "disabled"
	MfaPending  MfaState = "pending"
	MfaEnabled  MfaState = "enabled"
)

// User is the credential record. Neither the master password nor anything
// derived from it as a key is stored; MfaSecretEncrypted and
// MfaPendingSecret hold envelopes sealed under the derived vault key.
type User struct {
	ID           string
	Email        string
	Username     string
	PasswordHash string
	// Salt is the vault key salt. It never changes after registration.
	Salt []byte

	MfaEnabled         bool
	MfaSecretEncrypted *string
	MfaPendingSecret   *string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt *time.Time
}

func (u *User) MfaState() MfaState {
	switch {
	case u.MfaEnabled:
		return MfaEnabled
	case u.MfaPendingSecret != nil:
		return MfaPending
	default:
		return MfaDisabled
	}
}
