package models

import "time"

// VaultItem is a stored vault entry. Everything except the bookkeeping
// columns lives inside EncryptedData.
type VaultItem struct {
	ID            string
	UserID        string
	EncryptedData string
	Category      *string
	Favorite      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// VaultPayload is the plaintext record sealed into VaultItem.EncryptedData.
type VaultPayload struct {
	Title    string  `json:"title"`
	Username *string `json:"username,omitempty"`
	Password string  `json:"password"`
	URL      *string `json:"url,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}
