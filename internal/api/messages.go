package api

import "time"

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type UserProfile struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Username    string     `json:"username"`
	MfaEnabled  bool       `json:"mfa_enabled"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

type RegisterResponse struct {
	User UserProfile `json:"user"`
}

type LoginRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	MfaCode  *string `json:"mfa_code,omitempty"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	TokenType string      `json:"token_type"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      UserProfile `json:"user"`
}

type LogoutRequest struct{}

type LogoutResponse struct {
	Status string `json:"status"`
}

type MeRequest struct{}

type MfaSetupRequest struct{}

type MfaSetupResponse struct {
	Secret          string `json:"secret"`
	ProvisioningURI string `json:"provisioning_uri"`
	// QRCodePNG is base64 encoded on the wire.
	QRCodePNG []byte `json:"qr_code_png"`
}

type MfaCodeRequest struct {
	Code string `json:"code"`
}

type MfaStatusRequest struct{}

type MfaStatusResponse struct {
	State string `json:"state"`
}

type AddEntryRequest struct {
	Title    string  `json:"title"`
	Username *string `json:"username,omitempty"`
	Password string  `json:"password"`
	URL      *string `json:"url,omitempty"`
	Notes    *string `json:"notes,omitempty"`
	Category *string `json:"category,omitempty"`
	Favorite bool    `json:"favorite"`
}

type Entry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Username  *string   `json:"username,omitempty"`
	Password  string    `json:"password"`
	URL       *string   `json:"url,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	Category  *string   `json:"category,omitempty"`
	Favorite  bool      `json:"favorite"`
	Strength  int       `json:"strength_score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type EntrySummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Username  *string   `json:"username,omitempty"`
	URL       *string   `json:"url,omitempty"`
	Category  *string   `json:"category,omitempty"`
	Favorite  bool      `json:"favorite"`
	Strength  int       `json:"strength_score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ListEntriesRequest struct{}

type ListEntriesResponse struct {
	Entries []EntrySummary `json:"entries"`
}

type GetEntryRequest struct {
	ID string `json:"id"`
}

// UpdateEntryRequest changes only the fields that are set. An empty string
// clears an optional field.
type UpdateEntryRequest struct {
	ID       string  `json:"id"`
	Title    *string `json:"title,omitempty"`
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
	URL      *string `json:"url,omitempty"`
	Notes    *string `json:"notes,omitempty"`
	Category *string `json:"category,omitempty"`
	Favorite *bool   `json:"favorite,omitempty"`
}

type DeleteEntryRequest struct {
	ID string `json:"id"`
}

type DeleteEntryResponse struct{}

type AnalyticsRequest struct{}

type AnalyticsResponse struct {
	TotalPasswords    int            `json:"total_passwords"`
	WeakPasswords     int            `json:"weak_passwords"`
	ReusedPasswords   int            `json:"reused_passwords"`
	OldPasswords      int            `json:"old_passwords"`
	AverageStrength   float64        `json:"average_strength"`
	CategoryBreakdown map[string]int `json:"category_breakdown"`
}

type PasswordRequest struct {
	Password string `json:"password"`
}

type StrengthResponse struct {
	Score       int      `json:"score"`
	Label       string   `json:"label"`
	Suggestions []string `json:"suggestions"`
	CrackTime   string   `json:"crack_time,omitempty"`
}

type BreachResponse struct {
	Breached bool `json:"breached"`
	Count    int  `json:"count"`
}

type ExportBackupRequest struct{}

type ExportBackupResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	Items     int       `json:"items"`
}

type ActivityRequest struct {
	Limit int `json:"limit,omitempty"`
}

type AuditEvent struct {
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type ActivityResponse struct {
	Events []AuditEvent `json:"events"`
}
