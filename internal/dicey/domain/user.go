package domain

import "time"

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string // argon2 encoded
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PendingUser is a registration awaiting email verification. Rows expire
// after a TTL and are swept by housekeeping; verifying promotes the row into
// the users table.
type PendingUser struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}

// TokenPair is what the auth endpoints return: a short-lived access token
// and a longer-lived refresh token, both JWTs.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type,omitempty"` // typically "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"`           // seconds until expiry
}
