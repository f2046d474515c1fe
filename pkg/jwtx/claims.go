package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/diceydecisions/dicey/pkg/cryptox"
)

// Token lifetimes. Access tokens are short-lived, refresh tokens carry the
// session across access expiries, and verification tokens are single-purpose
// links delivered by email.
const (
	DefaultAccessTokenTTL       = 30 * time.Minute
	DefaultRefreshTokenTTL      = 7 * 24 * time.Hour
	DefaultVerificationTokenTTL = time.Hour
)

// Token use values embedded in the "use" claim. Each use is also signed with
// its own secret, so this is belt and braces against token confusion.
const (
	UseAccess       = "access"
	UseRefresh      = "refresh"
	UseVerification = "verify"
)

// Claims are the claims carried by every token the service issues. Subject is
// the user ID for access/refresh tokens; verification tokens identify the
// address being verified via Email and leave Subject empty.
type Claims struct {
	jwt.RegisteredClaims

	// Email of the authenticated user (access tokens) or of the address
	// being verified (verification tokens).
	Email string `json:"email,omitempty"`

	// Use discriminates token kinds: "access", "refresh" or "verify".
	Use string `json:"use,omitempty"`
}

// NewAccessClaims builds claims for a short-lived access token.
func NewAccessClaims(userID, email, issuer string, ttl time.Duration, now time.Time) Claims {
	return newClaims(userID, email, issuer, UseAccess, ttl, now)
}

// NewRefreshClaims builds claims for a long-lived refresh token. Refresh
// tokens carry only the user ID.
func NewRefreshClaims(userID, issuer string, ttl time.Duration, now time.Time) Claims {
	return newClaims(userID, "", issuer, UseRefresh, ttl, now)
}

// NewVerificationClaims builds claims for a single-use email verification
// token.
func NewVerificationClaims(email, issuer string, ttl time.Duration, now time.Time) Claims {
	return newClaims("", email, issuer, UseVerification, ttl, now)
}

func newClaims(subject, email, issuer, use string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        newJTI(),
		},
		Email: email,
		Use:   use,
	}
}

// newJTI returns a URL-safe random identifier for the "jti" claim.
func newJTI() string {
	id, _ := cryptox.GenerateToken(20)
	return id
}

// ValidateIssuer checks the issuer matches the expected value. An empty
// expected issuer enforces nothing.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateUse checks the token was minted for the expected purpose.
func (c *Claims) ValidateUse(expected string) error {
	if c.Use != expected {
		return ErrWrongUse
	}
	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't used before
// it is valid (nbf).
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}
