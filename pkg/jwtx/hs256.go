package jwtx

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer is our interface for anything that can sign token claims.
type Signer interface {
	Sign(Claims) (string, error)
}

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrWrongUse    = errors.New("jwtx: token minted for a different use")
)

// HS256 signs and verifies tokens with a shared HMAC-SHA256 secret. Each token
// use (access, refresh, verification) gets its own HS256 instance with its own
// secret so one kind can never stand in for another.
type HS256 struct {
	secret []byte
	issuer string
	use    string
}

// NewHS256 builds a signer/verifier for the given token use bound to a secret
// and issuer.
func NewHS256(secret []byte, issuer, use string) (*HS256, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwtx: HS256 secret must be at least 32 bytes, got %d", len(secret))
	}
	return &HS256{secret: secret, issuer: issuer, use: use}, nil
}

// Issuer returns the issuer this signer stamps into tokens.
func (h *HS256) Issuer() string { return h.issuer }

// Sign turns claims into a signed JWT string.
func (h *HS256) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
}

// Verify validates the JWT string and returns its parsed Claims. Signature,
// algorithm, issuer, use and expiry are all enforced.
func (h *HS256) Verify(tokenStr string) (Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return h.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, ErrMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrInvalidSig
		default:
			return Claims{}, fmt.Errorf("jwtx: parse or verify: %w", err)
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, ErrMalformed
	}

	if err := claims.ValidateIssuer(h.issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateUse(h.use); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateExpiry(); err != nil {
		return Claims{}, err
	}

	return *claims, nil
}
