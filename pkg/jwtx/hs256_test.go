package jwtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestNewHS256RejectsShortSecrets(t *testing.T) {
	t.Parallel()

	_, err := NewHS256([]byte("too short"), "dicey", UseAccess)
	require.Error(t, err)
}

func TestSignAndVerify(t *testing.T) {
	t.Parallel()

	signer, err := NewHS256(testSecret, "dicey", UseAccess)
	require.NoError(t, err)

	now := time.Now().UTC()
	token, err := signer.Sign(NewAccessClaims("user-1", "alice@example.com", "dicey", time.Minute, now))
	require.NoError(t, err)

	claims, err := signer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "alice@example.com", claims.Email)
	require.Equal(t, UseAccess, claims.Use)
	require.NotEmpty(t, claims.ID)
}

func TestVerifyRejections(t *testing.T) {
	t.Parallel()

	signer, err := NewHS256(testSecret, "dicey", UseAccess)
	require.NoError(t, err)
	now := time.Now().UTC()

	t.Run("malformed token", func(t *testing.T) {
		_, err := signer.Verify("garbage")
		require.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewHS256([]byte("ffffffffffffffffffffffffffffffff"), "dicey", UseAccess)
		require.NoError(t, err)
		token, err := other.Sign(NewAccessClaims("user-1", "", "dicey", time.Minute, now))
		require.NoError(t, err)

		_, err = signer.Verify(token)
		require.ErrorIs(t, err, ErrInvalidSig)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := signer.Sign(NewAccessClaims("user-1", "", "dicey", time.Minute, now.Add(-time.Hour)))
		require.NoError(t, err)

		_, err = signer.Verify(token)
		require.ErrorIs(t, err, ErrExpired)
	})

	t.Run("issuer mismatch", func(t *testing.T) {
		token, err := signer.Sign(NewAccessClaims("user-1", "", "someone-else", time.Minute, now))
		require.NoError(t, err)

		_, err = signer.Verify(token)
		require.ErrorIs(t, err, ErrIssuer)
	})

	t.Run("refresh token fails access verification", func(t *testing.T) {
		refresh, err := NewHS256(testSecret, "dicey", UseRefresh)
		require.NoError(t, err)
		token, err := refresh.Sign(NewRefreshClaims("user-1", "dicey", time.Minute, now))
		require.NoError(t, err)

		_, err = signer.Verify(token)
		require.ErrorIs(t, err, ErrWrongUse)
	})
}

func TestVerificationClaimsCarryEmailOnly(t *testing.T) {
	t.Parallel()

	claims := NewVerificationClaims("alice@example.com", "dicey", time.Hour, time.Now().UTC())
	require.Empty(t, claims.Subject)
	require.Equal(t, "alice@example.com", claims.Email)
	require.Equal(t, UseVerification, claims.Use)
}
