package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hash, "$argon2id$"))

	require.NoError(t, VerifyPassword("correct horse battery staple", hash))
	require.ErrorIs(t, VerifyPassword("wrong password", hash), ErrPasswordMismatch)
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	t.Parallel()

	a, err := HashPassword("same input")
	require.NoError(t, err)
	b, err := HashPassword("same input")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestVerifyPasswordRejectsMangledHash(t *testing.T) {
	t.Parallel()

	require.Error(t, VerifyPassword("whatever", "not-a-phc-string"))
}

func TestGenerateRoomCode(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateRoomCode()
		require.NoError(t, err)
		require.Len(t, code, RoomCodeLength)
		for _, c := range code {
			require.Contains(t, roomCodeAlphabet, string(c))
		}
		seen[code] = true
	}
	// 50 draws from a 32^6 space should not collide.
	require.Len(t, seen, 50)
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken(32)
	require.NoError(t, err)
	require.NotEmpty(t, tok)

	other, err := GenerateToken(32)
	require.NoError(t, err)
	require.NotEqual(t, tok, other)
}
