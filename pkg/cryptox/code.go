package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

// RoomCodeLength is the length of the short join codes printed on screens and
// read out loud. Six characters of the alphabet below give ~31 bits, which is
// plenty for codes scoped by a uniqueness constraint.
const RoomCodeLength = 6

// roomCodeAlphabet omits 0/O and 1/I to keep codes unambiguous when spoken.
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateRoomCode returns a random uppercase join code. Callers are expected
// to retry on a uniqueness violation from the store.
func GenerateRoomCode() (string, error) {
	code := make([]byte, RoomCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(roomCodeAlphabet))))
		if err != nil {
			return "", fmt.Errorf("cryptox: failed to generate room code: %w", err)
		}
		code[i] = roomCodeAlphabet[n.Int64()]
	}
	return string(code), nil
}

// GenerateToken creates a cryptographically secure random token of the given
// byte length, base64url-encoded without padding.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("cryptox: token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("cryptox: failed to generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
