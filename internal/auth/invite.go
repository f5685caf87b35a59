package auth

import (
	"crypto/rand"
	"fmt"
)

const (
	inviteCodeLength = 6

	// No 0/O/1/I so the code survives being read out loud
	inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// GenerateInviteCode generates a short random invite code from an
// unambiguous uppercase alphabet
func GenerateInviteCode() (string, error) {
	bytes := make([]byte, inviteCodeLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate invite code: %w", err)
	}

	code := make([]byte, inviteCodeLength)
	for i, b := range bytes {
		code[i] = inviteAlphabet[int(b)%len(inviteAlphabet)]
	}

	return string(code), nil
}
