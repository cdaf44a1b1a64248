package domain

import (
	"crypto/rand"
	"fmt"
)

// Alphabet used for generated identifiers. URL-safe, matching the tokens the
// front end produces for room ids.
const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

// Identifier lengths. Owner and member ids are opaque random tokens with no
// authentication weight; they only distinguish participants.
const (
	OwnerIDLength  = 12
	MemberIDLength = 21
)

// NewID generates a random identifier of the given length from idAlphabet.
func NewID(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid id length %d", length)
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	for i := range b {
		b[i] = idAlphabet[int(b[i])%len(idAlphabet)]
	}
	return string(b), nil
}
