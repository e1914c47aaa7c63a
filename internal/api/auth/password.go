package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is applied when the configured cost is zero or out
// of bcrypt's accepted range.
const DefaultBcryptCost = 12

// HashPassword derives a salted one-way hash from the plaintext. Each
// invocation embeds a fresh random salt, so two hashes of the same
// password differ while both still verify.
func HashPassword(plaintext string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether plaintext matches the stored hash.
// A malformed hash is never an error here, just a failed match.
func CheckPassword(plaintext, passwordHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(plaintext)) == nil
}
