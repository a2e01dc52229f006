package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword derives a one-way, salted hash of the plaintext password.
// Invoked once per registration and once per password change.
func HashPassword(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether plaintext matches the stored hash. The
// comparison is constant-time; a mismatch is false, never an error.
func CheckPassword(plaintext, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plaintext)) == nil
}
