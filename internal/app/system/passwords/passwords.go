// Package passwords hashes, checks and rates account passwords.
package passwords

import (
	"errors"
	"fmt"

	passwordvalidator "github.com/wagslane/go-password-validator"
	"golang.org/x/crypto/bcrypt"
)

// MinEntropyBits is the minimum strength accepted for a new password.
const MinEntropyBits = 50

// maxLen is bcrypt's input limit.
const maxLen = 72

var ErrTooLong = errors.New("password must be at most 72 bytes")

// Hash returns the bcrypt hash of pw.
func Hash(pw string) (string, error) {
	if len(pw) > maxLen {
		return "", ErrTooLong
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// Check reports whether pw matches hash.
func Check(hash, pw string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Validate rejects weak or oversized passwords with a message suitable for
// the caller.
func Validate(pw string) error {
	if len(pw) > maxLen {
		return ErrTooLong
	}
	if err := passwordvalidator.Validate(pw, MinEntropyBits); err != nil {
		return fmt.Errorf("password is not strong enough: %w", err)
	}
	return nil
}

// Rules describes the password requirements for display.
func Rules() string {
	return fmt.Sprintf("Use a long passphrase or a mix of letters, numbers and symbols (at most %d bytes).", maxLen)
}
