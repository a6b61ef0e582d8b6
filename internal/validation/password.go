package validation

import (
	"errors"
)

const MinPasswordLength = 8

// ValidatePassword enforces the length bounds for account passwords
func ValidatePassword(password string) error {
	if password == "" {
		return errors.New("password is required")
	}

	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}

	// Maximum length: 72 bytes (bcrypt limitation)
	// bcrypt rejects longer input, so it has to be caught before hashing
	if len(password) > 72 {
		return errors.New("password must not exceed 72 bytes")
	}

	return nil
}
