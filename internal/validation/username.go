package validation

import (
	"errors"
	"regexp"
	"strings"
)

// Usernames appear in URL paths, so they are limited to a path-safe alphabet.
var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.-]+$`)

// ValidateUsername validates a public username
func ValidateUsername(username string) error {
	trimmed := strings.TrimSpace(username)

	if trimmed == "" {
		return errors.New("username is required")
	}

	if len(trimmed) > 50 {
		return errors.New("username is too long (max 50 characters)")
	}

	if !usernamePattern.MatchString(trimmed) {
		return errors.New("username may only contain letters, digits, '.', '_' and '-'")
	}

	return nil
}
