package validation

import (
	"errors"
	"net/mail"
)

const maxEmailLength = 254

// ValidateEmail accepts a bare addr-spec such as cook@example.com. Display
// names and angle-bracket forms are rejected so the stored value is the
// address itself.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email address is required")
	}
	if len(email) > maxEmailLength {
		return errors.New("email address is too long (max 254 characters)")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return errors.New("invalid email address format")
	}

	return nil
}
