package utils

import (
	"errors"
	"net/mail"
	"regexp"
)

// mail.ParseAddress implements RFC 5322, which accepts addresses without a
// TLD (user@host). GitHub attribution needs the stricter everyday form.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var (
	ErrEmailEmpty   = errors.New("email is empty")
	ErrEmailInvalid = errors.New("email is not valid")
)

// ValidateEmail checks a commit author email. Git itself accepts any bytes
// in the author field; this guards the configuration surface instead.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailEmpty
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return ErrEmailInvalid
	}
	if !emailRegex.MatchString(email) {
		return ErrEmailInvalid
	}
	return nil
}
