// Package validation provides input validators for user-supplied fields.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 128
	maxEmailLength    = 254
	maxNameLength     = 120
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@.]+$`)

// ValidateEmail checks basic email shape and length.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > maxEmailLength {
		return fmt.Errorf("email must be at most %d characters", maxEmailLength)
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("email format is invalid")
	}
	return nil
}

// ValidatePassword enforces password length for local accounts. Lengths
// count runes, not bytes, so multibyte passwords are measured the way users
// perceive them.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	if n > maxPasswordLength {
		return fmt.Errorf("password must be at most %d characters", maxPasswordLength)
	}
	return nil
}

// ValidateName checks a display name. Empty names are allowed; callers
// substitute a fallback when presenting them.
func ValidateName(name string) error {
	if utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("name must be at most %d characters", maxNameLength)
	}
	return nil
}

// NormalizeEmail lowercases and trims an email the way the login and
// register handlers compare them.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
