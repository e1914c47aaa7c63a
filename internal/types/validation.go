package types

import (
	"net/mail"
	"strings"
)

const (
	NameMinLen     = 2
	NameMaxLen     = 50
	PasswordMinLen = 6
)

// NormalizeEmail lower-cases and trims an email so uniqueness checks
// are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateName trims the name and checks the 2-50 character bound.
// Returns the trimmed value and an empty message on success.
func ValidateName(name string) (string, string) {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < NameMinLen || len(trimmed) > NameMaxLen {
		return "", "Name must be between 2 and 50 characters"
	}
	return trimmed, ""
}

// ValidateEmail normalizes the address and checks its shape.
func ValidateEmail(email string) (string, string) {
	normalized := NormalizeEmail(email)
	if normalized == "" {
		return "", "Please provide a valid email"
	}
	if addr, err := mail.ParseAddress(normalized); err != nil || addr.Address != normalized {
		return "", "Please provide a valid email"
	}
	return normalized, ""
}

// ValidatePassword checks the minimum length for a new password.
func ValidatePassword(password string) string {
	if len(password) < PasswordMinLen {
		return "Password must be at least 6 characters long"
	}
	return ""
}
