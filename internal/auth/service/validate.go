package service

import (
	"strings"
	"unicode/utf8"

	"github.com/otoshop/otoshop/internal/auth/domain"
)

// splitIdentifier decides whether a registration identifier is an email or
// a username. Emails are lowercased.
func splitIdentifier(identifier string) (username, email string, err error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", "", invalidf("identifier is required")
	}
	if domain.IsEmail(identifier) {
		email = strings.ToLower(identifier)
	} else {
		username = identifier
	}
	return username, email, validateIdentity(username, email)
}

func validateIdentity(username, email string) error {
	if username == "" && email == "" {
		return invalidf("username or email is required")
	}
	if n := utf8.RuneCountInString(username); n > domain.MaxUsernameLength {
		return invalidf("username must be at most %d characters", domain.MaxUsernameLength)
	}
	if username != "" && strings.ContainsAny(username, " \t\r\n") {
		return invalidf("username must not contain whitespace")
	}
	// An email-shaped username would shadow the account owning that email
	// at login, since username matches win.
	if username != "" && domain.IsEmail(username) {
		return invalidf("username must not be an email address")
	}
	if email != "" {
		if utf8.RuneCountInString(email) > domain.MaxEmailLength {
			return invalidf("email must be at most %d characters", domain.MaxEmailLength)
		}
		if !domain.IsEmail(email) {
			return invalidf("email is not valid")
		}
	}
	return nil
}

func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < domain.MinPasswordLength {
		return invalidf("password must be at least %d characters", domain.MinPasswordLength)
	}
	if n > domain.MaxPasswordLength {
		return invalidf("password must be at most %d characters", domain.MaxPasswordLength)
	}
	return nil
}
