package domain

import (
	"regexp"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// ParseRole accepts "admin", "ADMIN" and "ROLE_ADMIN" forms.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), AuthorityPrefix)
	switch r := Role(s); r {
	case RoleAdmin, RoleUser:
		return r, true
	}
	return "", false
}

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleUser }

type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
	StatusBanned   Status = "BANNED"
)

func ParseStatus(s string) (Status, bool) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusActive, StatusInactive, StatusBanned:
		return st, true
	}
	return "", false
}

const (
	MaxUsernameLength = 50
	MaxEmailLength    = 100
	MinPasswordLength = 4
	MaxPasswordLength = 128
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+$`)

// IsEmail reports whether an identifier is treated as an email address.
func IsEmail(identifier string) bool {
	return emailPattern.MatchString(identifier)
}

// Account is the authentication identity. At least one of Username or Email
// is set.
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string // argon2id PHC string, never plaintext
	Role         Role
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ApplyDefaults fills the role and status left unset at creation.
func (a *Account) ApplyDefaults() {
	if a.Role == "" {
		a.Role = RoleUser
	}
	if a.Status == "" {
		a.Status = StatusActive
	}
}

// LoginName is the name carried as the token subject.
func (a Account) LoginName() string {
	if a.Username != "" {
		return a.Username
	}
	return a.Email
}

func (a Account) Locked() bool   { return a.Status == StatusBanned }
func (a Account) Disabled() bool { return a.Status == StatusInactive }
func (a Account) Usable() bool   { return a.Status == StatusActive }

// Principal builds the request identity for this account.
func (a Account) Principal() Principal {
	return NewPrincipal(a.ID, a.LoginName(), a.Role)
}
