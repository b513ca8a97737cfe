package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Kind separates access tokens from refresh tokens signed with the same keys.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims carried by both token kinds. Subject is the login name of the
// account (username, or email for accounts registered without one).
type Claims struct {
	jwt.RegisteredClaims

	AccountID string `json:"aid,omitempty"`
	Role      string `json:"role"`
	Kind      Kind   `json:"typ"`
}

// NewClaims builds claims expiring at now+ttl. Timestamps are truncated to
// whole seconds by the JWT encoding.
func NewClaims(kind Kind, subject, accountID, role, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		AccountID: accountID,
		Role:      role,
		Kind:      kind,
	}
}

// NewJTI returns a URL-safe random value for the "jti" claim.
func NewJTI() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" || c.Issuer == expected {
		return nil
	}
	return ErrIssuer
}

// ValidateTime checks exp and nbf against now. The expiry instant itself is
// already expired: a token is usable only while now < exp.
func (c *Claims) ValidateTime(now time.Time) error {
	if c.ExpiresAt == nil {
		return ErrClaims
	}
	if !now.Before(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYet
	}
	return nil
}

func (c *Claims) ValidateKind(want Kind) error {
	if c.Kind != want {
		return ErrWrongKind
	}
	return nil
}

// ValidateShape rejects tokens that verify but lack the fields every
// consumer relies on.
func (c *Claims) ValidateShape() error {
	if c.Subject == "" || c.Role == "" {
		return ErrClaims
	}
	switch c.Kind {
	case KindAccess, KindRefresh:
		return nil
	default:
		return ErrClaims
	}
}
