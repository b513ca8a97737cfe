package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CodecOptions configure a Codec. Zero TTLs fall back to the defaults.
type CodecOptions struct {
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now is the clock used for issuing and for expiry checks.
	Now func() time.Time
}

// Codec issues and verifies HS256 tokens against a KeySet. Verification is a
// pure function of the token, the keys and the clock.
type Codec struct {
	keys       *KeySet
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	parser     *jwt.Parser
}

func NewCodec(keys *KeySet, opts CodecOptions) *Codec {
	c := &Codec{
		keys:       keys,
		issuer:     opts.Issuer,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		now:        opts.Now,
		// Time-based claims are checked by ValidateTime against c.now.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
	if c.accessTTL <= 0 {
		c.accessTTL = DefaultAccessTokenTTL
	}
	if c.refreshTTL <= 0 {
		c.refreshTTL = DefaultRefreshTokenTTL
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

func (c *Codec) AccessTTL() time.Duration  { return c.accessTTL }
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }
func (c *Codec) Keys() *KeySet             { return c.keys }

func (c *Codec) IssueAccessToken(subject, accountID, role string) (string, error) {
	tok, _, err := c.Issue(KindAccess, subject, accountID, role)
	return tok, err
}

func (c *Codec) IssueRefreshToken(subject, accountID, role string) (string, error) {
	tok, _, err := c.Issue(KindRefresh, subject, accountID, role)
	return tok, err
}

// Issue signs a token of the given kind with the active key generation.
func (c *Codec) Issue(kind Kind, subject, accountID, role string) (string, Claims, error) {
	ttl := c.accessTTL
	if kind == KindRefresh {
		ttl = c.refreshTTL
	}

	kid, secret, err := c.keys.Active()
	if err != nil {
		return "", Claims{}, err
	}

	claims := NewClaims(kind, subject, accountID, role, c.issuer, ttl, c.now().UTC())
	if err := claims.ValidateShape(); err != nil {
		return "", Claims{}, fmt.Errorf("jwtx: refusing to sign: %w", err)
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["kid"] = kid
	signed, err := t.SignedString(secret)
	if err != nil {
		return "", Claims{}, fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, claims, nil
}

// Parse verifies signature, issuer, shape and expiry of a token of either
// kind. Every failure wraps ErrInvalidToken.
func (c *Codec) Parse(token string) (Claims, error) {
	claims := &Claims{}
	_, err := c.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, ErrUnknownKID
		}
		return c.keys.Get(kid)
	})
	if err != nil {
		return Claims{}, invalid(classify(err))
	}

	if err := claims.ValidateIssuer(c.issuer); err != nil {
		return Claims{}, invalid(err)
	}
	if err := claims.ValidateShape(); err != nil {
		return Claims{}, invalid(err)
	}
	if err := claims.ValidateTime(c.now()); err != nil {
		return Claims{}, invalid(err)
	}
	return *claims, nil
}

func (c *Codec) VerifyAccess(token string) (Claims, error) {
	return c.verifyKind(token, KindAccess)
}

func (c *Codec) VerifyRefresh(token string) (Claims, error) {
	return c.verifyKind(token, KindRefresh)
}

func (c *Codec) verifyKind(token string, kind Kind) (Claims, error) {
	claims, err := c.Parse(token)
	if err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateKind(kind); err != nil {
		return Claims{}, invalid(err)
	}
	return claims, nil
}

// Validate reports whether token has a good signature and has not expired.
func (c *Codec) Validate(token string) bool {
	_, err := c.Parse(token)
	return err == nil
}

func (c *Codec) SubjectOf(token string) (string, error) {
	claims, err := c.Parse(token)
	if err != nil {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (c *Codec) RoleOf(token string) (string, error) {
	claims, err := c.Parse(token)
	if err != nil {
		return "", ErrInvalidToken
	}
	return claims.Role, nil
}

func invalid(reason error) error {
	return fmt.Errorf("%w: %w", ErrInvalidToken, reason)
}

func classify(err error) error {
	switch {
	case errors.Is(err, ErrUnknownKID):
		return ErrUnknownKID
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
