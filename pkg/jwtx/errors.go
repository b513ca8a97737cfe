package jwtx

import "errors"

// ErrInvalidToken is the only error callers should branch on. The reasons
// below are joined onto it so logs can tell them apart.
var ErrInvalidToken = errors.New("jwtx: invalid token")

var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrUnknownKID = errors.New("jwtx: unknown kid")
	ErrInvalidSig = errors.New("jwtx: invalid signature")
	ErrIssuer     = errors.New("jwtx: issuer mismatch")
	ErrExpired    = errors.New("jwtx: token expired")
	ErrNotYet     = errors.New("jwtx: token not yet valid")
	ErrWrongKind  = errors.New("jwtx: wrong token kind")
	ErrClaims     = errors.New("jwtx: invalid claims")

	ErrNoKey   = errors.New("jwtx: no signing key")
	ErrWeakKey = errors.New("jwtx: signing secret too short")
)
