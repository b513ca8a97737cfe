package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest      = errors.New("invalid_request")
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrAccountLocked       = errors.New("account_locked")
	ErrAccountDisabled     = errors.New("account_disabled")
	ErrInvalidRefreshToken = errors.New("invalid_or_expired_refresh_token")
	ErrUsernameTaken       = errors.New("username_already_exists")
	ErrEmailTaken          = errors.New("email_already_exists")
	ErrPhoneTaken          = errors.New("phone_already_exists")
	ErrAccountNotFound     = errors.New("account_not_found")
	ErrWrongPassword       = errors.New("wrong_current_password")
	ErrHasDependents       = errors.New("account_has_dependents")
)

// RequestError is a validation failure with a message safe to show the
// caller. It matches ErrInvalidRequest.
type RequestError struct {
	Reason string
}

func (e *RequestError) Error() string { return "invalid_request: " + e.Reason }

func (e *RequestError) Is(target error) bool { return target == ErrInvalidRequest }

func invalidf(format string, args ...any) error {
	return &RequestError{Reason: fmt.Sprintf(format, args...)}
}
