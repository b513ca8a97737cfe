package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/otoshop/otoshop/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	ErrorCodeInvalidRequest        = "INVALID_REQUEST"
	ErrorCodeInvalidCredentials    = "INVALID_CREDENTIALS"
	ErrorCodeAccountLocked         = "ACCOUNT_LOCKED"
	ErrorCodeAccountDisabled       = "ACCOUNT_DISABLED"
	ErrorCodeInvalidRefreshToken   = "INVALID_OR_EXPIRED_REFRESH_TOKEN"
	ErrorCodeUsernameExists        = "USERNAME_ALREADY_EXISTS"
	ErrorCodeEmailExists           = "EMAIL_ALREADY_EXISTS"
	ErrorCodePhoneExists           = "PHONE_ALREADY_EXISTS"
	ErrorCodeUnauthenticated       = "UNAUTHENTICATED"
	ErrorCodeAccessDenied          = "ACCESS_DENIED"
	ErrorCodeAccountNotFound       = "ACCOUNT_NOT_FOUND"
	ErrorCodeAccountHasDependents  = "ACCOUNT_HAS_DEPENDENTS"
	ErrorCodeWrongPassword         = "INVALID_CURRENT_PASSWORD"
	ErrorCodeRateLimitExceeded     = "RATE_LIMIT_EXCEEDED"
	ErrorCodeMethodNotAllowed      = "METHOD_NOT_ALLOWED"
	ErrorCodeNotFound              = "NOT_FOUND"
	ErrorCodeInternalServerError   = "INTERNAL_SERVER_ERROR"
	ErrorCodeUnexpectedHTTPFailure = "UNEXPECTED_RESPONSE"
)

// ErrorResponse is the JSON body of every error returned by the service.
type ErrorResponse = httpx.ErrorBody

// ============================================================================
// APIError
// ============================================================================

// APIError is a typed service error. The server writes it with WriteError
// and the client returns it from failed calls, so callers can match on
// Code with errors.As.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches another *APIError with the same Code.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// WriteError writes e as an ErrorResponse. 401 responses carry a Bearer
// challenge.
func (e *APIError) WriteError(w http.ResponseWriter) {
	if e.StatusCode == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer`)
	}
	httpx.WriteError(w, e.StatusCode, e.Code, e.Message)
}

// WithMessage returns a copy of e with a different message.
func (e *APIError) WithMessage(msg string) *APIError {
	c := *e
	c.Message = msg
	return &c
}

func NewAPIError(statusCode int, code, message string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Message: message}
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	ErrInvalidRequest = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrorCodeInvalidRequest,
		Message:    "the request is malformed or missing required fields",
	}

	ErrInvalidCredentials = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeInvalidCredentials,
		Message:    "invalid username/email or password",
	}

	ErrAccountLocked = &APIError{
		StatusCode: http.StatusLocked,
		Code:       ErrorCodeAccountLocked,
		Message:    "account is locked",
	}

	ErrAccountDisabled = &APIError{
		StatusCode: http.StatusForbidden,
		Code:       ErrorCodeAccountDisabled,
		Message:    "account is disabled",
	}

	ErrInvalidRefreshToken = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeInvalidRefreshToken,
		Message:    "refresh token is invalid or expired",
	}

	ErrUsernameExists = &APIError{
		StatusCode: http.StatusConflict,
		Code:       ErrorCodeUsernameExists,
		Message:    "username already exists",
	}

	ErrEmailExists = &APIError{
		StatusCode: http.StatusConflict,
		Code:       ErrorCodeEmailExists,
		Message:    "email already exists",
	}

	ErrPhoneExists = &APIError{
		StatusCode: http.StatusConflict,
		Code:       ErrorCodePhoneExists,
		Message:    "phone number already exists",
	}

	ErrUnauthenticated = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       ErrorCodeUnauthenticated,
		Message:    "authentication is required to access this resource",
	}

	ErrAccessDenied = &APIError{
		StatusCode: http.StatusForbidden,
		Code:       ErrorCodeAccessDenied,
		Message:    "you do not have permission to access this resource",
	}

	ErrAccountNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Code:       ErrorCodeAccountNotFound,
		Message:    "account not found",
	}

	ErrAccountHasDependents = &APIError{
		StatusCode: http.StatusConflict,
		Code:       ErrorCodeAccountHasDependents,
		Message:    "account still owns records that must be removed first",
	}

	ErrWrongPassword = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       ErrorCodeWrongPassword,
		Message:    "current password is incorrect",
	}

	ErrMethodNotAllowed = &APIError{
		StatusCode: http.StatusMethodNotAllowed,
		Code:       ErrorCodeMethodNotAllowed,
		Message:    "method not allowed",
	}

	ErrNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Code:       ErrorCodeNotFound,
		Message:    "resource not found",
	}

	ErrInternal = &APIError{
		StatusCode: http.StatusInternalServerError,
		Code:       ErrorCodeInternalServerError,
		Message:    "an unexpected error occurred",
	}
)

// ============================================================================
// Error Parsing
// ============================================================================

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.ErrorCode != "" {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       errResp.ErrorCode,
			Message:    errResp.Message,
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       ErrorCodeUnexpectedHTTPFailure,
		Message:    fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
