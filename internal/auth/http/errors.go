package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/otoshop/otoshop/internal/auth/service"
	"github.com/otoshop/otoshop/pkg/authsdk"
	"github.com/otoshop/otoshop/pkg/slogx"
)

// writeServiceError maps service errors onto API errors. Unknown errors are
// logged and hidden behind a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *service.RequestError
	switch {
	case errors.As(err, &reqErr):
		authsdk.ErrInvalidRequest.WithMessage(reqErr.Reason).WriteError(w)
	case errors.Is(err, service.ErrInvalidRequest):
		authsdk.ErrInvalidRequest.WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrAccountLocked):
		authsdk.ErrAccountLocked.WriteError(w)
	case errors.Is(err, service.ErrAccountDisabled):
		authsdk.ErrAccountDisabled.WriteError(w)
	case errors.Is(err, service.ErrInvalidRefreshToken):
		authsdk.ErrInvalidRefreshToken.WriteError(w)
	case errors.Is(err, service.ErrUsernameTaken):
		authsdk.ErrUsernameExists.WriteError(w)
	case errors.Is(err, service.ErrEmailTaken):
		authsdk.ErrEmailExists.WriteError(w)
	case errors.Is(err, service.ErrPhoneTaken):
		authsdk.ErrPhoneExists.WriteError(w)
	case errors.Is(err, service.ErrAccountNotFound):
		authsdk.ErrAccountNotFound.WriteError(w)
	case errors.Is(err, service.ErrWrongPassword):
		authsdk.ErrWrongPassword.WriteError(w)
	case errors.Is(err, service.ErrHasDependents):
		authsdk.ErrAccountHasDependents.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", slog.Any("error", err))
		authsdk.ErrInternal.WriteError(w)
	}
}

// writeBadBody reports an undecodable request body.
func writeBadBody(w http.ResponseWriter, r *http.Request, err error) {
	slogx.FromContext(r.Context()).Debug("bad request body", slog.Any("error", err))
	authsdk.ErrInvalidRequest.WithMessage("request body must be a valid JSON object").WriteError(w)
}
