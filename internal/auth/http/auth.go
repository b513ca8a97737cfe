package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/otoshop/otoshop/internal/auth/service"
	"github.com/otoshop/otoshop/pkg/authsdk"
	"github.com/otoshop/otoshop/pkg/httpx"
)

const (
	RefreshCookieName = "refreshToken"
	RefreshCookiePath = "/auth/refresh"
)

// CookieConfig controls how the refresh token is handed to clients.
type CookieConfig struct {
	Secure bool

	// RefreshInBody also returns the refresh token in the login response
	// body, for clients that cannot keep cookies.
	RefreshInBody bool
}

type AuthHandler struct {
	AuthService *service.AuthService
	Metrics     *Metrics
	Cookies     CookieConfig
}

// HandleLogin godoc
//
//	@Summary		Log in
//	@Description	Authenticates a username or email with a password. Returns an access token and sets the refreshToken cookie.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.TokenResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"INVALID_REQUEST"
//	@Failure		401		{object}	authsdk.ErrorResponse	"INVALID_CREDENTIALS"
//	@Failure		403		{object}	authsdk.ErrorResponse	"ACCOUNT_DISABLED"
//	@Failure		423		{object}	authsdk.ErrorResponse	"ACCOUNT_LOCKED"
//	@Failure		429		{object}	authsdk.ErrorResponse	"RATE_LIMIT_EXCEEDED"
//	@Router			/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadBody(w, r, err)
		return
	}

	pair, err := h.AuthService.Login(r.Context(), req.Identifier, req.Password)
	h.Metrics.Login(loginOutcome(err))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken, pair.RefreshExpiresIn)

	resp := authsdk.TokenResponse{
		AccessToken: pair.AccessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(pair.AccessExpiresIn / time.Second),
	}
	if h.Cookies.RefreshInBody {
		resp.RefreshToken = pair.RefreshToken
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleRefresh godoc
//
//	@Summary		Refresh the access token
//	@Description	Mints a new access token from the refreshToken cookie, or from the body when no cookie is sent. The refresh token is not reissued.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RefreshRequest	false	"Refresh token when no cookie is sent"
//	@Success		200		{object}	authsdk.TokenResponse
//	@Failure		401		{object}	authsdk.ErrorResponse	"INVALID_OR_EXPIRED_REFRESH_TOKEN"
//	@Router			/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie(RefreshCookieName); err == nil {
		token = c.Value
	}
	if token == "" {
		var req authsdk.RefreshRequest
		if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeBadBody(w, r, err)
			return
		}
		token = req.RefreshToken
	}

	access, err := h.AuthService.Refresh(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRefreshToken) {
			h.Metrics.Refresh(OutcomeRejected)
		} else {
			h.Metrics.Refresh(OutcomeError)
		}
		writeServiceError(w, r, err)
		return
	}
	h.Metrics.Refresh(OutcomeSuccess)

	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.AuthService.Codec.AccessTTL() / time.Second),
	})
}

// HandleRegister godoc
//
//	@Summary		Register an account
//	@Description	Creates a USER account. An identifier shaped like an email registers an email account, anything else a username.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RegisterRequest	true	"Registration"
//	@Success		200		{object}	authsdk.APIResponse{data=authsdk.AccountResponse}
//	@Failure		400		{object}	authsdk.ErrorResponse	"INVALID_REQUEST"
//	@Failure		409		{object}	authsdk.ErrorResponse	"USERNAME_ALREADY_EXISTS, EMAIL_ALREADY_EXISTS or PHONE_ALREADY_EXISTS"
//	@Router			/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeBadBody(w, r, err)
		return
	}

	account, err := h.AuthService.Register(r.Context(), service.RegisterInput{
		Identifier: req.Identifier,
		Password:   req.Password,
		FullName:   req.FullName,
		Phone:      req.Phone,
		Address:    req.Address,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := toAccountResponse(service.AccountDetails{Account: account})
	resp.FullName = req.FullName
	resp.Phone = req.Phone
	resp.Address = req.Address

	httpx.WriteJSON(w, http.StatusOK, authsdk.APIResponse{
		Code:    http.StatusOK,
		Message: "registered",
		Data:    resp,
	})
}

// HandleLogout godoc
//
//	@Summary		Log out
//	@Description	Clears the refreshToken cookie. Issued tokens stay valid until they expire.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.APIResponse
//	@Router			/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     RefreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cookies.Secure,
		SameSite: http.SameSiteStrictMode,
	})
	httpx.WriteJSON(w, http.StatusOK, authsdk.APIResponse{
		Code:    http.StatusOK,
		Message: "logged out",
	})
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     RefreshCookiePath,
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   h.Cookies.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func loginOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, service.ErrAccountLocked):
		return OutcomeLocked
	case errors.Is(err, service.ErrAccountDisabled):
		return OutcomeDisabled
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidRequest):
		return OutcomeRejected
	}
	return OutcomeError
}
