package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	authhttp "github.com/otoshop/otoshop/internal/auth/http"
	"github.com/otoshop/otoshop/internal/auth/security"
	"github.com/otoshop/otoshop/internal/auth/service"
	"github.com/otoshop/otoshop/internal/auth/store/drivers/sqlite"
	"github.com/otoshop/otoshop/pkg/authsdk"
	"github.com/otoshop/otoshop/pkg/cryptox"
	"github.com/otoshop/otoshop/pkg/httpx"
	"github.com/otoshop/otoshop/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

type testServer struct {
	router *authhttp.Router
	codec  *jwtx.Codec
	clock  *clock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.Add("t1", []byte("0123456789abcdef0123456789abcdef")))

	clk := &clock{t: time.Now().UTC().Truncate(time.Second)}
	codec := jwtx.NewCodec(keys, jwtx.CodecOptions{
		Issuer:     "otoshop-test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: time.Hour,
		Now:        clk.Now,
	})
	hasher := cryptox.NewHasher("pepper", cryptox.Params{
		Memory: 1024, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16,
	})

	authSvc := &service.AuthService{Store: st, Hasher: hasher, Codec: codec}
	_, err = authSvc.EnsureAdmin(context.Background(), "admin")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := authhttp.NewRouter(codec, security.DefaultRules(), "test", st, logger)
	r.AuthService = authSvc
	r.AccountService = &service.AccountService{Store: st, Hasher: hasher}
	relaxed := httpx.RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
	r.Limits = authhttp.RateLimits{
		Login:    relaxed,
		Register: relaxed,
		Refresh:  relaxed,
		Accounts: relaxed,
		Health:   relaxed,
	}
	r.Collaborators = map[string]http.Handler{
		"POST /cars": http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}),
	}
	r.ApplyRoutes()

	return &testServer{router: r, codec: codec, clock: clk}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, identifier, password string) (authsdk.TokenResponse, *http.Cookie) {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/auth/login", "", authsdk.LoginRequest{Identifier: identifier, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tok authsdk.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))

	var refresh *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == authhttp.RefreshCookieName {
			refresh = c
		}
	}
	require.NotNil(t, refresh, "refresh cookie not set")
	return tok, refresh
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) authsdk.ErrorResponse {
	t.Helper()
	var body authsdk.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestLogin_SeededAdmin(t *testing.T) {
	s := newTestServer(t)

	tok, cookie := s.login(t, "admin", "admin")
	require.Equal(t, "Bearer", tok.TokenType)
	require.EqualValues(t, 900, tok.ExpiresIn)
	require.Empty(t, tok.RefreshToken)

	claims, err := s.codec.VerifyAccess(tok.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "admin", claims.Subject)
	require.Equal(t, "ADMIN", claims.Role)

	require.True(t, cookie.HttpOnly)
	require.Equal(t, authhttp.RefreshCookiePath, cookie.Path)
	require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
	require.Equal(t, 3600, cookie.MaxAge)

	_, err = s.codec.VerifyRefresh(cookie.Value)
	require.NoError(t, err)
}

func TestLogin_Failures(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/login", "", authsdk.LoginRequest{Identifier: "admin", Password: "nope"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeError(t, rec)
	require.Equal(t, authsdk.ErrorCodeInvalidCredentials, body.ErrorCode)
	require.Equal(t, http.StatusUnauthorized, body.Status)
	require.NotEmpty(t, body.Timestamp)

	rec = s.do(t, http.MethodPost, "/auth/login", "", authsdk.LoginRequest{Identifier: "ghost", Password: "admin"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, authsdk.ErrorCodeInvalidCredentials, decodeError(t, rec).ErrorCode)

	rec = s.do(t, http.MethodPost, "/auth/login", "", authsdk.LoginRequest{Identifier: "", Password: "admin"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, authsdk.ErrorCodeInvalidRequest, decodeError(t, rec).ErrorCode)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRefresh(t *testing.T) {
	s := newTestServer(t)
	_, cookie := s.login(t, "admin", "admin")

	t.Run("cookie", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/auth/refresh", "", nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var tok authsdk.TokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tok))
		claims, err := s.codec.VerifyAccess(tok.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "ADMIN", claims.Role)
		require.Empty(t, rec.Result().Cookies(), "refresh token is not reissued")
	})

	t.Run("body", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/auth/refresh", "", authsdk.RefreshRequest{RefreshToken: cookie.Value})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("missing", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/auth/refresh", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, authsdk.ErrorCodeInvalidRefreshToken, decodeError(t, rec).ErrorCode)
	})

	t.Run("expired", func(t *testing.T) {
		s.clock.t = s.clock.t.Add(time.Hour + time.Second)
		rec := s.do(t, http.MethodPost, "/auth/refresh", "", nil, cookie)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, authsdk.ErrorCodeInvalidRefreshToken, decodeError(t, rec).ErrorCode)
	})
}

func TestRegister(t *testing.T) {
	s := newTestServer(t)

	req := authsdk.RegisterRequest{
		Identifier: "Jane@Example.com",
		Password:   "s3cret",
		FullName:   "Jane Doe",
		Phone:      "0901234567",
	}
	rec := s.do(t, http.MethodPost, "/auth/register", "", req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		authsdk.APIResponse
		Data authsdk.AccountResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "jane@example.com", resp.Data.Email)
	require.Equal(t, "USER", resp.Data.Role)
	require.Equal(t, "ACTIVE", resp.Data.Status)

	tests := []struct {
		name string
		req  authsdk.RegisterRequest
		code string
	}{
		{
			name: "email taken",
			req:  authsdk.RegisterRequest{Identifier: "jane@example.com", Password: "s3cret", FullName: "Jane"},
			code: authsdk.ErrorCodeEmailExists,
		},
		{
			name: "username taken",
			req:  authsdk.RegisterRequest{Identifier: "admin", Password: "s3cret", FullName: "Other"},
			code: authsdk.ErrorCodeUsernameExists,
		},
		{
			name: "phone taken",
			req:  authsdk.RegisterRequest{Identifier: "bob", Password: "s3cret", FullName: "Bob", Phone: "0901234567"},
			code: authsdk.ErrorCodePhoneExists,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/auth/register", "", tt.req)
			require.Equal(t, http.StatusConflict, rec.Code)
			require.Equal(t, tt.code, decodeError(t, rec).ErrorCode)
		})
	}

	// the registered account can log in by email
	tok, _ := s.login(t, "jane@example.com", "s3cret")
	claims, err := s.codec.VerifyAccess(tok.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "jane@example.com", claims.Subject)
	require.Equal(t, "USER", claims.Role)
}

func TestAuthorization(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/register", "", authsdk.RegisterRequest{
		Identifier: "bob", Password: "hunter2", FullName: "Bob",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	admin, _ := s.login(t, "admin", "admin")
	user, _ := s.login(t, "bob", "hunter2")

	t.Run("anonymous gets 401", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/users/me", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
		require.Equal(t, authsdk.ErrorCodeUnauthenticated, decodeError(t, rec).ErrorCode)
	})

	t.Run("user cannot update others", func(t *testing.T) {
		rec := s.do(t, http.MethodPut, "/users/42", user.AccessToken, authsdk.UpdateAccountRequest{})
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, authsdk.ErrorCodeAccessDenied, decodeError(t, rec).ErrorCode)
	})

	t.Run("user cannot write cars", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/cars", user.AccessToken, nil)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin writes cars", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/cars", admin.AccessToken, nil)
		require.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("garbage token is anonymous", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/users/me", "not-a-jwt", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("user reads self", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/users/me", user.AccessToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var me authsdk.AccountResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
		require.Equal(t, "bob", me.Username)
		require.Equal(t, "Bob", me.FullName)
	})

	t.Run("admin lists users", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/users?limit=10", admin.AccessToken, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var page authsdk.AccountListResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		require.Equal(t, 2, page.Total)
		require.Len(t, page.Items, 2)
		require.Equal(t, 10, page.Limit)
	})

	t.Run("admin missing account", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/users/missing", admin.AccessToken, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, authsdk.ErrorCodeAccountNotFound, decodeError(t, rec).ErrorCode)
	})
}

func TestChangePassword(t *testing.T) {
	s := newTestServer(t)
	tok, _ := s.login(t, "admin", "admin")

	rec := s.do(t, http.MethodPut, "/users/me/password", tok.AccessToken, authsdk.ChangePasswordRequest{
		CurrentPassword: "wrong", NewPassword: "n3w-pass",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, authsdk.ErrorCodeWrongPassword, decodeError(t, rec).ErrorCode)

	rec = s.do(t, http.MethodPut, "/users/me/password", tok.AccessToken, authsdk.ChangePasswordRequest{
		CurrentPassword: "admin", NewPassword: "n3w-pass",
	})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	s.login(t, "admin", "n3w-pass")
}

func TestLogout_ClearsCookie(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/auth/logout", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, authhttp.RefreshCookieName, cookies[0].Name)
	require.Empty(t, cookies[0].Value)
	require.Negative(t, cookies[0].MaxAge)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var health authsdk.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	require.Equal(t, "ok", health.Status)
	require.Equal(t, "ok", health.Checks.Database)

	s.login(t, "admin", "admin")
	s.do(t, http.MethodPost, "/auth/login", "", authsdk.LoginRequest{Identifier: "admin", Password: "bad"})

	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	require.Contains(t, out, `otoshop_auth_logins_total{outcome="success"} 1`)
	require.Contains(t, out, `otoshop_auth_logins_total{outcome="rejected"} 1`)
	require.Contains(t, out, `otoshop_http_requests_total{code="200",method="post",route="POST /auth/login"}`)
}

func TestUnroutedRequestsGetErrorBody(t *testing.T) {
	s := newTestServer(t)
	admin, _ := s.login(t, "admin", "admin")

	t.Run("public path without handler", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/cars/123", "", nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeError(t, rec)
		require.Equal(t, authsdk.ErrorCodeNotFound, body.ErrorCode)
		require.Equal(t, http.StatusNotFound, body.Status)
		require.NotEmpty(t, body.Timestamp)
	})

	t.Run("protected path without handler", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/admin/reports", admin.AccessToken, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, authsdk.ErrorCodeNotFound, decodeError(t, rec).ErrorCode)
	})

	t.Run("encoded traversal", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/cars%2F..%2Fusers", "", nil)
		require.NotEqual(t, http.StatusOK, rec.Code)
		if rec.Code == http.StatusNotFound {
			require.Equal(t, authsdk.ErrorCodeNotFound, decodeError(t, rec).ErrorCode)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/cars", "", nil)
		require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		require.Contains(t, rec.Header().Get("Allow"), http.MethodPost)
		body := decodeError(t, rec)
		require.Equal(t, authsdk.ErrorCodeMethodNotAllowed, body.ErrorCode)
		require.Equal(t, http.StatusMethodNotAllowed, body.Status)
	})
}
