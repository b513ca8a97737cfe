package security

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/otoshop/otoshop/internal/auth/domain"
	"github.com/otoshop/otoshop/pkg/authsdk"
	"github.com/otoshop/otoshop/pkg/httpx"
	"github.com/otoshop/otoshop/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newCodec(t *testing.T) *jwtx.Codec {
	t.Helper()
	keys := jwtx.NewKeySet()
	require.NoError(t, keys.Add("g1", []byte(testSecret)))
	return jwtx.NewCodec(keys, jwtx.CodecOptions{Issuer: "test", AccessTTL: time.Minute})
}

// pipeline mirrors the router: Filter then Authorize then a handler that
// echoes the principal.
func pipeline(v AccessVerifier, rules *RuleTable, seen *domain.Principal) http.Handler {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := PrincipalFromContext(r.Context()); ok && seen != nil {
			*seen = p
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return httpx.Chain(h, Filter(v, rules), Authorize(rules))
}

func do(h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPipelineDecisions(t *testing.T) {
	codec := newCodec(t)
	h := pipeline(codec, DefaultRules(), nil)

	userToken, err := codec.IssueAccessToken("bob", "2", "USER")
	require.NoError(t, err)
	adminToken, err := codec.IssueAccessToken("admin", "1", "ADMIN")
	require.NoError(t, err)
	refreshToken, err := codec.IssueRefreshToken("admin", "1", "ADMIN")
	require.NoError(t, err)

	t.Run("public route without header", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, do(h, http.MethodGet, "/cars/123", "").Code)
	})

	t.Run("protected route without header", func(t *testing.T) {
		rec := do(h, http.MethodGet, "/users/me", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

		var body authsdk.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, authsdk.ErrorCodeUnauthenticated, body.ErrorCode)
		require.Equal(t, http.StatusUnauthorized, body.Status)
	})

	t.Run("user on admin route", func(t *testing.T) {
		rec := do(h, http.MethodPut, "/users/42", userToken)
		require.Equal(t, http.StatusForbidden, rec.Code)

		var body authsdk.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, authsdk.ErrorCodeAccessDenied, body.ErrorCode)
	})

	t.Run("user on own route", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, do(h, http.MethodGet, "/users/me", userToken).Code)
	})

	t.Run("admin writes cars", func(t *testing.T) {
		require.Equal(t, http.StatusNoContent, do(h, http.MethodPost, "/cars", adminToken).Code)
		require.Equal(t, http.StatusForbidden, do(h, http.MethodPost, "/cars", userToken).Code)
	})

	t.Run("invalid token is anonymous", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/users/me", "garbage").Code)
		require.Equal(t, http.StatusNoContent, do(h, http.MethodGet, "/cars/1", "garbage").Code)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/users/me", refreshToken).Code)
	})

	t.Run("scheme must be exact", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
		req.Header.Set("Authorization", "bearer "+adminToken)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestFilterAttachesPrincipal(t *testing.T) {
	codec := newCodec(t)
	var seen domain.Principal
	h := pipeline(codec, DefaultRules(), &seen)

	token, err := codec.IssueAccessToken("bob@example.com", "acc-2", "USER")
	require.NoError(t, err)

	require.Equal(t, http.StatusNoContent, do(h, http.MethodGet, "/orders", token).Code)
	require.Equal(t, "acc-2", seen.AccountID)
	require.Equal(t, "bob@example.com", seen.Username)
	require.Equal(t, domain.RoleUser, seen.Role)
	require.Equal(t, []string{"ROLE_USER"}, seen.Authorities)
}

func TestFilterDoesNotOverwritePrincipal(t *testing.T) {
	codec := newCodec(t)
	rules := DefaultRules()

	existing := domain.NewPrincipal("pre", "preset", domain.RoleAdmin)
	var seen domain.Principal
	inner := pipeline(codec, rules, &seen)
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), existing)))
	})

	token, err := codec.IssueAccessToken("bob", "2", "USER")
	require.NoError(t, err)

	require.Equal(t, http.StatusNoContent, do(h, http.MethodGet, "/admin/stats", token).Code)
	require.Equal(t, existing.AccountID, seen.AccountID)
	require.Equal(t, domain.RoleAdmin, seen.Role)
}

type panickingVerifier struct{}

func (panickingVerifier) VerifyAccess(string) (jwtx.Claims, error) {
	panic("boom")
}

type failingVerifier struct{ calls int }

func (f *failingVerifier) VerifyAccess(string) (jwtx.Claims, error) {
	f.calls++
	return jwtx.Claims{}, errors.New("nope")
}

func TestFilterRecoversPanic(t *testing.T) {
	h := pipeline(panickingVerifier{}, DefaultRules(), nil)

	// The request continues anonymously; authorization then rejects it.
	require.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/users/me", "tok").Code)
}

func TestFilterSkipsPublicRoutes(t *testing.T) {
	v := &failingVerifier{}
	h := pipeline(v, DefaultRules(), nil)

	require.Equal(t, http.StatusNoContent, do(h, http.MethodPost, "/auth/login", "tok").Code)
	require.Equal(t, 0, v.calls)

	do(h, http.MethodGet, "/users/me", "tok")
	require.Equal(t, 1, v.calls)
}
