package security

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/otoshop/otoshop/internal/auth/domain"
	"github.com/otoshop/otoshop/pkg/cryptox"
	"github.com/otoshop/otoshop/pkg/httpx"
	"github.com/otoshop/otoshop/pkg/jwtx"
	"github.com/otoshop/otoshop/pkg/slogx"
)

const bearerPrefix = "Bearer "

// AccessVerifier checks access tokens. *jwtx.Codec implements it.
type AccessVerifier interface {
	VerifyAccess(token string) (jwtx.Claims, error)
}

// Filter establishes the request principal from a Bearer access token. It
// never rejects a request: a missing or bad token leaves the request
// anonymous and Authorize decides. Requests matching a public rule skip
// token processing entirely.
func Filter(verifier AccessVerifier, rules *RuleTable) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, authenticate(r, verifier, rules))
		})
	}
}

func authenticate(r *http.Request, verifier AccessVerifier, rules *RuleTable) (out *http.Request) {
	out = r
	l := slogx.FromContext(r.Context())

	defer func() {
		if rec := recover(); rec != nil {
			l.Error("authentication filter panicked",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
			)
			out = r
		}
	}()

	if rules.IsPublic(r.Method, r.URL.Path) {
		return r
	}

	token, ok := bearerToken(r)
	if !ok {
		return r
	}

	claims, err := verifier.VerifyAccess(token)
	if err != nil {
		l.Debug("access token rejected",
			slog.String("token_fp", cryptox.FingerprintToken(token)),
			slog.Any("error", err),
		)
		return r
	}

	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		l.Debug("access token carries unknown role",
			slog.String("token_fp", cryptox.FingerprintToken(token)),
			slog.String("role", claims.Role),
		)
		return r
	}

	if _, attached := PrincipalFromContext(r.Context()); attached {
		return r
	}

	p := domain.NewPrincipal(claims.AccountID, claims.Subject, role)
	ctx := WithPrincipal(r.Context(), p)
	ctx = slogx.With(ctx, slog.String("account_id", p.AccountID), slog.String("role", string(p.Role)))
	return r.WithContext(ctx)
}

// bearerToken extracts the credential after the exact "Bearer " prefix.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, bearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(h[len(bearerPrefix):])
	return token, token != ""
}
