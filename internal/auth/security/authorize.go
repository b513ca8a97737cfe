package security

import (
	"log/slog"
	"net/http"

	"github.com/otoshop/otoshop/internal/auth/domain"
	"github.com/otoshop/otoshop/pkg/authsdk"
	"github.com/otoshop/otoshop/pkg/httpx"
	"github.com/otoshop/otoshop/pkg/slogx"
)

// Authorize enforces the rule table. It must run after Filter.
func Authorize(rules *RuleTable) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rule := rules.Decide(r.Method, r.URL.Path)

			var principal *domain.Principal
			if p, ok := PrincipalFromContext(r.Context()); ok {
				principal = &p
			}

			switch rule.Check(principal) {
			case Unauthenticated:
				slogx.FromContext(r.Context()).Debug("request needs authentication",
					slog.String("rule", rule.String()),
				)
				authsdk.ErrUnauthenticated.WriteError(w)
				return
			case Forbidden:
				slogx.FromContext(r.Context()).Info("access denied",
					slog.String("rule", rule.String()),
					slog.String("role", string(principal.Role)),
				)
				authsdk.ErrAccessDenied.WriteError(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
