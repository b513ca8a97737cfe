package http

import (
	"context"

	"github.com/otoshop/otoshop/internal/auth/security"
)

// principalKey is the rate limit key for authenticated routes.
func principalKey(ctx context.Context) string {
	p, ok := security.PrincipalFromContext(ctx)
	if !ok {
		return ""
	}
	return "account:" + p.AccountID
}
