package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/otoshop/otoshop/internal/auth/domain"
	"github.com/otoshop/otoshop/pkg/idx"
	"github.com/otoshop/otoshop/pkg/slogx"
)

const (
	AdminUsername = "admin"
	AdminEmail    = "admin@gmail.com"
	AdminFullName = "Administrator"
)

// EnsureAdmin creates the default administrator when neither its username
// nor its email is taken. It reports whether an account was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, password string) (bool, error) {
	l := slogx.FromContext(ctx)

	accounts := s.Store.Accounts()
	byName, err := accounts.ExistsByUsername(ctx, AdminUsername)
	if err != nil {
		return false, fmt.Errorf("check admin username: %w", err)
	}
	byEmail, err := accounts.ExistsByEmail(ctx, AdminEmail)
	if err != nil {
		return false, fmt.Errorf("check admin email: %w", err)
	}
	if byName || byEmail {
		return false, nil
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	admin := domain.Account{
		ID:           idx.New().String(),
		Username:     AdminUsername,
		Email:        AdminEmail,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
		Status:       domain.StatusActive,
	}
	profile := domain.Profile{
		ID:        idx.New().String(),
		AccountID: admin.ID,
		FullName:  AdminFullName,
	}

	if err := createAccount(ctx, s.Store, admin, profile); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}

	l.Warn("default admin account created, change its password",
		slog.String("account_id", admin.ID),
		slog.String("username", AdminUsername),
	)
	return true, nil
}
