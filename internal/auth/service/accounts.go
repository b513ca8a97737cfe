package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/otoshop/otoshop/internal/auth/domain"
	"github.com/otoshop/otoshop/internal/auth/store"
	"github.com/otoshop/otoshop/pkg/cryptox"
	"github.com/otoshop/otoshop/pkg/idx"
	"github.com/otoshop/otoshop/pkg/slogx"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AccountService holds the administrative and self-service operations on
// accounts.
type AccountService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
}

// AccountDetails is an account with its profile. Profile is zero when the
// account has none.
type AccountDetails struct {
	Account domain.Account
	Profile domain.Profile
}

type Page struct {
	Accounts []domain.Account
	Total    int
	Limit    int
	Offset   int
}

func (s *AccountService) List(ctx context.Context, limit, offset int) (Page, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	limit = min(limit, MaxPageSize)
	offset = max(offset, 0)

	accounts, err := s.Store.Accounts().List(ctx, limit, offset)
	if err != nil {
		return Page{}, err
	}
	total, err := s.Store.Accounts().Count(ctx)
	if err != nil {
		return Page{}, err
	}
	return Page{Accounts: accounts, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *AccountService) Get(ctx context.Context, id string) (AccountDetails, error) {
	a, err := s.Store.Accounts().GetByID(ctx, id)
	if err != nil {
		return AccountDetails{}, mapStoreError(err)
	}
	return s.withProfile(ctx, a)
}

// FindByUsername matches the username column only.
func (s *AccountService) FindByUsername(ctx context.Context, username string) (AccountDetails, error) {
	a, err := s.Store.Accounts().FindByIdentifier(ctx, username)
	if err != nil {
		return AccountDetails{}, mapStoreError(err)
	}
	if a.Username != username {
		return AccountDetails{}, ErrAccountNotFound
	}
	return s.withProfile(ctx, a)
}

// Me returns the account behind an authenticated principal.
func (s *AccountService) Me(ctx context.Context, p domain.Principal) (AccountDetails, error) {
	return s.Get(ctx, p.AccountID)
}

func (s *AccountService) withProfile(ctx context.Context, a domain.Account) (AccountDetails, error) {
	p, err := s.Store.Profiles().GetByAccountID(ctx, a.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return AccountDetails{}, err
	}
	return AccountDetails{Account: a, Profile: p}, nil
}

type ProvisionInput struct {
	Username string
	Email    string
	Password string
	Role     domain.Role
	Status   domain.Status
	FullName string
	Phone    string
	Address  string
}

// Provision creates an account with an explicit role and status.
func (s *AccountService) Provision(ctx context.Context, in ProvisionInput) (AccountDetails, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateIdentity(username, email); err != nil {
		return AccountDetails{}, err
	}
	if err := validatePassword(in.Password); err != nil {
		return AccountDetails{}, err
	}
	if in.Role != "" && !in.Role.Valid() {
		return AccountDetails{}, invalidf("unknown role %q", in.Role)
	}
	if in.Status != "" {
		if _, ok := domain.ParseStatus(string(in.Status)); !ok {
			return AccountDetails{}, invalidf("unknown status %q", in.Status)
		}
	}

	if err := checkAvailable(ctx, s.Store.Accounts(), username, email); err != nil {
		return AccountDetails{}, err
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return AccountDetails{}, fmt.Errorf("hash password: %w", err)
	}

	account := domain.Account{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		Status:       in.Status,
	}
	account.ApplyDefaults()

	profile := domain.Profile{
		ID:        idx.New().String(),
		AccountID: account.ID,
		FullName:  strings.TrimSpace(in.FullName),
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
	}

	if err := createAccount(ctx, s.Store, account, profile); err != nil {
		return AccountDetails{}, err
	}

	slogx.FromContext(ctx).Info("account provisioned",
		slog.String("account_id", account.ID),
		slog.String("role", string(account.Role)),
	)
	return s.Get(ctx, account.ID)
}

// UpdateInput carries the fields to change; nil fields are left alone.
// An empty Username or Email clears that field.
type UpdateInput struct {
	Username *string
	Email    *string
	Role     *domain.Role
	Status   *domain.Status
	Password *string
}

func (s *AccountService) Update(ctx context.Context, id string, in UpdateInput) (AccountDetails, error) {
	l := slogx.FromContext(ctx)

	var newHash string
	if in.Password != nil {
		if err := validatePassword(*in.Password); err != nil {
			return AccountDetails{}, err
		}
		hash, err := s.Hasher.Hash(*in.Password)
		if err != nil {
			return AccountDetails{}, fmt.Errorf("hash password: %w", err)
		}
		newHash = hash
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		a, err := tx.Accounts().GetByID(ctx, id)
		if err != nil {
			return err
		}

		if in.Username != nil {
			a.Username = strings.TrimSpace(*in.Username)
		}
		if in.Email != nil {
			a.Email = strings.ToLower(strings.TrimSpace(*in.Email))
		}
		if in.Role != nil {
			if !in.Role.Valid() {
				return invalidf("unknown role %q", *in.Role)
			}
			a.Role = *in.Role
		}
		if in.Status != nil {
			st, ok := domain.ParseStatus(string(*in.Status))
			if !ok {
				return invalidf("unknown status %q", *in.Status)
			}
			a.Status = st
		}
		if err := validateIdentity(a.Username, a.Email); err != nil {
			return err
		}

		if err := tx.Accounts().Update(ctx, a); err != nil {
			return err
		}
		if newHash != "" {
			return tx.Accounts().UpdatePasswordHash(ctx, id, newHash)
		}
		return nil
	})
	if err != nil {
		return AccountDetails{}, mapStoreError(err)
	}

	l.Info("account updated", slog.String("account_id", id), slog.Bool("password_changed", newHash != ""))
	return s.Get(ctx, id)
}

// Delete removes the account and its profile together.
func (s *AccountService) Delete(ctx context.Context, id string) error {
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Profiles().DeleteByAccountID(ctx, id); err != nil {
			return err
		}
		return tx.Accounts().Delete(ctx, id)
	})
	if err != nil {
		return mapStoreError(err)
	}

	slogx.FromContext(ctx).Info("account deleted", slog.String("account_id", id))
	return nil
}

// ChangePassword replaces the password after checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, accountID, current, next string) error {
	if current == "" {
		return invalidf("currentPassword is required")
	}
	if err := validatePassword(next); err != nil {
		return err
	}

	a, err := s.Store.Accounts().GetByID(ctx, accountID)
	if err != nil {
		return mapStoreError(err)
	}
	if err := s.Hasher.Verify(current, a.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrMismatch) {
			return ErrWrongPassword
		}
		return fmt.Errorf("verify password: %w", err)
	}

	hash, err := s.Hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.Store.Accounts().UpdatePasswordHash(ctx, accountID, hash); err != nil {
		return mapStoreError(err)
	}

	slogx.FromContext(ctx).Info("password changed", slog.String("account_id", accountID))
	return nil
}
