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
	"github.com/otoshop/otoshop/pkg/jwtx"
	"github.com/otoshop/otoshop/pkg/slogx"
)

type AuthService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
	Codec  *jwtx.Codec
}

// Authenticate resolves identifier as a username or email and checks the
// password and account status. It never writes.
func (s *AuthService) Authenticate(ctx context.Context, identifier, password string) (domain.Principal, error) {
	l := slogx.FromContext(ctx)

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return domain.Principal{}, invalidf("identifier and password are required")
	}

	account, err := s.Store.Accounts().FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Keep the unknown-account path as slow as a real verification.
			s.Hasher.VerifyDummy(password)
			l.Info("login rejected", slog.String("reason", "unknown_identifier"))
			return domain.Principal{}, ErrInvalidCredentials
		}
		return domain.Principal{}, fmt.Errorf("lookup account: %w", err)
	}

	if err := s.Hasher.Verify(password, account.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrMismatch) {
			l.Info("login rejected", slog.String("reason", "bad_password"), slog.String("account_id", account.ID))
			return domain.Principal{}, ErrInvalidCredentials
		}
		l.Error("stored password hash unusable", slog.String("account_id", account.ID), slog.Any("error", err))
		return domain.Principal{}, fmt.Errorf("verify password: %w", err)
	}

	switch {
	case account.Locked():
		l.Info("login rejected", slog.String("reason", "locked"), slog.String("account_id", account.ID))
		return domain.Principal{}, ErrAccountLocked
	case account.Disabled():
		l.Info("login rejected", slog.String("reason", "disabled"), slog.String("account_id", account.ID))
		return domain.Principal{}, ErrAccountDisabled
	}

	return account.Principal(), nil
}

// Login authenticates and issues an access and a refresh token.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (domain.TokenPair, error) {
	p, err := s.Authenticate(ctx, identifier, password)
	if err != nil {
		return domain.TokenPair{}, err
	}

	access, err := s.Codec.IssueAccessToken(p.Username, p.AccountID, string(p.Role))
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.Codec.IssueRefreshToken(p.Username, p.AccountID, string(p.Role))
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	slogx.FromContext(ctx).Info("login succeeded",
		slog.String("account_id", p.AccountID),
		slog.String("role", string(p.Role)),
	)

	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresIn:  s.Codec.AccessTTL(),
		RefreshExpiresIn: s.Codec.RefreshTTL(),
		Principal:        p,
	}, nil
}

// Refresh mints a new access token for the identity in a valid refresh
// token. The refresh token itself is not reissued and the account is not
// re-read.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return "", ErrInvalidRefreshToken
	}

	claims, err := s.Codec.VerifyRefresh(refreshToken)
	if err != nil {
		slogx.FromContext(ctx).Debug("refresh rejected",
			slog.String("token_fp", cryptox.FingerprintToken(refreshToken)),
			slog.Any("error", err),
		)
		return "", ErrInvalidRefreshToken
	}

	access, err := s.Codec.IssueAccessToken(claims.Subject, claims.AccountID, claims.Role)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	return access, nil
}

type RegisterInput struct {
	Identifier string
	Password   string
	FullName   string
	Phone      string
	Address    string
}

// Register creates a USER account and its profile in one transaction.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (domain.Account, error) {
	username, email, err := splitIdentifier(in.Identifier)
	if err != nil {
		return domain.Account{}, err
	}
	if err := validatePassword(in.Password); err != nil {
		return domain.Account{}, err
	}
	if strings.TrimSpace(in.FullName) == "" {
		return domain.Account{}, invalidf("fullName is required")
	}

	if err := checkAvailable(ctx, s.Store.Accounts(), username, email); err != nil {
		return domain.Account{}, err
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}

	account := domain.Account{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Status:       domain.StatusActive,
	}
	profile := domain.Profile{
		ID:        idx.New().String(),
		AccountID: account.ID,
		FullName:  strings.TrimSpace(in.FullName),
		Phone:     strings.TrimSpace(in.Phone),
		Address:   strings.TrimSpace(in.Address),
	}

	if err := createAccount(ctx, s.Store, account, profile); err != nil {
		return domain.Account{}, err
	}

	slogx.FromContext(ctx).Info("account registered", slog.String("account_id", account.ID))
	return s.Store.Accounts().GetByID(ctx, account.ID)
}

// checkAvailable reports the first identity field already in use.
func checkAvailable(ctx context.Context, accounts store.Accounts, username, email string) error {
	if username != "" {
		taken, err := accounts.ExistsByUsername(ctx, username)
		if err != nil {
			return fmt.Errorf("check username: %w", err)
		}
		if taken {
			return ErrUsernameTaken
		}
	}
	if email != "" {
		taken, err := accounts.ExistsByEmail(ctx, email)
		if err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if taken {
			return ErrEmailTaken
		}
	}
	return nil
}

func createAccount(ctx context.Context, st store.Store, a domain.Account, p domain.Profile) error {
	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().Create(ctx, a); err != nil {
			return err
		}
		return tx.Profiles().Create(ctx, p)
	})
	return mapStoreError(err)
}

// mapStoreError translates store sentinels into service errors. Races
// between the existence check and the insert land here.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrUsernameTaken):
		return ErrUsernameTaken
	case errors.Is(err, store.ErrEmailTaken):
		return ErrEmailTaken
	case errors.Is(err, store.ErrPhoneTaken):
		return ErrPhoneTaken
	case errors.Is(err, store.ErrNotFound):
		return ErrAccountNotFound
	case errors.Is(err, store.ErrHasDependents):
		return ErrHasDependents
	}
	return err
}
