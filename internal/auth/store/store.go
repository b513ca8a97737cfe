package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/otoshop/otoshop/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// Field-specific conflicts; all match ErrAlreadyExists.
	ErrUsernameTaken = fmt.Errorf("%w: username", ErrAlreadyExists)
	ErrEmailTaken    = fmt.Errorf("%w: email", ErrAlreadyExists)
	ErrPhoneTaken    = fmt.Errorf("%w: phone", ErrAlreadyExists)

	// ErrHasDependents is returned when deleting an account that still owns
	// a profile.
	ErrHasDependents = errors.New("store: record has dependents")
)

// Store is the root data access interface. Concrete drivers implement it.
// Sub-repositories are reached through methods so a Tx hands out the same
// repos bound to the transaction.
type Store interface {
	Accounts() Accounts
	Profiles() Profiles

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Accounts interface {
	GetByID(ctx context.Context, id string) (domain.Account, error)

	// FindByIdentifier resolves a login identifier against the username and
	// email columns in one indexed lookup. A username match wins over an
	// email match.
	FindByIdentifier(ctx context.Context, identifier string) (domain.Account, error)

	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Create inserts an account; unset role/status take their defaults.
	Create(ctx context.Context, a domain.Account) error

	// Update writes username, email, role and status and bumps updated_at.
	Update(ctx context.Context, a domain.Account) error

	UpdatePasswordHash(ctx context.Context, id, hash string) error

	// Delete fails with ErrHasDependents while a profile references the account.
	Delete(ctx context.Context, id string) error

	// List returns accounts oldest first.
	List(ctx context.Context, limit, offset int) ([]domain.Account, error)
	Count(ctx context.Context) (int, error)
}

type Profiles interface {
	Create(ctx context.Context, p domain.Profile) error
	GetByAccountID(ctx context.Context, accountID string) (domain.Profile, error)
	DeleteByAccountID(ctx context.Context, accountID string) error
}
