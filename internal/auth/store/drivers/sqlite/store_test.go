package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/otoshop/otoshop/internal/auth/domain"
	"github.com/otoshop/otoshop/internal/auth/store"
	"github.com/otoshop/otoshop/internal/auth/store/drivers/sqlite"
	"github.com/otoshop/otoshop/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func newAccount(username, email string) domain.Account {
	return domain.Account{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
	}
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestAccountCreateAppliesDefaults(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := newAccount("bob", "Bob@Example.com")
	require.NoError(t, s.Accounts().Create(ctx, a))

	got, err := s.Accounts().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, "bob", got.Username)
	require.Equal(t, "bob@example.com", got.Email)
	require.Equal(t, domain.RoleUser, got.Role)
	require.Equal(t, domain.StatusActive, got.Status)
	require.False(t, got.CreatedAt.IsZero())
}

func TestFindByIdentifier(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	byName := newAccount("carol", "")
	byMail := newAccount("", "dave@example.com")
	require.NoError(t, s.Accounts().Create(ctx, byName))
	require.NoError(t, s.Accounts().Create(ctx, byMail))

	got, err := s.Accounts().FindByIdentifier(ctx, "carol")
	require.NoError(t, err)
	require.Equal(t, byName.ID, got.ID)

	got, err = s.Accounts().FindByIdentifier(ctx, "DAVE@example.com")
	require.NoError(t, err)
	require.Equal(t, byMail.ID, got.ID)
	require.Empty(t, got.Username)

	_, err = s.Accounts().FindByIdentifier(ctx, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestFindByIdentifierPrefersUsername(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// One account's username equals another account's email.
	mail := newAccount("", "eve@example.com")
	name := newAccount("eve@example.com", "")
	require.NoError(t, s.Accounts().Create(ctx, mail))
	require.NoError(t, s.Accounts().Create(ctx, name))

	got, err := s.Accounts().FindByIdentifier(ctx, "eve@example.com")
	require.NoError(t, err)
	require.Equal(t, name.ID, got.ID)
}

func TestUniqueViolations(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Accounts().Create(ctx, newAccount("frank", "frank@example.com")))

	err := s.Accounts().Create(ctx, newAccount("frank", "other@example.com"))
	require.ErrorIs(t, err, store.ErrUsernameTaken)
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	err = s.Accounts().Create(ctx, newAccount("frank2", "FRANK@example.com"))
	require.ErrorIs(t, err, store.ErrEmailTaken)

	ok, err := s.Accounts().ExistsByUsername(ctx, "frank")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Accounts().ExistsByEmail(ctx, "Frank@Example.com")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Accounts().ExistsByUsername(ctx, "ghost")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUpdateAndPassword(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := newAccount("gina", "")
	require.NoError(t, s.Accounts().Create(ctx, a))

	a.Role = domain.RoleAdmin
	a.Status = domain.StatusBanned
	a.Email = "gina@example.com"
	require.NoError(t, s.Accounts().Update(ctx, a))
	require.NoError(t, s.Accounts().UpdatePasswordHash(ctx, a.ID, "new-hash"))

	got, err := s.Accounts().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, got.Role)
	require.Equal(t, domain.StatusBanned, got.Status)
	require.Equal(t, "gina@example.com", got.Email)
	require.Equal(t, "new-hash", got.PasswordHash)

	missing := newAccount("nobody", "")
	require.ErrorIs(t, s.Accounts().Update(ctx, missing), store.ErrNotFound)
	require.ErrorIs(t, s.Accounts().UpdatePasswordHash(ctx, missing.ID, "x"), store.ErrNotFound)
}

func TestDeleteRespectsProfile(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := newAccount("henry", "")
	require.NoError(t, s.Accounts().Create(ctx, a))
	require.NoError(t, s.Profiles().Create(ctx, domain.Profile{
		ID:        idx.New().String(),
		AccountID: a.ID,
		FullName:  "Henry",
		Phone:     "0123456789",
	}))

	err := s.Accounts().Delete(ctx, a.ID)
	require.ErrorIs(t, err, store.ErrHasDependents)

	err = s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Profiles().DeleteByAccountID(ctx, a.ID); err != nil {
			return err
		}
		return tx.Accounts().Delete(ctx, a.ID)
	})
	require.NoError(t, err)

	_, err = s.Accounts().GetByID(ctx, a.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	require.ErrorIs(t, s.Accounts().Delete(ctx, a.ID), store.ErrNotFound)
}

func TestProfilePhoneUnique(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := newAccount("ivy", "")
	b := newAccount("jack", "")
	require.NoError(t, s.Accounts().Create(ctx, a))
	require.NoError(t, s.Accounts().Create(ctx, b))

	require.NoError(t, s.Profiles().Create(ctx, domain.Profile{ID: idx.New().String(), AccountID: a.ID, Phone: "555"}))
	err := s.Profiles().Create(ctx, domain.Profile{ID: idx.New().String(), AccountID: b.ID, Phone: "555"})
	require.ErrorIs(t, err, store.ErrPhoneTaken)

	// Empty phones are stored as NULL and never collide.
	require.NoError(t, s.Profiles().Create(ctx, domain.Profile{ID: idx.New().String(), AccountID: b.ID}))

	p, err := s.Profiles().GetByAccountID(ctx, b.ID)
	require.NoError(t, err)
	require.Empty(t, p.Phone)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a := newAccount("kate", "")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().Create(ctx, a); err != nil {
			return err
		}
		return tx.Accounts().Create(ctx, newAccount("kate", ""))
	})
	require.ErrorIs(t, err, store.ErrUsernameTaken)

	_, err = s.Accounts().GetByID(ctx, a.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestListAndCount(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"a1", "a2", "a3"} {
		a := newAccount(name, "")
		a.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.Accounts().Create(ctx, a))
	}

	n, err := s.Accounts().Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	page, err := s.Accounts().List(ctx, 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, "a2", page[0].Username)
	require.Equal(t, "a3", page[1].Username)
	require.Equal(t, base.Add(time.Minute), page[0].CreatedAt)
}
