package service

import (
	"context"
	"testing"
	"time"

	"github.com/otoshop/otoshop/internal/auth/domain"
	"github.com/otoshop/otoshop/internal/auth/store/drivers/sqlite"
	"github.com/otoshop/otoshop/pkg/cryptox"
	"github.com/otoshop/otoshop/pkg/idx"
	"github.com/otoshop/otoshop/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var testParams = cryptox.Params{Memory: 1024, Iterations: 1, Parallelism: 1, KeyLength: 32, SaltLength: 16}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

type fixture struct {
	store    *sqlite.Store
	auth     *AuthService
	accounts *AccountService
	clock    *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.Add("g1", []byte(testSecret)))

	clk := &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec := jwtx.NewCodec(keys, jwtx.CodecOptions{
		Issuer:     "otoshop-test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: time.Hour,
		Now:        clk.Now,
	})
	hasher := cryptox.NewHasher("pepper", testParams)

	return &fixture{
		store:    st,
		auth:     &AuthService{Store: st, Hasher: hasher, Codec: codec},
		accounts: &AccountService{Store: st, Hasher: hasher},
		clock:    clk,
	}
}

func (f *fixture) createAccount(t *testing.T, username, email, password string, role domain.Role, status domain.Status) domain.Account {
	t.Helper()

	hash, err := f.auth.Hasher.Hash(password)
	require.NoError(t, err)

	a := domain.Account{
		ID:           idx.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       status,
	}
	require.NoError(t, f.store.Accounts().Create(context.Background(), a))
	return a
}
