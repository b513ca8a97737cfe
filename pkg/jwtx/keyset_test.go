package jwtx_test

import (
	"testing"

	"github.com/otoshop/otoshop/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestKeySetAdd(t *testing.T) {
	ks := jwtx.NewKeySet()
	require.False(t, ks.IsReady())

	require.ErrorIs(t, ks.Add("g1", []byte("short")), jwtx.ErrWeakKey)
	require.Error(t, ks.Add(" ", []byte(secretA)))

	require.NoError(t, ks.Add("g1", []byte(secretA)))
	require.Error(t, ks.Add("g1", []byte(secretB)), "duplicate kid")

	kid, secret, err := ks.Active()
	require.NoError(t, err)
	require.Equal(t, "g1", kid)
	require.Equal(t, []byte(secretA), secret)

	_, err = ks.Get("missing")
	require.ErrorIs(t, err, jwtx.ErrUnknownKID)
}

func TestParseKeySpec(t *testing.T) {
	t.Run("last entry signs", func(t *testing.T) {
		ks, err := jwtx.ParseKeySpec("g1:" + secretA + ", g2:" + secretB)
		require.NoError(t, err)

		kid, _, err := ks.Active()
		require.NoError(t, err)
		require.Equal(t, "g2", kid)
		require.Equal(t, []string{"g1", "g2"}, ks.KIDs())
	})

	t.Run("secret may contain colons", func(t *testing.T) {
		ks, err := jwtx.ParseKeySpec("g1:" + secretA + ":extra")
		require.NoError(t, err)

		s, err := ks.Get("g1")
		require.NoError(t, err)
		require.Equal(t, secretA+":extra", string(s))
	})

	t.Run("rejects bad specs", func(t *testing.T) {
		for _, spec := range []string{"", " , ", "g1", "g1:short", "g1:" + secretA + ",g1:" + secretB} {
			_, err := jwtx.ParseKeySpec(spec)
			require.Error(t, err, "spec %q", spec)
		}
	})
}
