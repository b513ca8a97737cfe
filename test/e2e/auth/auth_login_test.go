//go:build e2e

package auth_test

import (
	"net/http"
	"testing"

	"github.com/otoshop/otoshop/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestSeededAdminLoginRefresh tests the complete flow:
// 1. Log in as the seeded admin
// 2. Read the current account
// 3. Refresh through the cookie jar
// 4. Log out and check the cookie is gone
func TestSeededAdminLoginRefresh(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	session := loginAdmin(t, client)

	me, err := session.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, adminUsername, me.Username)
	require.Equal(t, "ADMIN", me.Role)
	require.Equal(t, "Administrator", me.FullName)

	tokens, err := client.Refresh(t.Context(), "")
	require.NoError(t, err, "refresh via cookie should succeed")
	require.NotEmpty(t, tokens.AccessToken)
	require.Empty(t, tokens.RefreshToken, "refresh token is not reissued")

	require.NoError(t, session.Logout(t.Context()))

	_, err = client.Refresh(t.Context(), "")
	assertAPIError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidRefreshToken)
}

func TestLoginRejections(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)

	_, err := client.Login(t.Context(), adminUsername, "wrong")
	assertAPIError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidCredentials)

	_, err = client.Login(t.Context(), "nobody", "whatever")
	assertAPIError(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidCredentials)

	_, err = client.Login(t.Context(), "", "")
	assertAPIError(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest)
}

func TestAccountStatusBlocksLogin(t *testing.T) {
	baseURL, cleanup := setupAuthContainer(t)
	defer cleanup()

	client := authsdk.NewSDKClient(baseURL)
	admin := loginAdmin(t, client)

	_, err := admin.CreateAccount(t.Context(), authsdk.CreateAccountRequest{
		Username: "banned", Password: "secret", Status: "BANNED", FullName: "Banned",
	})
	require.NoError(t, err)
	_, err = admin.CreateAccount(t.Context(), authsdk.CreateAccountRequest{
		Username: "idle", Password: "secret", Status: "INACTIVE", FullName: "Idle",
	})
	require.NoError(t, err)

	_, err = client.Login(t.Context(), "banned", "secret")
	assertAPIError(t, err, http.StatusLocked, authsdk.ErrorCodeAccountLocked)

	_, err = client.Login(t.Context(), "idle", "secret")
	assertAPIError(t, err, http.StatusForbidden, authsdk.ErrorCodeAccountDisabled)
}
