/*
Package authsdk provides the wire types and a client SDK for the otoshop
authentication service.

# Overview

The service authenticates a username or email with a password and returns a
short-lived access token plus a long-lived refresh token. The access token is
sent as "Authorization: Bearer <token>". The refresh token travels in an
HttpOnly cookie scoped to /auth/refresh, and is also returned in the body
when the server is configured to do so.

# SDKClient vs Session

  - SDKClient covers the public endpoints: login, register, refresh, logout
    and the health probes.
  - Session is created by Login and sends the access token on every call,
    refreshing it shortly before it expires.

Example:

	client := authsdk.NewSDKClient("http://localhost:8080")

	session, err := client.Login(ctx, "admin", "admin")
	if err != nil {
		var apiErr *authsdk.APIError
		if errors.As(err, &apiErr) && apiErr.Code == authsdk.ErrorCodeAccountLocked {
			// banned account
		}
		return err
	}

	me, err := session.Me(ctx)

# Errors

Every failed call returns an *APIError carrying the HTTP status and the
service error code (for example INVALID_CREDENTIALS or ACCESS_DENIED).
APIError values match with errors.Is on their code:

	if errors.Is(err, authsdk.ErrInvalidRefreshToken) {
		// log in again
	}

The server uses the same values to write its error responses.
*/
package authsdk
