package authsdk

import (
	"context"
	"net/http"
)

// Login exchanges credentials for tokens and returns a Session.
func (c *SDKClient) Login(ctx context.Context, identifier, password string) (*Session, error) {
	tokens, err := c.LoginTokens(ctx, identifier, password)
	if err != nil {
		return nil, err
	}
	return newSession(c, tokens), nil
}

// LoginTokens is Login without the Session wrapper.
func (c *SDKClient) LoginTokens(ctx context.Context, identifier, password string) (*TokenResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", LoginRequest{
		Identifier: identifier,
		Password:   password,
	})
	if err != nil {
		return nil, err
	}

	var tokens TokenResponse
	if err := decodeJSON(resp, &tokens, http.StatusOK); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// Refresh requests a new access token. An empty refreshToken relies on the
// cookie stored by the client's jar.
func (c *SDKClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/refresh", "", RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return nil, err
	}

	var tokens TokenResponse
	if err := decodeJSON(resp, &tokens, http.StatusOK); err != nil {
		return nil, err
	}
	return &tokens, nil
}

// Register creates a USER account.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*AccountResponse, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/register", "", req)
	if err != nil {
		return nil, err
	}

	var out struct {
		APIResponse
		Data AccountResponse `json:"data"`
	}
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// Logout clears the refresh cookie. Issued tokens stay valid until expiry.
func (c *SDKClient) Logout(ctx context.Context) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/auth/logout", "", nil)
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}
