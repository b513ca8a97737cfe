package authsdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// refreshSkew refreshes the access token this long before it expires.
const refreshSkew = 30 * time.Second

// Session is an authenticated session. Its methods refresh the access token
// when it is about to expire.
type Session struct {
	client *SDKClient

	mu           sync.RWMutex
	accessToken  string
	refreshToken string // empty when the refresh token lives in the cookie jar
	expiresAt    time.Time
}

func newSession(client *SDKClient, tokens *TokenResponse) *Session {
	return &Session{
		client:       client,
		accessToken:  tokens.AccessToken,
		refreshToken: tokens.RefreshToken,
		expiresAt:    time.Now().Add(time.Duration(tokens.ExpiresIn)*time.Second - refreshSkew),
	}
}

// NewSessionFromTokens builds a Session from previously issued tokens.
func (c *SDKClient) NewSessionFromTokens(accessToken, refreshToken string, expiresIn int64) *Session {
	return newSession(c, &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	})
}

// AccessToken returns the current access token without checking expiration.
func (s *Session) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *Session) getValidToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if time.Now().Before(s.expiresAt) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another goroutine may have refreshed while we waited.
	if time.Now().Before(s.expiresAt) {
		return s.accessToken, nil
	}

	tokens, err := s.client.Refresh(ctx, s.refreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token: %w", err)
	}

	s.accessToken = tokens.AccessToken
	s.expiresAt = time.Now().Add(time.Duration(tokens.ExpiresIn)*time.Second - refreshSkew)
	return s.accessToken, nil
}

// Do sends an authenticated JSON request to any path and decodes the
// response into target.
func (s *Session) Do(ctx context.Context, method, path string, body, target any, expectedStatus int) error {
	token, err := s.getValidToken(ctx)
	if err != nil {
		return err
	}
	resp, err := s.client.doJSON(ctx, method, path, token, body)
	if err != nil {
		return err
	}
	return decodeJSON(resp, target, expectedStatus)
}

// Me returns the account of the session's principal.
func (s *Session) Me(ctx context.Context) (*AccountResponse, error) {
	var out AccountResponse
	if err := s.Do(ctx, http.MethodGet, "/users/me", nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Session) ChangePassword(ctx context.Context, current, next string) error {
	return s.Do(ctx, http.MethodPut, "/users/me/password", ChangePasswordRequest{
		CurrentPassword: current,
		NewPassword:     next,
	}, nil, http.StatusNoContent)
}

// ListAccounts requires an ADMIN session.
func (s *Session) ListAccounts(ctx context.Context, limit, offset int) (*AccountListResponse, error) {
	q := url.Values{}
	q.Set("limit", fmt.Sprint(limit))
	q.Set("offset", fmt.Sprint(offset))

	var out AccountListResponse
	if err := s.Do(ctx, http.MethodGet, "/users?"+q.Encode(), nil, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateAccount requires an ADMIN session.
func (s *Session) CreateAccount(ctx context.Context, req CreateAccountRequest) (*AccountResponse, error) {
	var out AccountResponse
	if err := s.Do(ctx, http.MethodPost, "/users", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout clears the refresh cookie and forgets the tokens.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.client.Logout(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	s.accessToken, s.refreshToken = "", ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()
	return nil
}
