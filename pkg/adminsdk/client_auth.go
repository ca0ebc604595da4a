package adminsdk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Login authenticates with a username or email plus password. On
// success the issued tokens and user are saved to the store and the
// cookie mirror; on failure the store is left untouched and the error
// carries the server's message.
func (c *Client) Login(ctx context.Context, usernameOrEmail, password string) (*User, error) {
	payload, err := c.postAuth(ctx, "/api/auth/login", LoginRequest{
		UsernameOrEmail: usernameOrEmail,
		Password:        password,
	})
	if err != nil {
		return nil, err
	}

	c.saveSession(TokenPair{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
	}, payload.User)

	return payload.User, nil
}

// Register creates an account and, like Login, starts a session on
// success.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	payload, err := c.postAuth(ctx, "/api/auth/register", req)
	if err != nil {
		return nil, err
	}

	c.saveSession(TokenPair{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
	}, payload.User)

	return payload.User, nil
}

// Refresh exchanges the stored refresh token for a fresh pair. With no
// refresh token stored it fails fast with ErrNoRefreshToken and no
// network call. A server-side rejection clears the whole session; an
// invalid refresh token cannot self-heal.
func (c *Client) Refresh(ctx context.Context) error {
	refreshToken := c.store.RefreshToken()
	if refreshToken == "" {
		return ErrNoRefreshToken
	}

	payload, err := c.postAuth(ctx, "/api/auth/refresh-token", map[string]string{
		"refreshToken": refreshToken,
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			c.clearSession()
		}
		return err
	}

	user := payload.User
	if user == nil {
		user = c.store.User()
	}
	c.saveSession(TokenPair{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
	}, user)

	return nil
}

// Logout revokes the stored refresh token server-side, best effort.
// The local session is cleared unconditionally; the returned error only
// reports whether the server acknowledged the revocation.
func (c *Client) Logout(ctx context.Context) error {
	refreshToken := c.store.RefreshToken()
	c.clearSession()

	if refreshToken == "" {
		return nil
	}

	_, err := c.doEnvelope(WithoutAuthRetry(ctx), http.MethodPost, "/api/auth/logout", map[string]string{
		"refreshToken": refreshToken,
	})
	return err
}

// Me fetches the authenticated user. Unlike the auth calls above it
// participates in 401 recovery, so an expired access token is refreshed
// transparently.
func (c *Client) Me(ctx context.Context) (*User, error) {
	env, err := c.doEnvelope(ctx, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return nil, err
	}

	var payload mePayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return payload.User, nil
}

// postAuth issues one of the SDK's own auth calls, which are excluded
// from the transport's retry path, and decodes the token payload.
func (c *Client) postAuth(ctx context.Context, path string, body any) (*authPayload, error) {
	env, err := c.doEnvelope(WithoutAuthRetry(ctx), http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}

	var payload authPayload
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode token payload: %w", err)
	}
	if payload.AccessToken == "" {
		return nil, fmt.Errorf("response missing access token")
	}
	return &payload, nil
}
