package adminsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/quizmehq/quizme/pkg/jwtx"
)

// Cookie names and lifetimes for the mirror kept alongside the token
// store. The guard reads these cookies; the store stays authoritative
// and the mirror is rewritten on every save so the two cannot drift.
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"

	AccessTokenCookieMaxAge  = 86400
	RefreshTokenCookieMaxAge = 604800
)

// Client is a client for the QuizMe admin service. All requests made
// through HTTPClient carry the stored access token and participate in
// 401 refresh-and-retry recovery unless opted out via WithoutAuthRetry.
type Client struct {
	BaseURL string

	// HTTPClient is pre-wired with the AuthTransport and a cookie jar
	// holding the token mirror. Callers may use it directly for
	// arbitrary authenticated requests against the service.
	HTTPClient *http.Client

	store     TokenStore
	transport *AuthTransport
	baseURL   *url.URL
}

// NewClient creates a client for the admin service at baseURL. A nil
// store gets an in-memory one.
func NewClient(baseURL string, store TokenStore) *Client {
	if store == nil {
		store = NewMemoryStore()
	}

	c := &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		store:   store,
	}
	c.baseURL, _ = url.Parse(c.BaseURL)

	c.transport = &AuthTransport{
		Store:          store,
		RefreshSession: c.Refresh,
	}
	// Keep the mirror in step even when the transport abandons the
	// session on its own.
	c.transport.OnUnauthenticated = c.clearMirror

	jar, _ := cookiejar.New(nil)
	c.HTTPClient = &http.Client{
		Timeout:   10 * time.Second,
		Transport: c.transport,
		Jar:       jar,
	}

	// Re-establish the mirror for a session loaded from disk.
	if store.IsAuthenticated() {
		c.mirrorCookies(TokenPair{
			AccessToken:  store.AccessToken(),
			RefreshToken: store.RefreshToken(),
		})
	}

	return c
}

// Store exposes the underlying token store.
func (c *Client) Store() TokenStore {
	return c.store
}

// SetUnauthenticatedHandler registers a callback fired when the
// transport gives up on a session (refresh failed or impossible).
func (c *Client) SetUnauthenticatedHandler(fn func()) {
	c.transport.OnUnauthenticated = func() {
		c.clearMirror()
		fn()
	}
}

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// saveSession writes the pair and user to the store and synchronizes
// the cookie mirror in the same step.
func (c *Client) saveSession(pair TokenPair, user *User) {
	c.store.Save(pair, user)
	c.mirrorCookies(pair)
}

// clearSession empties the store and expires the mirror cookies.
func (c *Client) clearSession() {
	c.store.Clear()
	c.clearMirror()
}

func (c *Client) mirrorCookies(pair TokenPair) {
	if c.baseURL == nil || c.HTTPClient.Jar == nil {
		return
	}
	c.HTTPClient.Jar.SetCookies(c.baseURL, []*http.Cookie{
		{
			Name:     AccessTokenCookie,
			Value:    pair.AccessToken,
			Path:     "/",
			MaxAge:   AccessTokenCookieMaxAge,
			SameSite: http.SameSiteStrictMode,
		},
		{
			Name:     RefreshTokenCookie,
			Value:    pair.RefreshToken,
			Path:     "/",
			MaxAge:   RefreshTokenCookieMaxAge,
			SameSite: http.SameSiteStrictMode,
		},
	})
}

func (c *Client) clearMirror() {
	if c.baseURL == nil || c.HTTPClient.Jar == nil {
		return
	}
	c.HTTPClient.Jar.SetCookies(c.baseURL, []*http.Cookie{
		{Name: AccessTokenCookie, Value: "", Path: "/", MaxAge: -1},
		{Name: RefreshTokenCookie, Value: "", Path: "/", MaxAge: -1},
	})
}

// MirroredToken returns the named cookie's current value from the jar.
// Intended for callers that need to verify mirror consistency.
func (c *Client) MirroredToken(name string) string {
	if c.baseURL == nil || c.HTTPClient.Jar == nil {
		return ""
	}
	for _, cookie := range c.HTTPClient.Jar.Cookies(c.baseURL) {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}

// AccessTokenExpired reports whether the stored access token's exp
// claim has passed. The decode is the same unverified peek the route
// guard runs on the cookie mirror, so both sides reach the same answer
// for a given token. Missing or malformed tokens count as expired.
func (c *Client) AccessTokenExpired(now time.Time) bool {
	return jwtx.PeekExpired(c.store.AccessToken(), now)
}

// doEnvelope performs a JSON request and decodes the response envelope.
// Non-2xx statuses and status:"error" envelopes both become *APIError.
func (c *Client) doEnvelope(ctx context.Context, method, path string, body any) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseErrorResponse(resp.StatusCode, raw)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if env.Status != statusSuccess {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}

	return &env, nil
}
