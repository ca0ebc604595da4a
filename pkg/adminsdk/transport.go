package adminsdk

import (
	"context"
	"io"
	"net/http"

	"golang.org/x/sync/singleflight"
)

// accessTokenHeader duplicates the bearer token for consumers that read
// the custom header instead of Authorization.
const accessTokenHeader = "x-access-token"

type ctxKey int

const ctxKeyNoAuthRetry ctxKey = iota

// WithoutAuthRetry marks a request as not participating in the 401
// refresh-and-retry recovery. The SDK applies it to its own auth calls
// so refresh traffic never recurses through the transport; callers can
// apply it to requests that must observe 401s directly.
func WithoutAuthRetry(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKeyNoAuthRetry, true)
}

func participatesInAuthRetry(req *http.Request) bool {
	v, _ := req.Context().Value(ctxKeyNoAuthRetry).(bool)
	return !v
}

// AuthTransport is an http.RoundTripper that resolves the access token
// from the TokenStore per request, attaches it as both Authorization
// and x-access-token, and recovers from a single 401 by refreshing the
// session and replaying the request once.
//
// Concurrent 401s share one in-flight refresh; each individual request
// is replayed at most once, and a 401 on the replay is returned to the
// caller untouched.
type AuthTransport struct {
	// Base is the underlying transport. Nil means http.DefaultTransport.
	Base http.RoundTripper

	// Store supplies the current tokens and receives the rotated pair.
	Store TokenStore

	// RefreshSession performs the refresh call. It must save the new
	// pair on success and clear the store on failure. Nil disables the
	// recovery path entirely.
	RefreshSession func(ctx context.Context) error

	// OnUnauthenticated is invoked after a failed recovery, once the
	// store has been cleared. Optional.
	OnUnauthenticated func()

	group singleflight.Group
}

func (t *AuthTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base().RoundTrip(t.withToken(req))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized ||
		!participatesInAuthRetry(req) ||
		t.RefreshSession == nil {
		return resp, nil
	}

	if err := t.refresh(req.Context()); err != nil {
		// Recovery failed. The original 401 is the caller's answer.
		return resp, nil
	}

	replay, ok := t.replayable(req)
	if !ok {
		return resp, nil
	}

	// The original response is superseded by the replay.
	drain(resp)

	return t.base().RoundTrip(t.withToken(replay))
}

// refresh funnels concurrent callers through a single refresh call.
func (t *AuthTransport) refresh(ctx context.Context) error {
	_, err, _ := t.group.Do("refresh", func() (any, error) {
		return nil, t.RefreshSession(ctx)
	})
	if err != nil {
		t.Store.Clear()
		if t.OnUnauthenticated != nil {
			t.OnUnauthenticated()
		}
	}
	return err
}

// withToken clones the request and attaches the store's current access
// token. The clone keeps the inbound request free of mutation.
func (t *AuthTransport) withToken(req *http.Request) *http.Request {
	r := req.Clone(req.Context())
	if token := t.Store.AccessToken(); token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
		r.Header.Set(accessTokenHeader, token)
	}
	return r
}

// replayable rebuilds the request body for a second attempt. Requests
// with a one-shot body cannot be replayed.
func (t *AuthTransport) replayable(req *http.Request) (*http.Request, bool) {
	r := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return r, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	r.Body = body
	return r, true
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
