// Package routeguard gates page and API routes on the presence of a
// non-expired access token. The check is an unverified expiry decode and
// is a UX gate only, it is not a security boundary. The server's signature
// verification stays authoritative for every API call.
package routeguard

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quizmehq/quizme/pkg/httpx"
	"github.com/quizmehq/quizme/pkg/jwtx"
	"github.com/quizmehq/quizme/pkg/slogx"
)

// AccessTokenCookie is the cookie mirrored from the client token store.
const AccessTokenCookie = "accessToken"

// AccessTokenHeader is the auxiliary token header set by the SDK transport.
const AccessTokenHeader = "x-access-token"

type routeClass int

const (
	classPublicPage routeClass = iota
	classPublicAPI
	classProtectedAPI
	classProtectedPage
)

// Config controls route classification and redirect targets.
type Config struct {
	// LoginPath is the page unauthenticated users are redirected to.
	// Defaults to "/login".
	LoginPath string

	// RegisterPath is treated like LoginPath for the signed-in redirect
	// rule. Defaults to "/register".
	RegisterPath string

	// LandingPath is where authenticated users land when they hit the
	// root path or an auth page with no return-to. Defaults to "/dashboard".
	LandingPath string

	// PublicPages are exact page paths served without a session.
	PublicPages []string

	// PublicAPIPrefixes are API path prefixes served without a session,
	// e.g. "/api/auth/".
	PublicAPIPrefixes []string

	// Now overrides the clock for expiry checks. Nil means time.Now.
	Now func() time.Time
}

// Guard classifies each request and allows, redirects, or rejects it
// before any handler runs. It holds no per-request state and is safe for
// concurrent use.
type Guard struct {
	cfg Config
}

func New(cfg Config) *Guard {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.RegisterPath == "" {
		cfg.RegisterPath = "/register"
	}
	if cfg.LandingPath == "" {
		cfg.LandingPath = "/dashboard"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Guard{cfg: cfg}
}

// Middleware returns the guard as a standard middleware. Requests that
// pass get the security headers, an X-Authenticated marker when a live
// token was seen, and peeked claims in the request context.
func (g *Guard) Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			g.serve(next, w, r)
		})
	}
}

func (g *Guard) serve(next http.Handler, w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())
	path := r.URL.Path

	token := g.candidateToken(r)
	valid := token != "" && !jwtx.PeekExpired(token, g.cfg.Now())

	switch g.classify(path) {
	case classProtectedAPI:
		if !valid {
			log.Debug("guard rejected api request", "path", path)
			httpx.WriteError(w, http.StatusUnauthorized, "Authentication required")
			return
		}

	case classProtectedPage:
		if !valid {
			log.Debug("guard redirected to login", "path", path)
			http.Redirect(w, r, g.cfg.LoginPath+"?from="+url.QueryEscape(path), http.StatusFound)
			return
		}

	case classPublicPage:
		// Signed-in users are bounced off the auth pages and the root.
		if valid && (path == g.cfg.LoginPath || path == g.cfg.RegisterPath) {
			http.Redirect(w, r, g.returnTo(r), http.StatusFound)
			return
		}
		if valid && path == "/" {
			http.Redirect(w, r, g.cfg.LandingPath, http.StatusFound)
			return
		}

	case classPublicAPI:
		// Always allowed; the handler does its own verification if any.
	}

	g.allow(next, w, r, token, valid)
}

func (g *Guard) allow(next http.Handler, w http.ResponseWriter, r *http.Request, token string, valid bool) {
	h := w.Header()
	h.Set("X-DNS-Prefetch-Control", "off")
	h.Set("X-XSS-Protection", "1; mode=block")
	h.Set("X-Frame-Options", "DENY")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Referrer-Policy", "strict-origin-when-cross-origin")

	if valid {
		h.Set("X-Authenticated", "true")
		if claims, err := jwtx.PeekClaims(token); err == nil {
			r = r.WithContext(httpx.ContextWithClaims(r.Context(), claims))
		}
	}

	next.ServeHTTP(w, r)
}

// returnTo resolves the post-login destination: the from query parameter
// when it names a real page, otherwise the landing page.
func (g *Guard) returnTo(r *http.Request) string {
	from := r.URL.Query().Get("from")
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") {
		return g.cfg.LandingPath
	}
	if from == g.cfg.LoginPath || from == g.cfg.RegisterPath {
		return g.cfg.LandingPath
	}
	return from
}

func (g *Guard) classify(path string) routeClass {
	if strings.HasPrefix(path, "/api/") {
		for _, prefix := range g.cfg.PublicAPIPrefixes {
			if strings.HasPrefix(path, prefix) {
				return classPublicAPI
			}
		}
		return classProtectedAPI
	}

	if path == "/" || path == g.cfg.LoginPath || path == g.cfg.RegisterPath {
		return classPublicPage
	}
	for _, p := range g.cfg.PublicPages {
		if path == p {
			return classPublicPage
		}
	}
	return classProtectedPage
}

// candidateToken extracts the access token, preferring the Authorization
// header, then the mirrored cookie, then the auxiliary header.
func (g *Guard) candidateToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if raw, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return raw
		}
	}
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return r.Header.Get(AccessTokenHeader)
}
