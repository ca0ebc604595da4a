package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quizmehq/quizme/internal/admin/service"
	"github.com/quizmehq/quizme/internal/admin/store"
	"github.com/quizmehq/quizme/pkg/httpx"
	"github.com/quizmehq/quizme/pkg/jwtx"
	"github.com/quizmehq/quizme/pkg/routeguard"
	"github.com/quizmehq/quizme/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	issuer       string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store    store.Store
	registry *prometheus.Registry

	AuthService *service.AuthService
}

func NewRouter(
	verifier jwtx.Verifier,
	issuer, buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		issuer:       issuer,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		registry:     prometheus.NewRegistry(),
	}

	metrics := httpx.NewHTTPMetrics("quizme_admin", r.registry)
	guard := routeguard.New(routeguard.Config{
		PublicPages: []string{"/livez", "/readyz", "/metrics"},
		PublicAPIPrefixes: []string{
			"/api/auth/login",
			"/api/auth/register",
			"/api/auth/refresh-token",
			"/api/auth/logout",
		},
	})

	// Global chain: request logging, then metrics, then the route guard
	// in front of everything else.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		metrics.Middleware(),
		guard.Middleware(),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	login := &LoginHandler{AuthService: r.AuthService}
	register := &RegisterHandler{AuthService: r.AuthService}
	refresh := &RefreshHandler{AuthService: r.AuthService}
	logout := &LogoutHandler{AuthService: r.AuthService}
	me := &MeHandler{AuthService: r.AuthService, Verifier: r.verifier, Issuer: r.issuer}

	// Credential endpoints get the strict limit to slow brute force.
	r.Mux.Handle("POST /api/auth/login",
		httpx.Chain(login, httpx.RateLimitByIP(httpx.StrictLimit)))
	r.Mux.Handle("POST /api/auth/register",
		httpx.Chain(register, httpx.RateLimitByIP(httpx.StrictLimit)))

	r.Mux.Handle("POST /api/auth/refresh-token",
		httpx.Chain(refresh, httpx.RateLimitByIP(httpx.ModerateLimit)))
	r.Mux.Handle("POST /api/auth/logout",
		httpx.Chain(logout, httpx.RateLimitByIP(httpx.ModerateLimit)))

	r.Mux.Handle("GET /api/auth/me",
		httpx.Chain(me, httpx.RateLimitByIP(httpx.LenientLimit)))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
	r.Mux.Handle("GET /metrics", promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}))
}
