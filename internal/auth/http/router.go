package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/otoshop/otoshop/internal/auth/security"
	"github.com/otoshop/otoshop/internal/auth/service"
	"github.com/otoshop/otoshop/internal/auth/store"
	"github.com/otoshop/otoshop/pkg/authsdk"
	"github.com/otoshop/otoshop/pkg/httpx"
	"github.com/otoshop/otoshop/pkg/jwtx"
	"github.com/otoshop/otoshop/pkg/slogx"

	_ "github.com/otoshop/otoshop/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// RateLimits are the per-endpoint-class limits. They default to the httpx
// profiles.
type RateLimits struct {
	Login    httpx.RateLimitConfig
	Register httpx.RateLimitConfig
	Refresh  httpx.RateLimitConfig
	Accounts httpx.RateLimitConfig
	Health   httpx.RateLimitConfig
}

func DefaultRateLimits() RateLimits {
	return RateLimits{
		Login:    httpx.StrictLimit,
		Register: httpx.StrictLimit,
		Refresh:  httpx.ModerateLimit,
		Accounts: httpx.ModerateLimit,
		Health:   httpx.LenientLimit,
	}
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	codec        *jwtx.Codec
	rules        *security.RuleTable
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	Metrics        *Metrics
	AuthService    *service.AuthService
	AccountService *service.AccountService
	Cookies        CookieConfig
	Limits         RateLimits

	// Collaborators are handlers owned by other modules (cars, orders,
	// payments, ...) keyed by mux pattern. They are mounted behind the same
	// authentication and authorization chain.
	Collaborators map[string]http.Handler
}

func NewRouter(
	codec *jwtx.Codec,
	rules *security.RuleTable,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		codec:        codec,
		rules:        rules,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		Metrics:      NewMetrics(),
		Limits:       DefaultRateLimits(),
	}

	// Outermost first: request logging, then authentication, then the
	// rule table.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		security.Filter(codec, rules),
		security.Authorize(rules),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerAccounts()
	r.registerSystem()
	r.registerCollaborators()

	r.Mux.Handle("GET /swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			otoshop Authentication API
//	@version		0.1.0
//	@description	Stateless JWT authentication and authorization for the otoshop dealership backend.
//	@description
//	@description				Access tokens are HS256 JWTs sent as "Authorization: Bearer {token}". The refresh token travels in the HttpOnly refreshToken cookie.
//
//	@contact.name				otoshop team
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(http.HandlerFunc(r.dispatch), r.middlewares...).ServeHTTP(w, req)
}

// dispatch hands the request to the mux, rewriting the mux's plain-text
// 404 and 405 replies as ErrorResponse bodies.
func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	if _, pattern := r.Mux.Handler(req); pattern != "" {
		r.Mux.ServeHTTP(w, req)
		return
	}

	// No pattern: the mux answers 404 or 405. Run it only for the status
	// and Allow header.
	rec := &muxStatus{header: http.Header{}, status: http.StatusNotFound}
	r.Mux.ServeHTTP(rec, req)

	if rec.status == http.StatusMethodNotAllowed {
		if allow := rec.header.Get("Allow"); allow != "" {
			w.Header().Set("Allow", allow)
		}
		authsdk.ErrMethodNotAllowed.WriteError(w)
		return
	}
	authsdk.ErrNotFound.WriteError(w)
}

// muxStatus records what the mux would have written.
type muxStatus struct {
	header http.Header
	status int
}

func (m *muxStatus) Header() http.Header         { return m.header }
func (m *muxStatus) Write(b []byte) (int, error) { return len(b), nil }
func (m *muxStatus) WriteHeader(code int)        { m.status = code }

// handle registers h under pattern with per-route metrics.
func (r *Router) handle(pattern string, h http.Handler, mws ...httpx.Middleware) {
	r.Mux.Handle(pattern, r.Metrics.Instrument(pattern, httpx.Chain(h, mws...)))
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		AuthService: r.AuthService,
		Metrics:     r.Metrics,
		Cookies:     r.Cookies,
	}

	// Brute force protection keyed by IP and the submitted identifier
	r.handle("POST /auth/login", http.HandlerFunc(h.HandleLogin),
		httpx.RateLimitByIPAndJSONField(r.Limits.Login, "identifier"),
	)
	r.handle("POST /auth/register", http.HandlerFunc(h.HandleRegister),
		httpx.RateLimitByIP(r.Limits.Register),
	)
	r.handle("POST /auth/refresh", http.HandlerFunc(h.HandleRefresh),
		httpx.RateLimitByIP(r.Limits.Refresh),
	)
	r.handle("POST /auth/logout", http.HandlerFunc(h.HandleLogout))
}

func (r *Router) registerAccounts() {
	h := &AccountsHandler{AccountService: r.AccountService}

	byAccount := httpx.RateLimitMiddleware(r.Limits.Accounts, httpx.ContextKeyExtractor(principalKey))

	r.handle("GET /users", http.HandlerFunc(h.HandleList), byAccount)
	r.handle("POST /users", http.HandlerFunc(h.HandleCreate), byAccount)
	r.handle("GET /users/me", http.HandlerFunc(h.HandleMe), byAccount)
	r.handle("PUT /users/me/password", http.HandlerFunc(h.HandleChangePassword), byAccount)
	r.handle("GET /users/username/{username}", http.HandlerFunc(h.HandleByUsername), byAccount)
	r.handle("GET /users/{id}", http.HandlerFunc(h.HandleGet), byAccount)
	r.handle("PUT /users/{id}", http.HandlerFunc(h.HandleUpdate), byAccount)
	r.handle("DELETE /users/{id}", http.HandlerFunc(h.HandleDelete), byAccount)
}

func (r *Router) registerSystem() {
	// Monitoring systems may poll frequently
	r.handle("GET /livez", LivezHandler(r.startTime, r.buildVersion),
		httpx.RateLimitByIP(r.Limits.Health),
	)
	r.handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.codec.Keys()),
		httpx.RateLimitByIP(r.Limits.Health),
	)
	r.Mux.Handle("GET /metrics", r.Metrics.Handler())
}

func (r *Router) registerCollaborators() {
	for pattern, h := range r.Collaborators {
		r.handle(pattern, h)
	}
}
