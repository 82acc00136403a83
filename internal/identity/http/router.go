package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/campusnotes/campusnotes/internal/identity/provider"
	"github.com/campusnotes/campusnotes/internal/identity/service"
	"github.com/campusnotes/campusnotes/internal/identity/session"
	"github.com/campusnotes/campusnotes/internal/identity/store"
	"github.com/campusnotes/campusnotes/pkg/httpx"
	"github.com/campusnotes/campusnotes/pkg/slogx"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store
	redis *redis.Client

	Providers     *provider.Registry
	Resolver      *service.ResolverService
	Gate          *service.SessionGate
	UserService   *service.UserService
	Sessions      session.Store
	Signer        *session.Signer
	SecureCookies bool

	// PostLoginURL and LoginPageURL are where callbacks land on success and
	// failure respectively.
	PostLoginURL string
	LoginPageURL string

	Registry *prometheus.Registry
}

func NewRouter(
	buildVersion string,
	st store.Store,
	rdb *redis.Client,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		redis:        rdb,
		logger:       logger,
		PostLoginURL: "/",
		LoginPageURL: "/login",
	}

	return r
}

func (r *Router) ApplyRoutes() {
	// Session resolution is global so every handler sees the actor state.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		session.Middleware(r.Sessions, r.Signer),
	}

	r.registerOAuth()
	r.registerUsers()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOAuth() {
	start := &OAuthStartHandler{
		Providers:     r.Providers,
		SecureCookies: r.SecureCookies,
	}
	callback := &OAuthCallbackHandler{
		Providers:     r.Providers,
		Resolver:      r.Resolver,
		Gate:          r.Gate,
		SecureCookies: r.SecureCookies,
		PostLoginURL:  r.PostLoginURL,
		LoginPageURL:  r.LoginPageURL,
	}
	logout := &LogoutHandler{
		Gate:          r.Gate,
		SecureCookies: r.SecureCookies,
		LoginPageURL:  r.LoginPageURL,
	}

	r.Mux.Handle("GET /v1/auth/{provider}/login",
		httpx.Chain(start, httpx.RateLimitByIP(httpx.StrictLimit)))
	r.Mux.Handle("GET /v1/auth/{provider}/callback",
		httpx.Chain(callback, httpx.RateLimitByIP(httpx.StrictLimit)))
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(logout, httpx.RateLimitByIP(httpx.ModerateLimit)))
}

func (r *Router) registerUsers() {
	userinfo := &UserInfoHandler{UserService: r.UserService}
	promote := &PromoteHandler{UserService: r.UserService}

	r.Mux.Handle("GET /v1/userinfo",
		httpx.Chain(userinfo,
			httpx.RateLimitByIP(httpx.ModerateLimit),
			session.RequireAuth,
		))
	r.Mux.Handle("POST /v1/admin/promote",
		httpx.Chain(promote,
			httpx.RateLimitByIP(httpx.StrictLimit),
			session.RequireAuth,
		))
}

func (r *Router) registerSystem() {
	r.Mux.HandleFunc("GET /livez", r.handleLivez)
	r.Mux.HandleFunc("GET /readyz", r.handleReadyz)

	if r.Registry != nil {
		r.Mux.Handle("GET /metrics",
			promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{}))
	}
}
