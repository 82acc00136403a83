package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/campusnotes/campusnotes/internal/identity/domain"
	"github.com/campusnotes/campusnotes/internal/identity/metrics"
	"github.com/campusnotes/campusnotes/internal/identity/provider"
	"github.com/campusnotes/campusnotes/internal/identity/service"
	"github.com/campusnotes/campusnotes/internal/identity/session"
	"github.com/campusnotes/campusnotes/pkg/httpx"
	"github.com/campusnotes/campusnotes/pkg/slogx"
)

// OAuthCallbackHandler finishes the provider dance and hands the result to
// the resolver. The provider network calls happen here, strictly before the
// resolver's transaction.
type OAuthCallbackHandler struct {
	Providers     *provider.Registry
	Resolver      *service.ResolverService
	Gate          *service.SessionGate
	SecureCookies bool
	PostLoginURL  string
	LoginPageURL  string
}

func (h *OAuthCallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	p, err := h.Providers.Get(r.PathValue("provider"))
	if err != nil {
		httpx.WriteError(w, http.StatusNotFound, "unknown_provider", err.Error())
		return
	}

	if !validateState(w, r, h.SecureCookies) {
		metrics.ResolutionFailures.WithLabelValues("invalid_state").Inc()
		h.redirectError(w, r, "invalid_state")
		return
	}

	// The provider reporting an error (or omitting the code) is the upstream
	// failure case: reported, not retried.
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		log.Warn("provider returned error", "provider", p.Name(), "provider_error", errParam)
		metrics.ResolutionFailures.WithLabelValues("provider_error").Inc()
		h.redirectError(w, r, "provider_error")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		metrics.ResolutionFailures.WithLabelValues("provider_error").Inc()
		h.redirectError(w, r, "provider_error")
		return
	}

	result, err := p.Exchange(ctx, code)
	if err != nil {
		log.Warn("provider exchange failed", "provider", p.Name(), "err", err)
		metrics.ResolutionFailures.WithLabelValues("provider_error").Inc()
		h.redirectError(w, r, "provider_error")
		return
	}

	actor := domain.Anonymous
	if uid := httpx.UserIDFromContext(ctx); uid != "" {
		actor = domain.AuthenticatedAs(uid)
	}

	res, err := h.Resolver.Resolve(ctx, actor, p.Name(), result.Profile, result.Token)
	if err != nil {
		reason := h.classifyResolverError(err)
		log.Warn("identity resolution rejected",
			"provider", p.Name(),
			"reason", reason,
			"err", err,
		)
		metrics.ResolutionFailures.WithLabelValues(reason).Inc()
		h.redirectError(w, r, reason)
		return
	}

	adm, err := h.Gate.Admit(ctx, res, p.Name(), result.Profile, result.Token)
	if err != nil {
		log.Error("failed to establish session", "user_id", res.UserID, "err", err)
		metrics.ResolutionFailures.WithLabelValues("session_error").Inc()
		h.redirectError(w, r, "server_error")
		return
	}

	if adm.Cookie != "" {
		session.SetCookie(w, adm.Cookie, adm.ExpiresAt, h.SecureCookies)
	}

	metrics.Resolutions.WithLabelValues(string(res.Outcome)).Inc()
	log.Info("identity resolved",
		"provider", p.Name(),
		"outcome", res.Outcome,
		"user_id", res.UserID,
	)

	h.redirectFlash(w, r, h.PostLoginURL, string(adm.Signal))
}

// classifyResolverError maps resolver errors to user-facing reason codes.
// Storage conflicts surface like upstream failures: transient, generic.
func (h *OAuthCallbackHandler) classifyResolverError(err error) string {
	switch {
	case errors.Is(err, service.ErrMissingEmail):
		return "missing_email"
	case errors.Is(err, service.ErrAlreadyLinkedElsewhere):
		return "already_linked"
	case errors.Is(err, service.ErrStorageConflict):
		return "provider_error"
	default:
		return "server_error"
	}
}

func (h *OAuthCallbackHandler) redirectError(w http.ResponseWriter, r *http.Request, reason string) {
	redirectWithQuery(w, r, h.LoginPageURL, "error", reason)
}

func (h *OAuthCallbackHandler) redirectFlash(w http.ResponseWriter, r *http.Request, target, flash string) {
	redirectWithQuery(w, r, target, "flash", flash)
}

func redirectWithQuery(w http.ResponseWriter, r *http.Request, target, param, value string) {
	u, err := url.Parse(target)
	if err != nil {
		u = &url.URL{Path: "/"}
	}
	if value != "" {
		q := u.Query()
		q.Set(param, value)
		u.RawQuery = q.Encode()
	}
	http.Redirect(w, r, u.String(), http.StatusFound)
}
