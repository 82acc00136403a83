package http

import (
	"net/http"

	"github.com/campusnotes/campusnotes/internal/identity/service"
	"github.com/campusnotes/campusnotes/internal/identity/session"
	"github.com/campusnotes/campusnotes/pkg/httpx"
	"github.com/campusnotes/campusnotes/pkg/slogx"
)

type LogoutHandler struct {
	Gate          *service.SessionGate
	SecureCookies bool
	LoginPageURL  string
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if sid := httpx.SessionIDFromContext(ctx); sid != "" {
		if err := h.Gate.Revoke(ctx, sid); err != nil {
			slogx.FromContext(ctx).Warn("failed to revoke session", "err", err)
		}
	}

	// Clear the cookie even for anonymous callers; logout is idempotent.
	session.ClearCookie(w, h.SecureCookies)
	http.Redirect(w, r, h.LoginPageURL, http.StatusFound)
}
