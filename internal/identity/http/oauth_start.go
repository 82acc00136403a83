package http

import (
	"net/http"

	"github.com/campusnotes/campusnotes/internal/identity/provider"
	"github.com/campusnotes/campusnotes/pkg/httpx"
	"github.com/campusnotes/campusnotes/pkg/slogx"
)

// OAuthStartHandler redirects the user-agent to the provider's authorization
// page. Works for both anonymous logins and authenticated link flows; the
// distinction is made at the callback from the session state.
type OAuthStartHandler struct {
	Providers     *provider.Registry
	SecureCookies bool
}

func (h *OAuthStartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	p, err := h.Providers.Get(r.PathValue("provider"))
	if err != nil {
		httpx.WriteError(w, http.StatusNotFound, "unknown_provider", err.Error())
		return
	}

	state := issueState(w, h.SecureCookies)

	log.Info("oauth login started", "provider", p.Name())
	http.Redirect(w, r, p.AuthCodeURL(state), http.StatusFound)
}
