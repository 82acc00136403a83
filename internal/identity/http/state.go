package http

import (
	"net/http"
	"time"

	"github.com/campusnotes/campusnotes/pkg/cryptox"
)

const (
	stateCookieName = "oauth_state"
	stateTTL        = 5 * time.Minute
)

// issueState mints an anti-forgery state value and stores it in a short-lived
// cookie for the callback to compare against.
func issueState(w http.ResponseWriter, secure bool) string {
	state := cryptox.MustGenerateToken(cryptox.TokenSize128)

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})

	return state
}

// validateState compares the callback's state query param to the cookie and
// clears the cookie either way.
func validateState(w http.ResponseWriter, r *http.Request, secure bool) bool {
	defer http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})

	got := r.URL.Query().Get("state")
	if got == "" {
		return false
	}

	cookie, err := r.Cookie(stateCookieName)
	if err != nil {
		return false
	}
	return cookie.Value == got
}
