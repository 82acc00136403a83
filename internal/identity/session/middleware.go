package session

import (
	"context"
	"net/http"

	"github.com/campusnotes/campusnotes/pkg/httpx"
	"github.com/campusnotes/campusnotes/pkg/slogx"
)

// Middleware resolves the session cookie into request context. Requests
// without a valid, live session continue as anonymous; handlers that need
// authentication wrap themselves in RequireAuth.
func Middleware(store Store, signer *Signer) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(CookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sessionID, userID, err := signer.Verify(cookie.Value)
			if err != nil {
				slogx.FromContext(r.Context()).Debug("session cookie rejected", "err", err)
				next.ServeHTTP(w, r)
				return
			}

			// The server-side record is authoritative: logout or expiry in
			// Redis invalidates the cookie even while its signature holds.
			sess, err := store.Get(r.Context(), sessionID)
			if err != nil || sess.UserID != userID {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), httpx.CtxKeyUserID, sess.UserID)
			ctx = context.WithValue(ctx, httpx.CtxKeySessionID, sess.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if httpx.UserIDFromContext(r.Context()) == "" {
			httpx.WriteError(w, http.StatusUnauthorized,
				"unauthenticated", "Sign in to access this resource.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
