package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/campusnotes/campusnotes/internal/identity/domain"
	"github.com/campusnotes/campusnotes/internal/identity/provider"
	"github.com/campusnotes/campusnotes/internal/identity/service"
	"github.com/campusnotes/campusnotes/internal/identity/session"
	"github.com/campusnotes/campusnotes/internal/identity/store/drivers/sqlite"
	"github.com/campusnotes/campusnotes/pkg/cryptox"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// fakeProvider satisfies provider.Provider without any network traffic.
type fakeProvider struct {
	name    string
	profile domain.Profile
	token   domain.ProviderToken
	err     error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) AuthCodeURL(state string) string {
	return "https://provider.example/authorize?state=" + state
}

func (f *fakeProvider) Exchange(ctx context.Context, code string) (provider.ExchangeResult, error) {
	if f.err != nil {
		return provider.ExchangeResult{}, f.err
	}
	return provider.ExchangeResult{Profile: f.profile, Token: f.token}, nil
}

type testEnv struct {
	router  *Router
	google  *fakeProvider
	discord *fakeProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	sessions := session.NewRedisStore(rdb)
	signer, err := session.NewSigner("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	google := &fakeProvider{
		name:    "google",
		profile: domain.Profile{ProviderUserID: "g1", Email: "a@x.com", DisplayName: "A"},
		token:   domain.ProviderToken{AccessToken: "atok", TokenType: "Bearer"},
	}
	discord := &fakeProvider{
		name:    "discord",
		profile: domain.Profile{ProviderUserID: "d1", Email: "a@x.com", DisplayName: "A"},
		token:   domain.ProviderToken{AccessToken: "dtok", TokenType: "Bearer"},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	adminHash, err := cryptox.HashSecret("let-me-in")
	require.NoError(t, err)

	router := NewRouter("test", st, rdb, logger)
	router.Providers = provider.NewRegistry(google, discord)
	router.Resolver = &service.ResolverService{Store: st}
	router.UserService = &service.UserService{Store: st, AdminCodeHash: adminHash}
	router.Sessions = sessions
	router.Signer = signer
	router.Gate = &service.SessionGate{Sessions: sessions, Signer: signer, TTL: time.Hour}
	router.ApplyRoutes()

	return &testEnv{router: router, google: google, discord: discord}
}

// login drives the full start+callback dance and returns the session cookie.
func (e *testEnv) login(t *testing.T, providerName string) *http.Cookie {
	t.Helper()

	cookie := e.callback(t, providerName, nil, "flash=")
	require.NotNil(t, cookie)
	return cookie
}

// callback performs a valid-state callback, asserts the redirect location
// contains wantFragment, and returns the session cookie if one was set.
func (e *testEnv) callback(t *testing.T, providerName string, sessionCookie *http.Cookie, wantFragment string) *http.Cookie {
	t.Helper()

	// Start: pick up the state cookie.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/"+providerName+"/login", nil)
	e.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusFound, rec.Code)

	var state *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == stateCookieName {
			state = c
		}
	}
	require.NotNil(t, state, "login must set the state cookie")

	// Callback with the matching state.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet,
		"/v1/auth/"+providerName+"/callback?state="+state.Value+"&code=fake-code", nil)
	req.AddCookie(state)
	if sessionCookie != nil {
		req.AddCookie(sessionCookie)
	}
	e.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Contains(t, rec.Header().Get("Location"), wantFragment)

	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.Value != "" {
			return c
		}
	}
	return nil
}

func TestLoginRedirectsToProvider(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/auth/google/login", nil))

	require.Equal(t, http.StatusFound, rec.Code)
	require.Contains(t, rec.Header().Get("Location"), "https://provider.example/authorize?state=")
}

func TestLoginUnknownProvider(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/auth/github/login", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCallbackSignsIn(t *testing.T) {
	env := newTestEnv(t)

	cookie := env.callback(t, "google", nil, "flash=signed_in")
	require.NotNil(t, cookie)
	require.True(t, cookie.HttpOnly)

	// The cookie authenticates /v1/userinfo.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/userinfo", nil)
	req.AddCookie(cookie)
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var info UserInfoResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	require.Equal(t, "a@x.com", info.Email)
	require.Equal(t, "A", info.DisplayName)
	require.False(t, info.IsAdmin)
	require.Equal(t, []string{"google"}, info.Providers)
}

func TestCallbackRejectsBadState(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/google/callback?state=forged&code=c", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "different"})
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Contains(t, rec.Header().Get("Location"), "error=invalid_state")
}

func TestCallbackRejectsProviderError(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/v1/auth/google/callback?state=s&code=&error=access_denied", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "s"})
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Contains(t, rec.Header().Get("Location"), "error=provider_error")
}

func TestCallbackRejectsFailedExchange(t *testing.T) {
	env := newTestEnv(t)
	env.google.err = errors.New("upstream down")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/google/callback?state=s&code=c", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "s"})
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Contains(t, rec.Header().Get("Location"), "error=provider_error")
}

func TestCallbackRejectsMissingEmail(t *testing.T) {
	env := newTestEnv(t)
	env.google.profile.Email = ""

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/auth/google/callback?state=s&code=c", nil)
	req.AddCookie(&http.Cookie{Name: stateCookieName, Value: "s"})
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Contains(t, rec.Header().Get("Location"), "error=missing_email")
}

func TestCallbackMergesSecondProvider(t *testing.T) {
	env := newTestEnv(t)

	cookie := env.callback(t, "google", nil, "flash=signed_in")
	require.NotNil(t, cookie)

	// An anonymous discord login with the same email lands on the same user.
	cookie2 := env.callback(t, "discord", nil, "flash=signed_in")
	require.NotNil(t, cookie2)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/userinfo", nil)
	req.AddCookie(cookie2)
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var info UserInfoResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	require.Equal(t, []string{"discord", "google"}, info.Providers)
}

func TestCallbackLinkFlow(t *testing.T) {
	env := newTestEnv(t)
	env.discord.profile.Email = "other@x.com" // link follows the session, not the email

	cookie := env.callback(t, "google", nil, "flash=signed_in")
	require.NotNil(t, cookie)

	// Authenticated callback links and keeps the existing session.
	linkCookie := env.callback(t, "discord", cookie, "flash=provider_linked")
	require.Nil(t, linkCookie, "link must not mint a new session")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/userinfo", nil)
	req.AddCookie(cookie)
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var info UserInfoResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
	require.Equal(t, []string{"discord", "google"}, info.Providers)
}

func TestCallbackLinkConflict(t *testing.T) {
	env := newTestEnv(t)
	env.discord.profile.Email = "bob@x.com"

	// Bob owns the discord identity.
	bobCookie := env.callback(t, "discord", nil, "flash=signed_in")
	require.NotNil(t, bobCookie)

	// Alice signs in with google and tries to link bob's discord identity.
	env.google.profile = domain.Profile{ProviderUserID: "g-alice", Email: "alice@x.com", DisplayName: "Alice"}
	aliceCookie := env.callback(t, "google", nil, "flash=signed_in")
	require.NotNil(t, aliceCookie)

	env.callback(t, "discord", aliceCookie, "error=already_linked")
}

func TestUserInfoRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/userinfo", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "google")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil)
	req.AddCookie(cookie)
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	require.Contains(t, rec.Header().Get("Location"), "/login")

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	require.True(t, cleared, "logout must clear the session cookie")

	// The revoked session no longer authenticates.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/v1/userinfo", nil)
	req.AddCookie(cookie)
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutAnonymousIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/logout", nil))
	require.Equal(t, http.StatusFound, rec.Code)
}

func TestPromote(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.login(t, "google")

	promote := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/admin/promote", bytes.NewBufferString(body))
		req.AddCookie(cookie)
		env.router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("requires a code", func(t *testing.T) {
		require.Equal(t, http.StatusBadRequest, promote(`{}`).Code)
	})

	t.Run("rejects a wrong code", func(t *testing.T) {
		require.Equal(t, http.StatusForbidden, promote(`{"code":"wrong"}`).Code)
	})

	t.Run("grants admin on the right code", func(t *testing.T) {
		require.Equal(t, http.StatusOK, promote(`{"code":"let-me-in"}`).Code)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/userinfo", nil)
		req.AddCookie(cookie)
		env.router.ServeHTTP(rec, req)

		var info UserInfoResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&info))
		require.True(t, info.IsAdmin)
	})
}

func TestLivez(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyz(t *testing.T) {
	env := newTestEnv(t)

	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
