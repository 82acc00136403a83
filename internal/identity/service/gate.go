package service

import (
	"context"
	"fmt"
	"time"

	"github.com/campusnotes/campusnotes/internal/identity/domain"
	"github.com/campusnotes/campusnotes/internal/identity/provider"
	"github.com/campusnotes/campusnotes/internal/identity/session"
	"github.com/campusnotes/campusnotes/pkg/cryptox"
)

// Signal tells the route layer what to show the user after a resolution.
type Signal string

const (
	SignalSignedIn       Signal = "signed_in"
	SignalProviderLinked Signal = "provider_linked"
)

// Admission is the session gate's verdict on a successful resolution.
type Admission struct {
	UserID    string
	Signal    Signal
	Cookie    string    // signed cookie value; empty when the existing session is kept
	ExpiresAt time.Time // cookie expiry; zero when no cookie is issued
}

// SessionGate turns a resolution outcome into session state. It owns no
// persistent data; the session store and the cookie signer do the work.
type SessionGate struct {
	Sessions session.Store
	Signer   *session.Signer
	Guild    *GuildJoinService
	TTL      time.Duration
}

// Admit establishes (or keeps) the session for a resolved user and kicks off
// the community auto-join side effect when applicable.
func (g *SessionGate) Admit(
	ctx context.Context,
	res domain.Resolution,
	providerName string,
	profile domain.Profile,
	token domain.ProviderToken,
) (Admission, error) {
	adm := Admission{UserID: res.UserID, Signal: SignalProviderLinked}

	if res.SignedIn() {
		sid, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return Admission{}, fmt.Errorf("failed to mint session id: %w", err)
		}

		sess := session.Session{
			ID:        sid,
			UserID:    res.UserID,
			ExpiresAt: time.Now().Add(g.TTL),
		}
		if err := g.Sessions.Create(ctx, sess); err != nil {
			return Admission{}, fmt.Errorf("failed to persist session: %w", err)
		}

		cookie, err := g.Signer.Sign(sess)
		if err != nil {
			return Admission{}, err
		}

		adm.Signal = SignalSignedIn
		adm.Cookie = cookie
		adm.ExpiresAt = sess.ExpiresAt
	}

	// Fire-and-forget: the login never waits on, or fails with, the join.
	if g.Guild.Enabled() && providerName == provider.DiscordName && token.AccessToken != "" {
		go g.Guild.Join(profile.ProviderUserID, token.AccessToken)
	}

	return adm, nil
}

// Revoke deletes the server-side session record on logout.
func (g *SessionGate) Revoke(ctx context.Context, sessionID string) error {
	return g.Sessions.Delete(ctx, sessionID)
}
