package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/campusnotes/campusnotes/internal/identity/domain"

	"golang.org/x/oauth2"
)

const (
	// DiscordName is exported so the session gate can recognise the provider
	// that supports community auto-join.
	DiscordName = "discord"

	discordAuthURL  = "https://discord.com/api/oauth2/authorize"
	discordTokenURL = "https://discord.com/api/oauth2/token"
	discordMeURL    = "https://discord.com/api/users/@me"
)

// Discord has no OIDC discovery; the profile comes from the /users/@me
// endpoint. Email is only present when the "email" scope was granted and the
// account's email is verified.
type Discord struct {
	oauthConfig *oauth2.Config

	// apiBase overrides the Discord API origin in tests.
	apiBase string
}

func NewDiscord(clientID, clientSecret, redirectURL string) (*Discord, error) {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("discord oauth config missing required fields")
	}

	return &Discord{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   discordAuthURL,
				TokenURL:  discordTokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: []string{"identify", "email", "guilds.join"},
		},
	}, nil
}

func (p *Discord) Name() string { return DiscordName }

func (p *Discord) AuthCodeURL(state string) string {
	return p.oauthConfig.AuthCodeURL(state)
}

func (p *Discord) Exchange(ctx context.Context, code string) (ExchangeResult, error) {
	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return ExchangeResult{}, fmt.Errorf("discord token exchange failed: %w", err)
	}

	profile, err := p.fetchProfile(ctx, token)
	if err != nil {
		return ExchangeResult{}, err
	}

	return ExchangeResult{
		Profile: profile,
		Token:   tokenFromOAuth2(token),
	}, nil
}

func (p *Discord) fetchProfile(ctx context.Context, token *oauth2.Token) (domain.Profile, error) {
	url := discordMeURL
	if p.apiBase != "" {
		url = p.apiBase + "/users/@me"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Profile{}, err
	}

	resp, err := p.oauthConfig.Client(ctx, token).Do(req)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("discord profile fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Profile{}, fmt.Errorf("discord profile fetch returned %d", resp.StatusCode)
	}

	var me struct {
		ID         string `json:"id"`
		Username   string `json:"username"`
		GlobalName string `json:"global_name"`
		Email      string `json:"email"`
		Verified   bool   `json:"verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return domain.Profile{}, fmt.Errorf("discord profile decode failed: %w", err)
	}

	if me.ID == "" {
		return domain.Profile{}, errors.New("discord profile missing id")
	}

	display := me.GlobalName
	if display == "" {
		display = me.Username
	}

	// Unverified emails can't serve as a merge key; treat them as absent.
	email := me.Email
	if !me.Verified {
		email = ""
	}

	return domain.Profile{
		ProviderUserID: me.ID,
		Email:          email,
		DisplayName:    display,
	}, nil
}
