package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/campusnotes/campusnotes/internal/identity/domain"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const googleName = "google"

// Google authenticates against Google's OIDC endpoint and reads identity
// claims from the verified id_token rather than a userinfo round trip.
type Google struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
}

func NewGoogle(ctx context.Context, clientID, clientSecret, redirectURL string) (*Google, error) {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("google oauth config missing required fields")
	}

	oidcProvider, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		return nil, fmt.Errorf("failed to init google oidc provider: %w", err)
	}

	verifier := oidcProvider.Verifier(&oidc.Config{ClientID: clientID})

	oauthCfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     oidcProvider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}

	return &Google{oauthConfig: oauthCfg, verifier: verifier}, nil
}

func (p *Google) Name() string { return googleName }

func (p *Google) AuthCodeURL(state string) string {
	// Offline access so Google issues a refresh token. Google only issues it
	// on first consent; repeat logins come back without one.
	return p.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

func (p *Google) Exchange(ctx context.Context, code string) (ExchangeResult, error) {
	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return ExchangeResult{}, fmt.Errorf("google token exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return ExchangeResult{}, errors.New("google did not return id_token")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return ExchangeResult{}, fmt.Errorf("google id_token verification failed: %w", err)
	}

	var claims struct {
		Subject string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return ExchangeResult{}, fmt.Errorf("google id_token claims parse failed: %w", err)
	}

	if claims.Subject == "" {
		return ExchangeResult{}, errors.New("google id_token missing subject")
	}

	return ExchangeResult{
		Profile: domain.Profile{
			ProviderUserID: claims.Subject,
			Email:          claims.Email,
			DisplayName:    claims.Name,
		},
		Token: tokenFromOAuth2(token),
	}, nil
}
