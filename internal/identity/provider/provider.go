package provider

import (
	"context"

	"github.com/campusnotes/campusnotes/internal/identity/domain"

	"golang.org/x/oauth2"
)

// ExchangeResult is what a completed provider dance yields: the credential
// blob and the provider's self-reported profile. No store access, no auth
// decisions; the resolver owns those.
type ExchangeResult struct {
	Profile domain.Profile
	Token   domain.ProviderToken
}

// Provider is one configured external OAuth identity issuer.
type Provider interface {
	// Name returns the provider identifier (e.g. "google", "discord").
	Name() string

	// AuthCodeURL returns the provider authorization URL for the given
	// anti-forgery state value.
	AuthCodeURL(state string) string

	// Exchange swaps the authorization code for credentials and fetches the
	// profile. Any failure here is a provider error: reported, not retried.
	Exchange(ctx context.Context, code string) (ExchangeResult, error)
}

// tokenFromOAuth2 converts an oauth2 token into the stored blob shape.
func tokenFromOAuth2(t *oauth2.Token) domain.ProviderToken {
	pt := domain.ProviderToken{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
	}
	if scope, ok := t.Extra("scope").(string); ok {
		pt.Scope = scope
	}
	return pt
}
