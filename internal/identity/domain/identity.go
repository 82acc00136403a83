package domain

import "time"

// LinkedIdentity binds one (provider, provider_user_id) pair to one local
// user. A user may hold identities across distinct providers but never two
// rows for the same provider identity.
type LinkedIdentity struct {
	Provider       string
	ProviderUserID string
	UserID         string
	Token          ProviderToken
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ProviderToken is the credential blob received from a provider. The resolver
// stores it opaquely; the only field it interprets is RefreshToken, which is
// preserved across updates when the provider omits it on repeat consent.
type ProviderToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	Expiry       time.Time `json:"expiry,omitzero"`
	Scope        string    `json:"scope,omitempty"` // space-delimited
}

// MergeRefreshFrom returns t with prev's refresh token carried over when t
// lacks one. Some providers only issue the refresh token on first consent.
func (t ProviderToken) MergeRefreshFrom(prev ProviderToken) ProviderToken {
	if t.RefreshToken == "" {
		t.RefreshToken = prev.RefreshToken
	}
	return t
}

// Profile is the provider's self-reported view of the external account.
// Email and DisplayName are empty when the provider omitted them.
type Profile struct {
	ProviderUserID string
	Email          string
	DisplayName    string
}
