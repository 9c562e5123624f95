// Package mock provides a configurable fake provider for tests.
package mock

import (
	"context"
	"fmt"
	"net/url"

	"github.com/authbridge/idp-oauth/providers"
)

// Provider is a configurable mock implementation of providers.Provider.
// Zero value behaves like a healthy IdP that grants refresh tokens.
type Provider struct {
	// ProviderName overrides the reported name (default "mock")
	ProviderName string

	// AuthURL is the fake consent endpoint (default https://idp.example.com/auth)
	AuthURL string

	// ExchangeGrant is returned by Exchange when ExchangeErr is nil.
	// Nil gets a sensible default grant with a refresh token.
	ExchangeGrant *providers.Grant

	// ExchangeErr forces Exchange to fail
	ExchangeErr error

	// RefreshGrant is returned by Refresh when RefreshErr is nil.
	RefreshGrant *providers.Grant

	// RefreshErr forces Refresh to fail
	RefreshErr error

	// Calls records every operation for assertions
	Calls []string

	// LastRefreshToken records the token passed to Refresh
	LastRefreshToken string

	// LastScopes records the scopes passed to the last operation
	LastScopes []string
}

// NewProvider creates a mock provider with defaults
func NewProvider() *Provider {
	return &Provider{}
}

// Name returns the provider name
func (p *Provider) Name() string {
	if p.ProviderName != "" {
		return p.ProviderName
	}
	return "mock"
}

// AuthCodeURL returns a fake consent URL carrying the state, offline access,
// and forced consent, mirroring what real adapters emit.
func (p *Provider) AuthCodeURL(state string, scopes []string) string {
	p.Calls = append(p.Calls, "AuthCodeURL")
	p.LastScopes = scopes

	base := p.AuthURL
	if base == "" {
		base = "https://idp.example.com/auth"
	}

	v := url.Values{}
	v.Set("response_type", "code")
	v.Set("state", state)
	v.Set("access_type", "offline")
	v.Set("prompt", "consent")
	return fmt.Sprintf("%s?%s", base, v.Encode())
}

// Exchange returns the configured grant or error
func (p *Provider) Exchange(ctx context.Context, code string) (*providers.Grant, error) {
	p.Calls = append(p.Calls, "Exchange")
	if p.ExchangeErr != nil {
		return nil, p.ExchangeErr
	}
	if p.ExchangeGrant != nil {
		return p.ExchangeGrant, nil
	}
	return &providers.Grant{
		AccessToken:  "mock-access-token",
		RefreshToken: "mock-refresh-token",
		IDToken:      "mock-id-token",
		Scope:        "openid profile",
		ExpiresIn:    3600,
		Profile: &providers.UserInfo{
			ID:    "user-123",
			Email: "user@example.com",
			Name:  "Mock User",
		},
	}, nil
}

// Refresh returns the configured grant or error
func (p *Provider) Refresh(ctx context.Context, refreshToken string, scopes []string) (*providers.Grant, error) {
	p.Calls = append(p.Calls, "Refresh")
	p.LastRefreshToken = refreshToken
	p.LastScopes = scopes
	if p.RefreshErr != nil {
		return nil, p.RefreshErr
	}
	if p.RefreshGrant != nil {
		return p.RefreshGrant, nil
	}
	return &providers.Grant{
		AccessToken: "mock-refreshed-access-token",
		IDToken:     "mock-refreshed-id-token",
		Scope:       "openid profile",
		ExpiresIn:   3600,
	}, nil
}
