// Package providers defines the strategy interface for external OAuth2/OIDC
// identity providers and the token-grant shape the gateway core consumes.
package providers

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// Provider is the strategy adapter for one external IdP. Implementations
// wrap provider-specific oauth2.Config details (endpoints, credentials,
// consent parameters) and map the IdP's token responses into Grants.
type Provider interface {
	// Name returns the provider name (e.g., "google", "oidc")
	Name() string

	// AuthCodeURL builds the IdP consent-screen URL for the authorization
	// code flow. Implementations must request offline access and forced
	// consent so a refresh token is reissued even on repeat logins, and
	// must carry state through to the redirect unchanged.
	AuthCodeURL(state string, scopes []string) string

	// Exchange trades an authorization code for tokens at the IdP.
	Exchange(ctx context.Context, code string) (*Grant, error)

	// Refresh exchanges a stored refresh token for a fresh access token.
	// An empty scopes slice requests the originally granted scopes.
	Refresh(ctx context.Context, refreshToken string, scopes []string) (*Grant, error)
}

// Grant is a provider token response normalized into the gateway's shape.
// Provider-specific parameter names (id_token, expires_in, scope) are
// resolved by the adapter, so the core never inspects raw IdP responses.
type Grant struct {
	// AccessToken is the short-lived access token
	AccessToken string

	// RefreshToken is the long-lived credential. Empty when the IdP did
	// not grant one; the callback treats that as a hard failure.
	RefreshToken string

	// IDToken is the OIDC identity token, if present
	IDToken string

	// Scope is the granted scope as reported by the IdP, space-separated
	Scope string

	// ExpiresIn is the access token lifetime in seconds
	ExpiresIn int64

	// Profile is the authenticated user, when the adapter fetched one
	Profile *UserInfo
}

// UserInfo represents user identity information from a provider
type UserInfo struct {
	// ID is the unique user identifier from the provider
	ID string `json:"id,omitempty"`

	// Email is the user's email address
	Email string `json:"email,omitempty"`

	// EmailVerified indicates if the email is verified
	EmailVerified bool `json:"emailVerified,omitempty"`

	// Name is the user's full name
	Name string `json:"name,omitempty"`

	// Picture is the URL of the user's profile picture
	Picture string `json:"picture,omitempty"`
}

// GrantFromToken maps an oauth2.Token into a Grant, extracting the OIDC
// extras (id_token, scope) that golang.org/x/oauth2 exposes only through
// Token.Extra.
func GrantFromToken(token *oauth2.Token) *Grant {
	g := &Grant{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	if idToken, ok := token.Extra("id_token").(string); ok {
		g.IDToken = idToken
	}
	if scope, ok := token.Extra("scope").(string); ok {
		g.Scope = scope
	}
	if !token.Expiry.IsZero() {
		if remaining := time.Until(token.Expiry); remaining > 0 {
			g.ExpiresIn = int64(remaining.Seconds())
		}
	}
	// Some IdPs report expires_in directly; prefer the verbatim value when present.
	if expiresIn, ok := token.Extra("expires_in").(float64); ok && expiresIn > 0 {
		g.ExpiresIn = int64(expiresIn)
	}
	return g
}
