package oauth

import "github.com/authbridge/idp-oauth/providers"

// SessionResult is the transient, in-memory outcome of a successful token
// exchange with the IdP. It exists only for the duration of the callback
// request: the refresh token moves into the HTTP-only cookie and everything
// else is handed to the browser. It is never persisted server-side.
type SessionResult struct {
	// Profile is the user identity reported by the IdP
	Profile *providers.UserInfo `json:"profile,omitempty"`

	// IDToken is the OIDC identity token, if the IdP issued one
	IDToken string `json:"idToken,omitempty"`

	// AccessToken is the short-lived access token
	AccessToken string `json:"accessToken"`

	// RefreshToken is the long-lived credential. It MUST be stripped before
	// any value derived from this struct reaches the browser; its only
	// durable home is the refresh-token cookie.
	RefreshToken string `json:"-"`

	// Scope is the granted scope, space-separated
	Scope string `json:"scope,omitempty"`

	// ExpiresInSeconds is the access token lifetime
	ExpiresInSeconds int64 `json:"expiresInSeconds,omitempty"`
}

// sessionFromGrant maps the provider's token response into a SessionResult.
func sessionFromGrant(g *providers.Grant) *SessionResult {
	return &SessionResult{
		Profile:          g.Profile,
		IDToken:          g.IDToken,
		AccessToken:      g.AccessToken,
		RefreshToken:     g.RefreshToken,
		Scope:            g.Scope,
		ExpiresInSeconds: g.ExpiresIn,
	}
}

// RefreshResponse is the JSON body returned by the refresh endpoint.
// It deliberately has no refresh-token field: the same refresh token stays
// valid and stored client-side.
type RefreshResponse struct {
	AccessToken      string `json:"accessToken"`
	IDToken          string `json:"idToken,omitempty"`
	ExpiresInSeconds int64  `json:"expiresInSeconds,omitempty"`
	Scope            string `json:"scope,omitempty"`
}

// frameMessage is the payload the callback frame posts to its opener window.
// Exactly one of Payload and Error is set.
type frameMessage struct {
	Type    string         `json:"type"`
	Payload *SessionResult `json:"payload,omitempty"`
	Error   *frameError    `json:"error,omitempty"`
}

// frameError carries a descriptive error to the opener window.
type frameError struct {
	Message string `json:"message"`
}

// frameMessageType identifies auth results in the opener's message listener.
const frameMessageType = "auth-result"
