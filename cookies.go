package oauth

import (
	"net/http"
	"time"
)

// CookieKind identifies which of the adapter's cookies is being built.
type CookieKind int

const (
	// CookieNonce is the short-lived CSRF nonce, scoped to the callback
	// endpoint only.
	CookieNonce CookieKind = iota

	// CookieRefreshToken is the long-lived refresh credential, scoped to
	// all of the provider's endpoints.
	CookieRefreshToken

	// CookieLogout clears the refresh-token cookie. Same name, path and
	// domain as CookieRefreshToken so browsers actually delete it.
	CookieLogout
)

// NonceCookieName returns the nonce cookie name for a provider.
func NonceCookieName(providerID string) string {
	return providerID + "-nonce"
}

// RefreshTokenCookieName returns the refresh-token cookie name for a provider.
func RefreshTokenCookieName(providerID string) string {
	return providerID + "-refresh-token"
}

// cookieOptions computes the cookie for the given kind and value. It is a
// pure function of (kind, value, Config); nothing is cached, attributes are
// recomputed on every response.
//
// All cookies are HttpOnly so page scripts can never read the nonce or the
// refresh token. Secure and SameSite come from the Config, which defaults
// to Secure + Lax.
func cookieOptions(kind CookieKind, value string, cfg *Config) *http.Cookie {
	ck := &http.Cookie{
		Value:    value,
		Domain:   cfg.CookieDomain,
		HttpOnly: true,
		Secure:   *cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
	}

	switch kind {
	case CookieNonce:
		ck.Name = NonceCookieName(cfg.ProviderID)
		ck.Path = cfg.providerPath() + "/handler"
		ck.MaxAge = int(cfg.NonceTTL.Seconds())
		ck.Expires = time.Now().Add(cfg.NonceTTL).UTC()
	case CookieRefreshToken:
		ck.Name = RefreshTokenCookieName(cfg.ProviderID)
		ck.Path = cfg.providerPath()
		ck.MaxAge = int(cfg.RefreshTokenTTL.Seconds())
		ck.Expires = time.Now().Add(cfg.RefreshTokenTTL).UTC()
	case CookieLogout:
		ck.Name = RefreshTokenCookieName(cfg.ProviderID)
		ck.Path = cfg.providerPath()
		ck.Value = ""
		ck.MaxAge = -1
		ck.Expires = time.Unix(0, 0).UTC()
	}

	return ck
}
