package oauth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/authbridge/idp-oauth/instrumentation"
)

// Default lifetimes for the two cookies this adapter owns.
// The nonce only needs to survive one round-trip to the IdP;
// the refresh token is the long-lived browser-side credential.
const (
	DefaultNonceTTL        = 10 * time.Minute
	DefaultRefreshTokenTTL = 1000 * 24 * time.Hour

	// DefaultTrustedHeaderValue is the expected value of the
	// X-Requested-With header on refresh and logout requests.
	DefaultTrustedHeaderValue = "XMLHttpRequest"
)

// Config holds the configuration for one IdP adapter instance.
// The gateway creates one Config (and one Handler) per configured provider.
type Config struct {
	// ProviderID is the stable identifier for this IdP integration.
	// It is used in route paths (/auth/{ProviderID}/...) and cookie names
	// ({ProviderID}-nonce, {ProviderID}-refresh-token). Required.
	ProviderID string

	// BasePath is the path prefix the gateway mounts auth routes under.
	// Default: "/auth". Cookie paths are derived from it, so it must match
	// the mount point or browsers will not send the cookies back.
	BasePath string

	// CookieDomain restricts cookies to the deployment's host.
	// Empty means host-only cookies.
	CookieDomain string

	// CookieSecure marks cookies Secure. Default: true. Only disable for
	// local development over plain HTTP.
	CookieSecure *bool

	// CookieSameSite is the SameSite mode for all cookies. Default: Lax,
	// the most restrictive mode that still survives the IdP redirect
	// round-trip.
	CookieSameSite http.SameSite

	// TrustedHeaderValue is the required X-Requested-With value on the
	// refresh and logout endpoints. Default: "XMLHttpRequest".
	// This is a lightweight same-origin signal, not cryptographic CSRF
	// protection; the nonce mechanism covers the authorization flow.
	TrustedHeaderValue string

	// NonceTTL is the lifetime of the nonce cookie. Default: 10 minutes.
	NonceTTL time.Duration

	// RefreshTokenTTL is the lifetime of the refresh-token cookie.
	// Default: 1000 days.
	RefreshTokenTTL time.Duration

	// RateLimit configures per-IP rate limiting on the refresh endpoint.
	RateLimit RateLimitConfig

	// Security holds optional hardening settings.
	Security SecurityConfig

	// Instrumentation enables OpenTelemetry metrics and tracing.
	// Nil runs without instrumentation.
	Instrumentation *instrumentation.Instrumentation

	// Logger for structured logging. Default: slog.Default().
	Logger *slog.Logger
}

// RateLimitConfig holds rate limiting configuration for the refresh endpoint.
type RateLimitConfig struct {
	// Rate is refresh requests per second allowed per IP. Zero disables limiting.
	Rate int

	// Burst is the maximum burst size allowed per IP.
	Burst int

	// TrustProxy enables trusting X-Forwarded-For and X-Real-IP headers.
	// Only enable behind a trusted reverse proxy.
	TrustProxy bool

	// TrustedProxyCount is the number of trusted proxies in front of the
	// gateway, used to pick the client IP out of X-Forwarded-For. Default: 1.
	TrustedProxyCount int
}

// SecurityConfig holds optional security hardening settings.
type SecurityConfig struct {
	// CookieSealKey is a 32-byte secretbox key used to seal the
	// refresh-token cookie value. Nil stores the provider's token verbatim.
	// Generate with security.GenerateSealKey().
	CookieSealKey []byte

	// EnableAuditLogging enables security audit logging of CSRF failures,
	// refresh failures, and provider misconfiguration (token material hashed).
	EnableAuditLogging bool
}

// Validate checks the configuration and reports the first problem found.
func (c *Config) Validate() error {
	if c.ProviderID == "" {
		return fmt.Errorf("provider ID is required")
	}
	if strings.ContainsAny(c.ProviderID, "/ \t\r\n") {
		return fmt.Errorf("provider ID %q must not contain slashes or whitespace", c.ProviderID)
	}
	if c.BasePath != "" && !strings.HasPrefix(c.BasePath, "/") {
		return fmt.Errorf("base path %q must start with /", c.BasePath)
	}
	if key := c.Security.CookieSealKey; key != nil && len(key) != 32 {
		return fmt.Errorf("cookie seal key must be exactly 32 bytes, got %d", len(key))
	}
	if c.RateLimit.Rate < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate limit values must not be negative")
	}
	return nil
}

// applyDefaults fills in zero-valued fields. Called by NewHandler after
// Validate, so handlers never see a partially configured Config.
func (c *Config) applyDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/auth"
	}
	c.BasePath = strings.TrimSuffix(c.BasePath, "/")
	if c.CookieSecure == nil {
		secure := true
		c.CookieSecure = &secure
	}
	if c.CookieSameSite == 0 {
		c.CookieSameSite = http.SameSiteLaxMode
	}
	if c.TrustedHeaderValue == "" {
		c.TrustedHeaderValue = DefaultTrustedHeaderValue
	}
	if c.NonceTTL == 0 {
		c.NonceTTL = DefaultNonceTTL
	}
	if c.RefreshTokenTTL == 0 {
		c.RefreshTokenTTL = DefaultRefreshTokenTTL
	}
	if c.RateLimit.TrustedProxyCount == 0 {
		c.RateLimit.TrustedProxyCount = 1
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// providerPath returns the path prefix for this provider's routes,
// e.g. "/auth/google".
func (c *Config) providerPath() string {
	return c.BasePath + "/" + c.ProviderID
}
