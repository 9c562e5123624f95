package oauth

import (
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:   "valid minimal config",
			config: Config{ProviderID: "google"},
		},
		{
			name:    "missing provider ID",
			config:  Config{},
			wantErr: "provider ID is required",
		},
		{
			name:    "provider ID with slash",
			config:  Config{ProviderID: "goo/gle"},
			wantErr: "must not contain",
		},
		{
			name:    "provider ID with whitespace",
			config:  Config{ProviderID: "goo gle"},
			wantErr: "must not contain",
		},
		{
			name:    "base path without leading slash",
			config:  Config{ProviderID: "google", BasePath: "auth"},
			wantErr: "must start with /",
		},
		{
			name: "seal key wrong length",
			config: Config{
				ProviderID: "google",
				Security:   SecurityConfig{CookieSealKey: make([]byte, 16)},
			},
			wantErr: "32 bytes",
		},
		{
			name: "negative rate limit",
			config: Config{
				ProviderID: "google",
				RateLimit:  RateLimitConfig{Rate: -1},
			},
			wantErr: "must not be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error but got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{ProviderID: "google"}
	cfg.applyDefaults()

	if cfg.BasePath != "/auth" {
		t.Errorf("BasePath = %q, want /auth", cfg.BasePath)
	}
	if cfg.CookieSecure == nil || !*cfg.CookieSecure {
		t.Error("CookieSecure should default to true")
	}
	if cfg.CookieSameSite != http.SameSiteLaxMode {
		t.Error("CookieSameSite should default to Lax")
	}
	if cfg.TrustedHeaderValue != DefaultTrustedHeaderValue {
		t.Errorf("TrustedHeaderValue = %q, want %q", cfg.TrustedHeaderValue, DefaultTrustedHeaderValue)
	}
	if cfg.NonceTTL != 10*time.Minute {
		t.Errorf("NonceTTL = %v, want 10m", cfg.NonceTTL)
	}
	if cfg.RefreshTokenTTL != 1000*24*time.Hour {
		t.Errorf("RefreshTokenTTL = %v, want 1000 days", cfg.RefreshTokenTTL)
	}
	if cfg.RateLimit.TrustedProxyCount != 1 {
		t.Errorf("TrustedProxyCount = %d, want 1", cfg.RateLimit.TrustedProxyCount)
	}
	if cfg.Logger == nil {
		t.Error("Logger should default to slog.Default()")
	}
}

func TestConfigApplyDefaults_PreservesExplicitValues(t *testing.T) {
	secure := false
	cfg := Config{
		ProviderID:         "google",
		BasePath:           "/login/",
		CookieSecure:       &secure,
		CookieSameSite:     http.SameSiteStrictMode,
		TrustedHeaderValue: "fetch",
		NonceTTL:           time.Minute,
		RefreshTokenTTL:    time.Hour,
	}
	cfg.applyDefaults()

	if cfg.BasePath != "/login" {
		t.Errorf("BasePath = %q, want trailing slash trimmed", cfg.BasePath)
	}
	if *cfg.CookieSecure {
		t.Error("explicit CookieSecure=false was overridden")
	}
	if cfg.CookieSameSite != http.SameSiteStrictMode {
		t.Error("explicit SameSite was overridden")
	}
	if cfg.TrustedHeaderValue != "fetch" {
		t.Error("explicit TrustedHeaderValue was overridden")
	}
	if cfg.NonceTTL != time.Minute || cfg.RefreshTokenTTL != time.Hour {
		t.Error("explicit TTLs were overridden")
	}
}

func TestProviderPath(t *testing.T) {
	cfg := Config{ProviderID: "google"}
	cfg.applyDefaults()

	if got := cfg.providerPath(); got != "/auth/google" {
		t.Errorf("providerPath() = %q, want /auth/google", got)
	}

	cfg = Config{ProviderID: "okta", BasePath: "/sso"}
	cfg.applyDefaults()

	if got := cfg.providerPath(); got != "/sso/okta" {
		t.Errorf("providerPath() = %q, want /sso/okta", got)
	}
}
