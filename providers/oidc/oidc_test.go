package oidc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

// fakeIdP serves discovery, token, and userinfo endpoints for a full flow.
func fakeIdP(t *testing.T) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(DiscoveryDocument{
			Issuer:                srv.URL,
			AuthorizationEndpoint: srv.URL + "/auth",
			TokenEndpoint:         srv.URL + "/token",
			UserInfoEndpoint:      srv.URL + "/userinfo",
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "oidc-access-token",
			"token_type":    "Bearer",
			"refresh_token": "oidc-refresh-token",
			"id_token":      "oidc-id-token",
			"expires_in":    3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"sub":            "subject-1",
			"email":          "subject@example.com",
			"email_verified": true,
			"name":           "Subject One",
		})
	})

	srv = httptest.NewServer(mux)
	return srv
}

func newTestProvider(t *testing.T, srv *httptest.Server) *Provider {
	t.Helper()
	p, err := NewProvider(&Config{
		IssuerURL:      srv.URL,
		ClientID:       "client",
		ClientSecret:   "secret",
		RedirectURL:    "https://gateway.example.com/auth/oidc/handler/frame",
		HTTPClient:     srv.Client(),
		skipValidation: true,
	})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	return p
}

func TestNewProvider_Validation(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{name: "missing issuer", config: Config{ClientID: "c", ClientSecret: "s"}},
		{name: "missing client ID", config: Config{IssuerURL: "https://idp.example.com", ClientSecret: "s"}},
		{name: "missing client secret", config: Config{IssuerURL: "https://idp.example.com", ClientID: "c"}},
		{name: "HTTP issuer", config: Config{IssuerURL: "http://idp.example.com", ClientID: "c", ClientSecret: "s"}},
		{name: "private issuer", config: Config{IssuerURL: "https://10.0.0.5", ClientID: "c", ClientSecret: "s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewProvider(&tt.config); err == nil {
				t.Error("expected error but got nil")
			}
		})
	}
}

func TestProvider_Name(t *testing.T) {
	srv := fakeIdP(t)
	defer srv.Close()

	if got := newTestProvider(t, srv).Name(); got != "oidc" {
		t.Errorf("Name = %q", got)
	}
}

func TestProvider_AuthCodeURL(t *testing.T) {
	srv := fakeIdP(t)
	defer srv.Close()
	p := newTestProvider(t, srv)

	raw := p.AuthCodeURL("nonce-xyz", nil)
	if raw == "" {
		t.Fatal("AuthCodeURL returned empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid auth URL: %v", err)
	}
	if !strings.HasPrefix(raw, srv.URL+"/auth") {
		t.Errorf("auth URL %q does not use the discovered endpoint", raw)
	}

	q := u.Query()
	if q.Get("state") != "nonce-xyz" {
		t.Error("state not carried through")
	}
	if q.Get("access_type") != "offline" || q.Get("prompt") != "consent" {
		t.Error("offline access and forced consent not requested")
	}
	if got := q.Get("scope"); !strings.Contains(got, "offline_access") {
		t.Errorf("scope = %q, want the default offline_access", got)
	}
}

func TestProvider_RequestedScopesAreBounded(t *testing.T) {
	srv := fakeIdP(t)
	defer srv.Close()
	p := newTestProvider(t, srv)

	tooMany := make([]string, 51)
	for i := range tooMany {
		tooMany[i] = "scope"
	}
	oversized := []string{strings.Repeat("a", 257)}

	t.Run("auth URL", func(t *testing.T) {
		if got := p.AuthCodeURL("nonce", tooMany); got != "" {
			t.Errorf("AuthCodeURL = %q, want empty for 51 scopes", got)
		}
		if got := p.AuthCodeURL("nonce", oversized); got != "" {
			t.Errorf("AuthCodeURL = %q, want empty for an oversized scope", got)
		}
	})

	t.Run("refresh", func(t *testing.T) {
		if _, err := p.Refresh(context.Background(), "rt", tooMany); err == nil {
			t.Error("expected error for 51 scopes on refresh")
		}
		if _, err := p.Refresh(context.Background(), "rt", oversized); err == nil {
			t.Error("expected error for an oversized scope on refresh")
		}
	})
}

func TestProvider_AuthCodeURL_DiscoveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	p := newTestProvider(t, srv)
	if got := p.AuthCodeURL("nonce", nil); got != "" {
		t.Errorf("AuthCodeURL = %q, want empty on discovery failure", got)
	}
}

func TestProvider_Exchange(t *testing.T) {
	srv := fakeIdP(t)
	defer srv.Close()
	p := newTestProvider(t, srv)

	grant, err := p.Exchange(context.Background(), "the-code")
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}

	if grant.AccessToken != "oidc-access-token" {
		t.Errorf("AccessToken = %q", grant.AccessToken)
	}
	if grant.RefreshToken != "oidc-refresh-token" {
		t.Errorf("RefreshToken = %q", grant.RefreshToken)
	}
	if grant.IDToken != "oidc-id-token" {
		t.Errorf("IDToken = %q", grant.IDToken)
	}
	if grant.Profile == nil {
		t.Fatal("profile not fetched from the discovered userinfo endpoint")
	}
	if grant.Profile.ID != "subject-1" || grant.Profile.Email != "subject@example.com" {
		t.Errorf("profile = %+v", grant.Profile)
	}
}

func TestProvider_ExchangeSurvivesUserInfoFailure(t *testing.T) {
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(DiscoveryDocument{
			Issuer:                srv.URL,
			AuthorizationEndpoint: srv.URL + "/auth",
			TokenEndpoint:         srv.URL + "/token",
			UserInfoEndpoint:      srv.URL + "/userinfo",
		})
	})
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at", "token_type": "Bearer", "refresh_token": "rt",
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	p := newTestProvider(t, srv)
	grant, err := p.Exchange(context.Background(), "the-code")
	if err != nil {
		t.Fatalf("Exchange failed: %v", err)
	}
	if grant.AccessToken != "at" {
		t.Errorf("AccessToken = %q", grant.AccessToken)
	}
	if grant.Profile != nil {
		t.Error("profile should be nil when userinfo is down")
	}
}

func TestProvider_Refresh(t *testing.T) {
	srv := fakeIdP(t)
	defer srv.Close()
	p := newTestProvider(t, srv)

	grant, err := p.Refresh(context.Background(), "stored-token", nil)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if grant.AccessToken != "oidc-access-token" {
		t.Errorf("AccessToken = %q", grant.AccessToken)
	}
}
