package google

import (
	"net/url"
	"strings"
	"testing"
)

func TestNewProvider_Validation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid config",
			config: Config{ClientID: "id", ClientSecret: "secret"},
		},
		{
			name:    "missing client ID",
			config:  Config{ClientSecret: "secret"},
			wantErr: true,
		},
		{
			name:    "missing client secret",
			config:  Config{ClientID: "id"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(&tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewProvider error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProvider_Name(t *testing.T) {
	p, err := NewProvider(&Config{ClientID: "id", ClientSecret: "secret"})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	if p.Name() != "google" {
		t.Errorf("Name = %q", p.Name())
	}
}

func TestProvider_AuthCodeURL(t *testing.T) {
	p, err := NewProvider(&Config{
		ClientID:     "id",
		ClientSecret: "secret",
		RedirectURL:  "https://gateway.example.com/auth/google/handler/frame",
	})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}

	raw := p.AuthCodeURL("nonce-abc", nil)
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid auth URL: %v", err)
	}

	if !strings.Contains(u.Host, "google") {
		t.Errorf("host = %q, want a Google endpoint", u.Host)
	}

	q := u.Query()
	if q.Get("state") != "nonce-abc" {
		t.Error("state not carried through")
	}
	if q.Get("access_type") != "offline" {
		t.Error("offline access not requested")
	}
	if q.Get("prompt") != "consent" {
		t.Error("consent not forced")
	}
	if got := q.Get("scope"); !strings.Contains(got, "openid") || !strings.Contains(got, "email") {
		t.Errorf("scope = %q, want the default openid/email/profile", got)
	}
	if q.Get("redirect_uri") != "https://gateway.example.com/auth/google/handler/frame" {
		t.Errorf("redirect_uri = %q", q.Get("redirect_uri"))
	}
}

func TestProvider_AuthCodeURL_ScopeOverride(t *testing.T) {
	p, err := NewProvider(&Config{ClientID: "id", ClientSecret: "secret"})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}

	raw := p.AuthCodeURL("nonce-abc", []string{"openid", "https://www.googleapis.com/auth/drive.readonly"})
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("invalid auth URL: %v", err)
	}

	if got := u.Query().Get("scope"); !strings.Contains(got, "drive.readonly") {
		t.Errorf("scope = %q, override not applied", got)
	}
}
