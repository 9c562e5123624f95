package providers

import (
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestGrantFromToken(t *testing.T) {
	t.Run("extracts OIDC extras", func(t *testing.T) {
		token := (&oauth2.Token{
			AccessToken:  "at",
			RefreshToken: "rt",
		}).WithExtra(map[string]interface{}{
			"id_token": "idt",
			"scope":    "openid email",
		})

		g := GrantFromToken(token)

		if g.AccessToken != "at" || g.RefreshToken != "rt" {
			t.Error("token fields not carried over")
		}
		if g.IDToken != "idt" {
			t.Errorf("IDToken = %q, want idt", g.IDToken)
		}
		if g.Scope != "openid email" {
			t.Errorf("Scope = %q", g.Scope)
		}
	})

	t.Run("derives expiry from Expiry field", func(t *testing.T) {
		token := &oauth2.Token{
			AccessToken: "at",
			Expiry:      time.Now().Add(time.Hour),
		}

		g := GrantFromToken(token)

		if g.ExpiresIn < 3590 || g.ExpiresIn > 3600 {
			t.Errorf("ExpiresIn = %d, want ~3600", g.ExpiresIn)
		}
	})

	t.Run("prefers verbatim expires_in", func(t *testing.T) {
		token := (&oauth2.Token{
			AccessToken: "at",
			Expiry:      time.Now().Add(time.Hour),
		}).WithExtra(map[string]interface{}{
			"expires_in": float64(1800),
		})

		g := GrantFromToken(token)

		if g.ExpiresIn != 1800 {
			t.Errorf("ExpiresIn = %d, want the IdP's verbatim 1800", g.ExpiresIn)
		}
	})

	t.Run("zero expiry means zero", func(t *testing.T) {
		g := GrantFromToken(&oauth2.Token{AccessToken: "at"})
		if g.ExpiresIn != 0 {
			t.Errorf("ExpiresIn = %d, want 0", g.ExpiresIn)
		}
	})

	t.Run("missing refresh token stays empty", func(t *testing.T) {
		g := GrantFromToken(&oauth2.Token{AccessToken: "at"})
		if g.RefreshToken != "" {
			t.Errorf("RefreshToken = %q, want empty", g.RefreshToken)
		}
	})
}
