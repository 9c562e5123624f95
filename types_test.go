package oauth

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/authbridge/idp-oauth/providers"
)

func TestSessionResult_RefreshTokenNeverSerialized(t *testing.T) {
	session := &SessionResult{
		Profile:          &providers.UserInfo{ID: "user-1", Email: "u@example.com"},
		IDToken:          "id-token",
		AccessToken:      "access-token",
		RefreshToken:     "super-secret-refresh-token",
		Scope:            "openid email",
		ExpiresInSeconds: 3600,
	}

	raw, err := json.Marshal(session)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	body := string(raw)
	if strings.Contains(body, "super-secret-refresh-token") {
		t.Error("refresh token leaked into serialized session")
	}
	if !strings.Contains(body, `"accessToken":"access-token"`) {
		t.Errorf("access token missing from serialized session: %s", body)
	}
	if !strings.Contains(body, `"idToken":"id-token"`) {
		t.Errorf("id token missing from serialized session: %s", body)
	}
}

func TestSessionFromGrant(t *testing.T) {
	grant := &providers.Grant{
		AccessToken:  "at",
		RefreshToken: "rt",
		IDToken:      "idt",
		Scope:        "openid",
		ExpiresIn:    1800,
		Profile:      &providers.UserInfo{ID: "user-1"},
	}

	session := sessionFromGrant(grant)

	if session.AccessToken != "at" || session.RefreshToken != "rt" || session.IDToken != "idt" {
		t.Error("token fields not carried over")
	}
	if session.Scope != "openid" || session.ExpiresInSeconds != 1800 {
		t.Error("scope or expiry not carried over")
	}
	if session.Profile != grant.Profile {
		t.Error("profile not carried over")
	}
}

func TestRefreshResponse_FieldNames(t *testing.T) {
	raw, err := json.Marshal(&RefreshResponse{
		AccessToken:      "at",
		IDToken:          "idt",
		ExpiresInSeconds: 3600,
		Scope:            "openid",
	})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	for _, field := range []string{`"accessToken"`, `"idToken"`, `"expiresInSeconds"`, `"scope"`} {
		if !strings.Contains(string(raw), field) {
			t.Errorf("serialized response lacks %s: %s", field, raw)
		}
	}
}

func TestFrameMessage_Shape(t *testing.T) {
	t.Run("success message", func(t *testing.T) {
		raw, err := json.Marshal(&frameMessage{
			Type:    frameMessageType,
			Payload: &SessionResult{AccessToken: "at"},
		})
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if !strings.Contains(string(raw), `"type":"auth-result"`) {
			t.Errorf("message type missing: %s", raw)
		}
		if strings.Contains(string(raw), `"error"`) {
			t.Errorf("success message must omit the error field: %s", raw)
		}
	})

	t.Run("error message", func(t *testing.T) {
		raw, err := json.Marshal(&frameMessage{
			Type:  frameMessageType,
			Error: &frameError{Message: "Missing refresh token"},
		})
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if !strings.Contains(string(raw), `"message":"Missing refresh token"`) {
			t.Errorf("error message missing: %s", raw)
		}
		if strings.Contains(string(raw), `"payload"`) {
			t.Errorf("error message must omit the payload field: %s", raw)
		}
	})
}
