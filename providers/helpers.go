package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// OfflineAccessOptions are the auth-code URL options every adapter passes so
// the IdP reissues a refresh token even on repeat logins: offline access plus
// forced consent. Without prompt=consent most IdPs only grant a refresh token
// on the very first authorization.
func OfflineAccessOptions() []oauth2.AuthCodeOption {
	return []oauth2.AuthCodeOption{
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	}
}

// ExchangeCode is a shared helper for trading an authorization code for
// tokens. It wires the adapter's HTTP client into the oauth2 context and
// wraps errors consistently.
func ExchangeCode(ctx context.Context, config *oauth2.Config, httpClient *http.Client, code string) (*oauth2.Token, error) {
	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return token, nil
}

// RefreshGrant is a shared helper for the refresh-token grant. scopes, when
// non-empty, narrows the requested scope for the new access token.
//
// The returned token may or may not carry a new refresh token; callers that
// follow the gateway's no-rotation policy ignore it.
func RefreshGrant(ctx context.Context, config *oauth2.Config, httpClient *http.Client, refreshToken string, scopes []string) (*oauth2.Token, error) {
	if len(scopes) > 0 {
		// x/oauth2's refresh TokenSource sends only grant_type and
		// refresh_token, so a narrowed scope has to go out as a hand-built
		// token request.
		return refreshWithScope(ctx, config, httpClient, refreshToken, scopes)
	}

	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}

	source := config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	return token, nil
}

// refreshWithScope posts the refresh-token grant directly so the scope
// parameter actually reaches the IdP's token endpoint.
func refreshWithScope(ctx context.Context, config *oauth2.Config, httpClient *http.Client, refreshToken string, scopes []string) (*oauth2.Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("scope", strings.Join(scopes, " "))
	if config.Endpoint.AuthStyle == oauth2.AuthStyleInParams {
		form.Set("client_id", config.ClientID)
		form.Set("client_secret", config.ClientSecret)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if config.Endpoint.AuthStyle != oauth2.AuthStyleInParams {
		req.SetBasicAuth(url.QueryEscape(config.ClientID), url.QueryEscape(config.ClientSecret))
	}

	client := httpClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("refresh token request failed with status %d: %s", resp.StatusCode, body)
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}

	token := &oauth2.Token{RefreshToken: refreshToken}
	if v, ok := payload["access_token"].(string); ok {
		token.AccessToken = v
	}
	if v, ok := payload["token_type"].(string); ok {
		token.TokenType = v
	}
	if v, ok := payload["refresh_token"].(string); ok && v != "" {
		token.RefreshToken = v
	}
	if v, ok := payload["expires_in"].(float64); ok && v > 0 {
		token.Expiry = time.Now().Add(time.Duration(v) * time.Second)
	}
	return token.WithExtra(payload), nil
}
