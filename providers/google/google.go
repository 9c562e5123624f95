package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/authbridge/idp-oauth/providers"
)

// userInfoEndpoint is Google's OIDC userinfo endpoint.
const userInfoEndpoint = "https://openidconnect.googleapis.com/v1/userinfo"

// Provider implements the providers.Provider interface for Google.
type Provider struct {
	config     *oauth2.Config
	httpClient *http.Client
}

// Config holds Google OAuth configuration
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	HTTPClient   *http.Client // Optional custom HTTP client
}

// NewProvider creates a new Google OAuth provider
func NewProvider(cfg *Config) (*Provider, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("client secret is required")
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "email", "profile"}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     google.Endpoint,
		},
		httpClient: httpClient,
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "google"
}

// AuthCodeURL generates the Google consent-screen URL. Offline access and
// forced consent are always requested so Google reissues a refresh token
// even for users who already authorized this client.
func (p *Provider) AuthCodeURL(state string, scopes []string) string {
	opts := providers.OfflineAccessOptions()

	if len(scopes) > 0 {
		scoped := *p.config
		scoped.Scopes = scopes
		return scoped.AuthCodeURL(state, opts...)
	}
	return p.config.AuthCodeURL(state, opts...)
}

// Exchange trades an authorization code for tokens and fetches the user's
// profile from the userinfo endpoint.
func (p *Provider) Exchange(ctx context.Context, code string) (*providers.Grant, error) {
	token, err := providers.ExchangeCode(ctx, p.config, p.httpClient, code)
	if err != nil {
		return nil, err
	}

	grant := providers.GrantFromToken(token)

	profile, err := p.fetchUserInfo(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user info: %w", err)
	}
	grant.Profile = profile

	return grant, nil
}

// Refresh exchanges a refresh token for a fresh access token.
func (p *Provider) Refresh(ctx context.Context, refreshToken string, scopes []string) (*providers.Grant, error) {
	token, err := providers.RefreshGrant(ctx, p.config, p.httpClient, refreshToken, scopes)
	if err != nil {
		return nil, err
	}
	return providers.GrantFromToken(token), nil
}

// fetchUserInfo calls Google's userinfo endpoint with the freshly issued token.
func (p *Provider) fetchUserInfo(ctx context.Context, token *oauth2.Token) (*providers.UserInfo, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	client := p.config.Client(ctx, token)

	resp, err := client.Get(userInfoEndpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request failed with status %d", resp.StatusCode)
	}

	var googleUserInfo struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&googleUserInfo); err != nil {
		return nil, fmt.Errorf("failed to decode user info: %w", err)
	}

	return &providers.UserInfo{
		ID:            googleUserInfo.Sub,
		Email:         googleUserInfo.Email,
		EmailVerified: googleUserInfo.EmailVerified,
		Name:          googleUserInfo.Name,
		Picture:       googleUserInfo.Picture,
	}, nil
}
