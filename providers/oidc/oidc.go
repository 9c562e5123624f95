package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/authbridge/idp-oauth/providers"
)

// Provider implements providers.Provider for any OIDC-compliant IdP.
// Authorization and token endpoints are resolved via discovery on first use
// and cached for the lifetime of the discovery client's TTL.
type Provider struct {
	issuerURL       string
	clientID        string
	clientSecret    string
	redirectURL     string
	scopes          []string
	discoveryClient *DiscoveryClient
	httpClient      *http.Client
	logger          *slog.Logger
}

// Config holds generic OIDC provider configuration
type Config struct {
	// IssuerURL is the OIDC issuer (e.g., https://accounts.example.com).
	// Endpoints are discovered from {IssuerURL}/.well-known/openid-configuration.
	IssuerURL string

	// ClientID is the OAuth client ID
	ClientID string

	// ClientSecret is the OAuth client secret
	ClientSecret string

	// RedirectURL is the gateway's callback URL for this provider
	RedirectURL string

	// Scopes defaults to ["openid", "profile", "email", "offline_access"]
	Scopes []string

	// HTTPClient is an optional custom HTTP client
	HTTPClient *http.Client

	// DiscoveryCacheTTL bounds how long discovered endpoints are reused.
	// Default: 1 hour.
	DiscoveryCacheTTL time.Duration

	// Logger for structured logging
	Logger *slog.Logger

	// skipValidation disables issuer SSRF validation.
	// INTERNAL USE ONLY: for tests running against localhost servers.
	skipValidation bool
}

// NewProvider creates a generic OIDC provider. Discovery is deferred to the
// first flow operation so construction never blocks on the network.
func NewProvider(cfg *Config) (*Provider, error) {
	if cfg.IssuerURL == "" {
		return nil, fmt.Errorf("issuer URL is required")
	}
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("client secret is required")
	}
	if !cfg.skipValidation {
		if err := ValidateIssuerURL(cfg.IssuerURL); err != nil {
			return nil, err
		}
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "profile", "email", "offline_access"}
	}
	if err := ValidateScopes(scopes); err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dc := NewDiscoveryClient(httpClient, cfg.DiscoveryCacheTTL, logger)
	dc.skipValidation = cfg.skipValidation

	return &Provider{
		issuerURL:       cfg.IssuerURL,
		clientID:        cfg.ClientID,
		clientSecret:    cfg.ClientSecret,
		redirectURL:     cfg.RedirectURL,
		scopes:          scopes,
		discoveryClient: dc,
		httpClient:      httpClient,
		logger:          logger,
	}, nil
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "oidc"
}

// oauth2Config assembles an oauth2.Config from discovered endpoints.
func (p *Provider) oauth2Config(ctx context.Context, scopes []string) (*oauth2.Config, *DiscoveryDocument, error) {
	doc, err := p.discoveryClient.Discover(ctx, p.issuerURL)
	if err != nil {
		return nil, nil, fmt.Errorf("endpoint discovery failed: %w", err)
	}

	if len(scopes) == 0 {
		scopes = p.scopes
	} else if err := ValidateScopes(scopes); err != nil {
		// Caller-supplied scopes come straight from the start request.
		return nil, nil, fmt.Errorf("invalid requested scopes: %w", err)
	}

	return &oauth2.Config{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		RedirectURL:  p.redirectURL,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  doc.AuthorizationEndpoint,
			TokenURL: doc.TokenEndpoint,
		},
	}, doc, nil
}

// AuthCodeURL builds the consent URL with offline access and forced consent.
// Discovery uses a short internal timeout because start handlers have no
// request body to wait on.
func (p *Provider) AuthCodeURL(state string, scopes []string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, _, err := p.oauth2Config(ctx, scopes)
	if err != nil {
		p.logger.Error("failed to build authorization URL", "issuer", p.issuerURL, "error", err)
		return ""
	}
	return cfg.AuthCodeURL(state, providers.OfflineAccessOptions()...)
}

// Exchange trades an authorization code for tokens, fetching the user's
// profile when the IdP advertises a userinfo endpoint.
func (p *Provider) Exchange(ctx context.Context, code string) (*providers.Grant, error) {
	cfg, doc, err := p.oauth2Config(ctx, nil)
	if err != nil {
		return nil, err
	}

	token, err := providers.ExchangeCode(ctx, cfg, p.httpClient, code)
	if err != nil {
		return nil, err
	}

	grant := providers.GrantFromToken(token)

	if doc.UserInfoEndpoint != "" {
		profile, err := p.fetchUserInfo(ctx, cfg, doc.UserInfoEndpoint, token)
		if err != nil {
			// Identity is in the id_token; a userinfo failure should not
			// fail the whole login.
			p.logger.Warn("userinfo fetch failed", "issuer", p.issuerURL, "error", err)
		} else {
			grant.Profile = profile
		}
	}

	return grant, nil
}

// Refresh exchanges a refresh token for a fresh access token.
func (p *Provider) Refresh(ctx context.Context, refreshToken string, scopes []string) (*providers.Grant, error) {
	if len(scopes) > 0 {
		if err := ValidateScopes(scopes); err != nil {
			return nil, fmt.Errorf("invalid requested scopes: %w", err)
		}
	}

	cfg, _, err := p.oauth2Config(ctx, nil)
	if err != nil {
		return nil, err
	}

	token, err := providers.RefreshGrant(ctx, cfg, p.httpClient, refreshToken, scopes)
	if err != nil {
		return nil, err
	}
	return providers.GrantFromToken(token), nil
}

// fetchUserInfo resolves the user's profile from the discovered endpoint.
func (p *Provider) fetchUserInfo(ctx context.Context, cfg *oauth2.Config, endpoint string, token *oauth2.Token) (*providers.UserInfo, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	client := cfg.Client(ctx, token)

	resp, err := client.Get(endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request failed with status %d", resp.StatusCode)
	}

	var claims struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo: %w", err)
	}

	return &providers.UserInfo{
		ID:            claims.Sub,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		Picture:       claims.Picture,
	}, nil
}
