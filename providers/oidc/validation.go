package oidc

import (
	"fmt"
	"net"
	"net/url"

	"github.com/authbridge/idp-oauth/internal/helpers"
)

// ValidateIssuerURL validates an OIDC issuer URL with SSRF protection.
// HTTPS is enforced, and loopback, private, link-local, and unspecified
// addresses are rejected so discovery can never be pointed at internal
// services or cloud metadata endpoints.
func ValidateIssuerURL(issuerURL string) error {
	u, err := url.Parse(issuerURL)
	if err != nil {
		return fmt.Errorf("invalid issuer URL: %w", err)
	}

	if u.Scheme != "https" {
		return fmt.Errorf("issuer URL must use HTTPS, got %q", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("issuer URL must have a hostname")
	}

	if ip := net.ParseIP(host); ip != nil {
		switch class := helpers.ClassifyIP(ip); class {
		case helpers.IPClassificationPublic:
			// OK
		default:
			return fmt.Errorf("issuer URL must not point to %s addresses", class)
		}
	}

	return nil
}

// ValidateScopes bounds the scope list to keep a hostile start request from
// turning into an oversized authorization URL.
func ValidateScopes(scopes []string) error {
	if len(scopes) > 50 {
		return fmt.Errorf("too many scopes (max 50, got %d)", len(scopes))
	}

	for i, scope := range scopes {
		if scope == "" {
			return fmt.Errorf("scope at index %d is empty", i)
		}
		if len(scope) > 256 {
			return fmt.Errorf("scope at index %d exceeds maximum length of 256 characters", i)
		}
	}

	return nil
}
