// Package oidc implements a provider adapter for any OIDC-compliant
// identity provider, resolving endpoints through OIDC discovery
// (/.well-known/openid-configuration) with SSRF-safe issuer validation.
package oidc
