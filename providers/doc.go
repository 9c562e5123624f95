// Package providers contains the strategy adapters that connect the gateway
// core to external identity providers.
//
// The core (package oauth) drives the browser-facing flow — nonce cookies,
// the callback frame, the refresh-token cookie — and delegates every network
// exchange with the IdP to a Provider. Adapters own the oauth2.Config, the
// consent parameters, and the mapping from provider-specific token response
// fields into the normalized Grant.
//
// Available adapters:
//   - providers/google: Google OAuth2/OIDC
//   - providers/oidc: any OIDC provider, endpoints resolved via discovery
//   - providers/mock: configurable fake for tests
//
// Implementing a new adapter means satisfying the three-method Provider
// interface; the shared helpers in this package cover the oauth2 plumbing.
package providers
