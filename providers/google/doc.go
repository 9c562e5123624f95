// Package google implements the provider adapter for Google OAuth2/OIDC.
//
// It requests offline access with forced consent so Google reissues a
// refresh token on every login, and resolves the user's profile from the
// OIDC userinfo endpoint during the code exchange.
package google
