// Package helpers provides small utilities shared across the adapter,
// currently IP address classification for SSRF protection in OIDC
// discovery.
package helpers
