// Package instrumentation provides OpenTelemetry metrics and tracing for
// the IdP adapter.
//
// The package is optional: when no Instrumentation is configured, the
// adapter runs with zero observability overhead via no-op providers.
// Metrics cover the HTTP layer (request counts and latencies per endpoint),
// the flow layer (logins started, callbacks processed, tokens refreshed,
// logouts), security events (CSRF failures, rate limiting), and provider
// API calls. Tracing covers the provider exchange and refresh round-trips,
// the slow parts of every flow.
//
// Credential values (tokens, codes, nonces) are never attached to spans or
// metrics; only metadata like provider names, endpoints, and outcomes.
package instrumentation
