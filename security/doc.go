// Package security provides the gateway adapter's security primitives:
// the trusted-request header check, per-IP rate limiting, cookie sealing,
// audit logging with token redaction, client IP extraction, request IDs,
// and response security headers.
//
// The trusted-request check deserves a note: it verifies that a custom
// header (X-Requested-With by default) is present with the expected value.
// Browsers only attach custom headers to same-origin script-initiated
// requests, so the check filters out plain cross-site form posts. It is a
// documented, intentionally lightweight guard — the nonce mechanism in the
// core package is the real CSRF defense for the authorization flow.
package security
