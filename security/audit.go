package security

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"
)

// Event type constants for security audit logging.
const (
	// EventLoginStarted is logged when an authorization flow begins
	EventLoginStarted = "login_started"

	// EventLoginCompleted is logged when a callback completes successfully
	EventLoginCompleted = "login_completed"

	// EventCSRFFailure is logged on a missing/mismatched nonce or a
	// missing/wrong trusted-request header
	EventCSRFFailure = "csrf_failure"

	// EventExchangeFailure is logged when the IdP rejects a token exchange
	EventExchangeFailure = "exchange_failure"

	// EventMissingRefreshToken is logged when the IdP grants no refresh
	// token: a provider misconfiguration, not a transient failure
	EventMissingRefreshToken = "missing_refresh_token" //nolint:gosec // G101: event type name, not a credential

	// EventTokenRefreshed is logged when a refresh grant succeeds
	EventTokenRefreshed = "token_refreshed"

	// EventRefreshFailure is logged when a refresh grant fails
	EventRefreshFailure = "refresh_failure"

	// EventLogout is logged when the refresh-token cookie is cleared
	EventLogout = "logout"

	// EventRateLimitExceeded is logged when the refresh rate limit is hit
	EventRateLimitExceeded = "rate_limit_exceeded"
)

// Auditor handles security event logging. Token material and user IDs are
// hashed before they reach the log stream.
type Auditor struct {
	logger  *slog.Logger
	enabled bool
}

// NewAuditor creates a new security auditor
func NewAuditor(logger *slog.Logger, enabled bool) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{
		logger:  logger,
		enabled: enabled,
	}
}

// Event represents a security audit event
type Event struct {
	Type       string
	ProviderID string
	UserID     string
	IPAddress  string
	RequestID  string
	Details    map[string]any
	Timestamp  time.Time
}

// LogEvent logs a security event with hashed PII
func (a *Auditor) LogEvent(event Event) {
	if a == nil || !a.enabled {
		return
	}

	event.Timestamp = time.Now()

	a.logger.Info("security_audit",
		"event_type", event.Type,
		"provider_id", event.ProviderID,
		"user_id_hash", HashForLogging(event.UserID),
		"ip_address", event.IPAddress,
		"request_id", event.RequestID,
		"details", event.Details,
		"timestamp", event.Timestamp,
	)
}

// LogCSRFFailure logs a nonce or trusted-header check failure
func (a *Auditor) LogCSRFFailure(providerID, ipAddress, requestID, reason string) {
	a.LogEvent(Event{
		Type:       EventCSRFFailure,
		ProviderID: providerID,
		IPAddress:  ipAddress,
		RequestID:  requestID,
		Details: map[string]any{
			"reason": reason,
		},
	})
}

// LogMissingRefreshToken logs a provider misconfiguration: the IdP
// completed the exchange but granted no refresh token.
func (a *Auditor) LogMissingRefreshToken(providerID, ipAddress, requestID string) {
	a.LogEvent(Event{
		Type:       EventMissingRefreshToken,
		ProviderID: providerID,
		IPAddress:  ipAddress,
		RequestID:  requestID,
		Details: map[string]any{
			"hint": "check offline access and consent configuration at the IdP",
		},
	})
}

// LogTokenRefreshed logs a successful refresh grant
func (a *Auditor) LogTokenRefreshed(providerID, ipAddress, requestID string) {
	a.LogEvent(Event{
		Type:       EventTokenRefreshed,
		ProviderID: providerID,
		IPAddress:  ipAddress,
		RequestID:  requestID,
	})
}

// LogRefreshFailure logs a failed refresh grant
func (a *Auditor) LogRefreshFailure(providerID, ipAddress, requestID, reason string) {
	a.LogEvent(Event{
		Type:       EventRefreshFailure,
		ProviderID: providerID,
		IPAddress:  ipAddress,
		RequestID:  requestID,
		Details: map[string]any{
			"reason": reason,
		},
	})
}

// LogRateLimitExceeded logs a rate limit violation
func (a *Auditor) LogRateLimitExceeded(providerID, ipAddress, requestID string) {
	a.LogEvent(Event{
		Type:       EventRateLimitExceeded,
		ProviderID: providerID,
		IPAddress:  ipAddress,
		RequestID:  requestID,
	})
}

// HashForLogging creates a truncated SHA256 hash of sensitive data so audit
// entries can be correlated without storing the value itself.
func HashForLogging(sensitive string) string {
	if sensitive == "" {
		return "<empty>"
	}
	hash := sha256.Sum256([]byte(sensitive))
	return hex.EncodeToString(hash[:])[:16]
}
