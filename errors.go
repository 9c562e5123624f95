package oauth

import (
	"fmt"
	"net/http"
)

// Error codes for the adapter's failure taxonomy
const (
	ErrorCodeInvalidRequest          = "invalid_request"
	ErrorCodeCSRFFailure             = "csrf_failure"
	ErrorCodeUpstreamExchangeFailure = "upstream_exchange_failure"
	ErrorCodeProviderMisconfigured   = "provider_misconfigured"
	ErrorCodeRateLimitExceeded       = "rate_limit_exceeded"
)

// FlowError represents a failure in the authorization or refresh flow.
// Description is safe to show to the browser; provider error detail is
// wrapped, never echoed verbatim.
type FlowError struct {
	Code        string // taxonomy code (e.g. "csrf_failure")
	Description string // human-readable description
	Status      int    // HTTP status code for synchronous endpoints
}

// Error implements the error interface
func (e *FlowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Common flow errors as reusable constructors
var (
	// ErrInvalidRequest indicates the client omitted required input (e.g. scope)
	ErrInvalidRequest = func(desc string) *FlowError {
		return &FlowError{Code: ErrorCodeInvalidRequest, Description: desc, Status: http.StatusBadRequest}
	}

	// ErrCSRFFailure indicates a missing/mismatched nonce or a missing/wrong
	// trusted-request header
	ErrCSRFFailure = func(desc string) *FlowError {
		return &FlowError{Code: ErrorCodeCSRFFailure, Description: desc, Status: http.StatusUnauthorized}
	}

	// ErrUpstreamExchange indicates the IdP rejected or errored during token
	// exchange or refresh
	ErrUpstreamExchange = func(desc string) *FlowError {
		return &FlowError{Code: ErrorCodeUpstreamExchangeFailure, Description: desc, Status: http.StatusUnauthorized}
	}

	// ErrProviderMisconfigured indicates the flow cannot complete because of
	// configuration, upstream (no refresh token granted) or local (session
	// sealing). Treated as a configuration problem, not a transient failure.
	ErrProviderMisconfigured = func(desc string) *FlowError {
		return &FlowError{Code: ErrorCodeProviderMisconfigured, Description: desc, Status: http.StatusUnauthorized}
	}

	// ErrRateLimitExceeded indicates the per-IP refresh rate limit was hit
	ErrRateLimitExceeded = func(desc string) *FlowError {
		return &FlowError{Code: ErrorCodeRateLimitExceeded, Description: desc, Status: http.StatusTooManyRequests}
	}
)

// writeFlowError writes the error's description and status as a plain-text
// response, the shape the synchronous endpoints use for failures.
func writeFlowError(w http.ResponseWriter, e *FlowError) {
	http.Error(w, e.Description, e.Status)
}
