package oauth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// nonceByteLen is the entropy of a login nonce. 32 bytes (256 bits) is
// comfortably above the 128-bit minimum needed to make guessing infeasible.
const nonceByteLen = 32

// IssueNonce generates a cryptographically random nonce, base64url-encoded.
// The same value is stored in the nonce cookie and sent to the IdP as the
// OAuth2 state parameter; the callback compares the two to bind the browser
// session to its in-flight login attempt.
func IssueNonce() (string, error) {
	b := make([]byte, nonceByteLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Nonce validation errors. The distinction matters: the callback reports
// "Missing nonce" and "Invalid nonce" as different 401 bodies.
var (
	ErrMissingNonce  = ErrCSRFFailure("Missing nonce")
	ErrNonceMismatch = ErrCSRFFailure("Invalid nonce")
)

// ValidateNonce compares the nonce cookie against the state query parameter
// returned by the IdP. The comparison is constant-time so the check leaks no
// prefix information through timing.
//
// Validation is conceptually single-use but the cookie is not consumed
// explicitly; the 10-minute expiry bounds the reuse window.
func ValidateNonce(cookieValue, stateValue string) error {
	if cookieValue == "" || stateValue == "" {
		return ErrMissingNonce
	}
	if subtle.ConstantTimeCompare([]byte(cookieValue), []byte(stateValue)) != 1 {
		return ErrNonceMismatch
	}
	return nil
}
