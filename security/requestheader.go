package security

import (
	"crypto/subtle"
	"net/http"
)

// TrustedRequestHeader is the custom header whose presence marks a request
// as same-origin script-initiated.
const TrustedRequestHeader = "X-Requested-With"

// CheckTrustedRequest reports whether the request carries the trusted-request
// header with the expected value. The value comparison is constant-time; the
// guard is weak by design, but there is no reason to leak through timing what
// little it protects.
//
// Handlers run this check before reading any cookie, so a cross-site request
// is rejected without touching session state.
func CheckTrustedRequest(r *http.Request, expectedValue string) bool {
	got := r.Header.Get(TrustedRequestHeader)
	if got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(expectedValue)) == 1
}
