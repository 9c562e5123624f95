package oauth

import (
	"bytes"
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/authbridge/idp-oauth/security"
)

// resultFrameTemplate is the HTML page served at the end of the callback.
// The login flow runs in a popup; this page hands the result back to the
// window that opened it and closes itself. The message goes only to the
// popup's own origin, so a foreign opener never receives token material.
const resultFrameTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Signing in&hellip;</title>
</head>
<body>
<noscript>Sign-in finished. You can close this window.</noscript>
<script>
(function () {
	var message = {{.MessageJSON}};
	try {
		if (window.opener && window.opener !== window) {
			window.opener.postMessage(message, window.location.origin);
		}
	} catch (e) {}
	window.close();
})();
</script>
</body>
</html>`

var resultFrameTmpl = template.Must(template.New("result-frame").Parse(resultFrameTemplate))

// resultFrameData holds the template data for the result frame.
type resultFrameData struct {
	// MessageJSON is the serialized frameMessage. json.Marshal escapes
	// <, > and & so the literal cannot break out of the script element.
	MessageJSON template.JS
}

// renderFrame writes the callback result page. Exactly one of session and
// errMsg is meaningful: a nil session produces an error message for the
// opener. The page is always served with 200; the outcome travels in the
// posted message, not the status code.
func (h *Handler) renderFrame(w http.ResponseWriter, session *SessionResult, errMsg string) {
	msg := frameMessage{Type: frameMessageType}
	if session != nil {
		msg.Payload = session
	} else {
		msg.Error = &frameError{Message: errMsg}
	}

	raw, err := json.Marshal(&msg)
	if err != nil {
		h.logger.Error("Failed to marshal frame message", "error", err)
		security.SetSecurityHeaders(w)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Execute to a buffer first so a template failure never leaves a
	// half-written page in the response.
	var buf bytes.Buffer
	if err := resultFrameTmpl.Execute(&buf, resultFrameData{MessageJSON: template.JS(raw)}); err != nil {
		h.logger.Error("Failed to render result frame", "error", err)
		security.SetSecurityHeaders(w)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	security.SetFrameHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
