package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/authbridge/idp-oauth/instrumentation"
	"github.com/authbridge/idp-oauth/providers"
	"github.com/authbridge/idp-oauth/security"
)

// Handler serves the four HTTP endpoints for one identity provider:
//
//	GET  {base}/{provider}/start          begin the authorization flow
//	GET  {base}/{provider}/handler/frame  provider callback (popup frame)
//	POST {base}/{provider}/refresh        exchange the cookie for a fresh access token
//	POST {base}/{provider}/logout         clear the refresh-token cookie
//
// The gateway creates one Handler per configured provider and mounts it with
// Routes. A Handler holds no session state; the refresh token lives in the
// browser's cookie jar and every request carries everything needed to serve it.
type Handler struct {
	provider    providers.Provider
	config      *Config
	logger      *slog.Logger
	sealer      *security.Sealer
	auditor     *security.Auditor
	rateLimiter *security.RateLimiter
	metrics     *instrumentation.Metrics
	tracer      trace.Tracer
}

// NewHandler creates a handler for one provider. The Config is validated and
// defaults are applied, so the returned handler never sees a partial Config.
func NewHandler(provider providers.Provider, cfg *Config) (*Handler, error) {
	if provider == nil {
		return nil, fmt.Errorf("provider is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.applyDefaults()

	sealer, err := security.NewSealer(cfg.Security.CookieSealKey)
	if err != nil {
		return nil, fmt.Errorf("invalid cookie seal key: %w", err)
	}

	h := &Handler{
		provider: provider,
		config:   cfg,
		logger:   cfg.Logger,
		sealer:   sealer,
		auditor:  security.NewAuditor(cfg.Logger, cfg.Security.EnableAuditLogging),
	}

	if cfg.RateLimit.Rate > 0 {
		h.rateLimiter = security.NewRateLimiter(cfg.RateLimit.Rate, cfg.RateLimit.Burst, cfg.Logger)
	}
	if cfg.Instrumentation != nil {
		h.metrics = cfg.Instrumentation.Metrics()
		h.tracer = cfg.Instrumentation.Tracer("http")
	}

	return h, nil
}

// Routes registers the provider's endpoints on the mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	base := h.config.providerPath()
	mux.HandleFunc(base+"/start", h.ServeStart)
	mux.HandleFunc(base+"/handler/frame", h.ServeFrame)
	mux.HandleFunc(base+"/refresh", h.ServeRefresh)
	mux.HandleFunc(base+"/logout", h.ServeLogout)
}

// Close releases background resources (the rate limiter's cleanup goroutine).
func (h *Handler) Close() {
	if h.rateLimiter != nil {
		h.rateLimiter.Stop()
	}
}

// ServeStart begins the authorization flow: issue a nonce, store it in a
// short-lived HTTP-only cookie, and redirect the browser to the provider's
// consent screen with the same nonce as the OAuth2 state parameter.
func (h *Handler) ServeStart(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	var span trace.Span
	ctx := r.Context()
	if h.tracer != nil {
		ctx, span = h.tracer.Start(ctx, "auth.http.start")
		defer span.End()
		r = r.WithContext(ctx)
	}

	if r.Method != http.MethodGet {
		h.recordHTTPMetrics(r, "start", http.MethodGet, http.StatusMethodNotAllowed, startTime)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	security.SetSecurityHeaders(w)

	scope := r.URL.Query().Get("scope")
	if scope == "" {
		flowErr := ErrInvalidRequest("missing scope")
		h.recordHTTPMetrics(r, "start", http.MethodGet, flowErr.Status, startTime)
		instrumentation.SetSpanError(span, flowErr.Description)
		writeFlowError(w, flowErr)
		return
	}
	scopes := strings.Fields(scope)

	nonce, err := IssueNonce()
	if err != nil {
		h.logger.Error("Failed to issue login nonce", "provider", h.config.ProviderID, "error", err)
		h.recordHTTPMetrics(r, "start", http.MethodGet, http.StatusInternalServerError, startTime)
		instrumentation.RecordError(span, err)
		http.Error(w, "Failed to start login", http.StatusInternalServerError)
		return
	}

	authURL := h.provider.AuthCodeURL(nonce, scopes)
	if authURL == "" {
		h.logger.Error("Provider returned empty authorization URL", "provider", h.config.ProviderID)
		h.recordHTTPMetrics(r, "start", http.MethodGet, http.StatusInternalServerError, startTime)
		instrumentation.SetSpanError(span, "empty authorization URL")
		http.Error(w, "Failed to start login", http.StatusInternalServerError)
		return
	}

	// The cookie and the state parameter carry the same nonce; the callback
	// accepts the flow only when the two still agree.
	http.SetCookie(w, cookieOptions(CookieNonce, nonce, h.config))

	h.auditor.LogEvent(security.Event{
		Type:       security.EventLoginStarted,
		ProviderID: h.config.ProviderID,
		IPAddress:  h.clientIP(r),
		RequestID:  security.GetRequestID(ctx),
	})
	if h.metrics != nil {
		h.metrics.RecordFlowStarted(ctx, h.config.ProviderID)
	}
	h.recordHTTPMetrics(r, "start", http.MethodGet, http.StatusFound, startTime)
	instrumentation.SetSpanSuccess(span)

	http.Redirect(w, r, authURL, http.StatusFound)
}

// ServeFrame handles the provider callback. It validates the nonce against
// the state parameter, exchanges the authorization code for tokens, moves the
// refresh token into an HTTP-only cookie, and renders a small HTML page that
// posts the remaining session data to the window that opened the popup.
//
// CSRF failures are synchronous 401s; everything after the nonce check is
// reported inside the frame so the opener always receives a result message.
func (h *Handler) ServeFrame(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	ctx := r.Context()

	var span trace.Span
	if h.tracer != nil {
		ctx, span = h.tracer.Start(ctx, "auth.http.frame")
		defer span.End()
	}

	if r.Method != http.MethodGet {
		h.recordHTTPMetrics(r, "frame", http.MethodGet, http.StatusMethodNotAllowed, startTime)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var cookieNonce string
	if ck, err := r.Cookie(NonceCookieName(h.config.ProviderID)); err == nil {
		cookieNonce = ck.Value
	}
	state := r.URL.Query().Get("state")

	if err := ValidateNonce(cookieNonce, state); err != nil {
		flowErr := err.(*FlowError)
		h.auditor.LogCSRFFailure(h.config.ProviderID, h.clientIP(r), security.GetRequestID(ctx), flowErr.Description)
		if h.metrics != nil {
			h.metrics.RecordCSRFFailure(ctx, h.config.ProviderID, flowErr.Description)
			h.metrics.RecordCallback(ctx, h.config.ProviderID, "csrf_failure")
		}
		h.recordHTTPMetrics(r, "frame", http.MethodGet, flowErr.Status, startTime)
		instrumentation.SetSpanError(span, flowErr.Description)
		security.SetSecurityHeaders(w)
		writeFlowError(w, flowErr)
		return
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Warn("Provider returned error on callback",
			"provider", h.config.ProviderID,
			"error", errParam,
			"description", r.URL.Query().Get("error_description"))
		h.finishFrame(w, r, span, startTime, nil, ErrUpstreamExchange("Authorization was denied"))
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.finishFrame(w, r, span, startTime, nil, ErrInvalidRequest("Missing authorization code"))
		return
	}

	grant, err := h.exchangeCode(ctx, code)
	if err != nil {
		h.logger.Error("Token exchange failed", "provider", h.config.ProviderID, "error", err)
		h.auditor.LogEvent(security.Event{
			Type:       security.EventExchangeFailure,
			ProviderID: h.config.ProviderID,
			IPAddress:  h.clientIP(r),
			RequestID:  security.GetRequestID(ctx),
			Details:    map[string]any{"reason": "exchange rejected"},
		})
		instrumentation.RecordError(span, err)
		h.finishFrame(w, r, span, startTime, nil, ErrUpstreamExchange("Failed to exchange authorization code"))
		return
	}

	if grant.RefreshToken == "" {
		// The IdP completed the exchange but granted no refresh token.
		// Offline access or forced consent is misconfigured upstream.
		h.logger.Error("Provider granted no refresh token", "provider", h.config.ProviderID)
		h.auditor.LogMissingRefreshToken(h.config.ProviderID, h.clientIP(r), security.GetRequestID(ctx))
		h.finishFrame(w, r, span, startTime, nil, ErrProviderMisconfigured("Missing refresh token"))
		return
	}

	cookieValue, err := h.sealer.Seal(grant.RefreshToken)
	if err != nil {
		h.logger.Error("Failed to seal refresh token", "provider", h.config.ProviderID, "error", err)
		instrumentation.RecordError(span, err)
		h.finishFrame(w, r, span, startTime, nil, ErrProviderMisconfigured("Failed to establish session"))
		return
	}
	http.SetCookie(w, cookieOptions(CookieRefreshToken, cookieValue, h.config))

	session := sessionFromGrant(grant)
	h.auditor.LogEvent(security.Event{
		Type:       security.EventLoginCompleted,
		ProviderID: h.config.ProviderID,
		UserID:     userID(session.Profile),
		IPAddress:  h.clientIP(r),
		RequestID:  security.GetRequestID(ctx),
	})
	h.finishFrame(w, r, span, startTime, session, nil)
}

// finishFrame records callback metrics and renders the result frame.
// A non-nil flowErr produces an error message for the opener window and its
// taxonomy code becomes the callback outcome label; the HTTP status is 200
// either way since the page itself rendered fine.
func (h *Handler) finishFrame(w http.ResponseWriter, r *http.Request, span trace.Span, startTime time.Time, session *SessionResult, flowErr *FlowError) {
	ctx := r.Context()
	errMsg := ""
	if session != nil {
		if h.metrics != nil {
			h.metrics.RecordCallback(ctx, h.config.ProviderID, "success")
		}
		instrumentation.SetSpanSuccess(span)
	} else {
		errMsg = flowErr.Description
		if h.metrics != nil {
			h.metrics.RecordCallback(ctx, h.config.ProviderID, flowErr.Code)
		}
		instrumentation.SetSpanError(span, errMsg)
	}
	h.recordHTTPMetrics(r, "frame", http.MethodGet, http.StatusOK, startTime)
	h.renderFrame(w, session, errMsg)
}

// ServeRefresh exchanges the refresh-token cookie for a fresh access token.
// The trusted-header check runs before any cookie is read, so a cross-site
// request never touches session state. The refresh token itself stays in the
// cookie and is never part of the response.
func (h *Handler) ServeRefresh(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	ctx := r.Context()

	var span trace.Span
	if h.tracer != nil {
		ctx, span = h.tracer.Start(ctx, "auth.http.refresh")
		defer span.End()
	}

	security.SetSecurityHeaders(w)

	if r.Method != http.MethodPost {
		h.recordHTTPMetrics(r, "refresh", http.MethodPost, http.StatusMethodNotAllowed, startTime)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !security.CheckTrustedRequest(r, h.config.TrustedHeaderValue) {
		flowErr := ErrCSRFFailure("Invalid X-Requested-With header")
		h.auditor.LogCSRFFailure(h.config.ProviderID, h.clientIP(r), security.GetRequestID(ctx), "invalid trusted-request header")
		if h.metrics != nil {
			h.metrics.RecordCSRFFailure(ctx, h.config.ProviderID, "trusted_header")
		}
		h.recordHTTPMetrics(r, "refresh", http.MethodPost, flowErr.Status, startTime)
		instrumentation.SetSpanError(span, "trusted-request header check failed")
		writeFlowError(w, flowErr)
		return
	}

	clientIP := h.clientIP(r)
	if h.rateLimiter != nil && !h.rateLimiter.Allow(clientIP) {
		flowErr := ErrRateLimitExceeded("Too many requests")
		h.auditor.LogRateLimitExceeded(h.config.ProviderID, clientIP, security.GetRequestID(ctx))
		if h.metrics != nil {
			h.metrics.RecordRateLimitRejection(ctx, "refresh")
			h.metrics.RecordTokenRefresh(ctx, h.config.ProviderID, "rate_limited")
		}
		h.recordHTTPMetrics(r, "refresh", http.MethodPost, flowErr.Status, startTime)
		instrumentation.SetSpanError(span, "rate limit exceeded")
		writeFlowError(w, flowErr)
		return
	}

	ck, err := r.Cookie(RefreshTokenCookieName(h.config.ProviderID))
	if err != nil || ck.Value == "" {
		h.recordHTTPMetrics(r, "refresh", http.MethodPost, http.StatusUnauthorized, startTime)
		instrumentation.SetSpanError(span, "missing session cookie")
		http.Error(w, "Missing session cookie", http.StatusUnauthorized)
		return
	}

	refreshToken, err := h.sealer.Open(ck.Value)
	if err != nil {
		// Same body as a rejected grant so a tampered cookie learns nothing.
		flowErr := ErrUpstreamExchange("Failed to refresh access token")
		h.logger.Warn("Failed to open sealed session cookie", "provider", h.config.ProviderID, "error", err)
		h.auditor.LogRefreshFailure(h.config.ProviderID, clientIP, security.GetRequestID(ctx), "unsealing failed")
		h.recordHTTPMetrics(r, "refresh", http.MethodPost, flowErr.Status, startTime)
		instrumentation.SetSpanError(span, "cookie unsealing failed")
		writeFlowError(w, flowErr)
		return
	}

	scopes := strings.Fields(r.URL.Query().Get("scope"))

	grant, err := h.refreshGrant(ctx, refreshToken, scopes)
	if err != nil || grant.AccessToken == "" {
		flowErr := ErrUpstreamExchange("Failed to refresh access token")
		if err != nil {
			h.logger.Error("Token refresh failed", "provider", h.config.ProviderID, "error", err)
			instrumentation.RecordError(span, err)
		} else {
			h.logger.Error("Provider returned empty access token on refresh", "provider", h.config.ProviderID)
			instrumentation.SetSpanError(span, "empty access token")
		}
		h.auditor.LogRefreshFailure(h.config.ProviderID, clientIP, security.GetRequestID(ctx), "refresh grant rejected")
		if h.metrics != nil {
			h.metrics.RecordTokenRefresh(ctx, h.config.ProviderID, "failure")
		}
		h.recordHTTPMetrics(r, "refresh", http.MethodPost, flowErr.Status, startTime)
		writeFlowError(w, flowErr)
		return
	}

	h.auditor.LogTokenRefreshed(h.config.ProviderID, clientIP, security.GetRequestID(ctx))
	if h.metrics != nil {
		h.metrics.RecordTokenRefresh(ctx, h.config.ProviderID, "success")
	}
	h.recordHTTPMetrics(r, "refresh", http.MethodPost, http.StatusOK, startTime)
	instrumentation.SetSpanSuccess(span)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(&RefreshResponse{
		AccessToken:      grant.AccessToken,
		IDToken:          grant.IDToken,
		ExpiresInSeconds: grant.ExpiresIn,
		Scope:            grant.Scope,
	}); err != nil {
		h.logger.Error("Failed to encode refresh response", "error", err)
	}
}

// ServeLogout clears the refresh-token cookie. There is nothing to revoke
// server-side; forgetting the cookie ends the session.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	ctx := r.Context()

	var span trace.Span
	if h.tracer != nil {
		ctx, span = h.tracer.Start(ctx, "auth.http.logout")
		defer span.End()
	}

	security.SetSecurityHeaders(w)

	if r.Method != http.MethodPost {
		h.recordHTTPMetrics(r, "logout", http.MethodPost, http.StatusMethodNotAllowed, startTime)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !security.CheckTrustedRequest(r, h.config.TrustedHeaderValue) {
		flowErr := ErrCSRFFailure("Invalid X-Requested-With header")
		h.auditor.LogCSRFFailure(h.config.ProviderID, h.clientIP(r), security.GetRequestID(ctx), "invalid trusted-request header")
		if h.metrics != nil {
			h.metrics.RecordCSRFFailure(ctx, h.config.ProviderID, "trusted_header")
		}
		h.recordHTTPMetrics(r, "logout", http.MethodPost, flowErr.Status, startTime)
		instrumentation.SetSpanError(span, "trusted-request header check failed")
		writeFlowError(w, flowErr)
		return
	}

	http.SetCookie(w, cookieOptions(CookieLogout, "", h.config))

	h.auditor.LogEvent(security.Event{
		Type:       security.EventLogout,
		ProviderID: h.config.ProviderID,
		IPAddress:  h.clientIP(r),
		RequestID:  security.GetRequestID(ctx),
	})
	if h.metrics != nil {
		h.metrics.RecordLogout(ctx, h.config.ProviderID)
	}
	h.recordHTTPMetrics(r, "logout", http.MethodPost, http.StatusOK, startTime)
	instrumentation.SetSpanSuccess(span)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("logout!"))
}

// exchangeCode calls the provider's token endpoint with a child span and
// provider API metrics around the round-trip.
func (h *Handler) exchangeCode(ctx context.Context, code string) (*providers.Grant, error) {
	var span trace.Span
	if h.tracer != nil {
		ctx, span = h.tracer.Start(ctx, "auth.provider.exchange")
		defer span.End()
		instrumentation.SetSpanAttributes(span,
			attribute.String(instrumentation.AttrProvider, h.provider.Name()),
			attribute.String(instrumentation.AttrOperation, "exchange"),
		)
	}

	start := time.Now()
	grant, err := h.provider.Exchange(ctx, code)
	if h.metrics != nil {
		h.metrics.RecordProviderAPICall(ctx, h.provider.Name(), "exchange",
			float64(time.Since(start).Milliseconds()), err)
	}
	if err != nil {
		instrumentation.RecordError(span, err)
		return nil, err
	}
	instrumentation.SetSpanSuccess(span)
	return grant, nil
}

// refreshGrant calls the provider's refresh grant with a child span and
// provider API metrics around the round-trip.
func (h *Handler) refreshGrant(ctx context.Context, refreshToken string, scopes []string) (*providers.Grant, error) {
	var span trace.Span
	if h.tracer != nil {
		ctx, span = h.tracer.Start(ctx, "auth.provider.refresh")
		defer span.End()
		instrumentation.SetSpanAttributes(span,
			attribute.String(instrumentation.AttrProvider, h.provider.Name()),
			attribute.String(instrumentation.AttrOperation, "refresh"),
		)
	}

	start := time.Now()
	grant, err := h.provider.Refresh(ctx, refreshToken, scopes)
	if h.metrics != nil {
		h.metrics.RecordProviderAPICall(ctx, h.provider.Name(), "refresh",
			float64(time.Since(start).Milliseconds()), err)
	}
	if err != nil {
		instrumentation.RecordError(span, err)
		return nil, err
	}
	instrumentation.SetSpanSuccess(span)
	return grant, nil
}

// clientIP extracts the client address per the proxy trust configuration.
func (h *Handler) clientIP(r *http.Request) string {
	return security.GetClientIP(r, h.config.RateLimit.TrustProxy, h.config.RateLimit.TrustedProxyCount)
}

// recordHTTPMetrics records request count and latency for one endpoint.
func (h *Handler) recordHTTPMetrics(r *http.Request, endpoint, method string, statusCode int, startTime time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.RecordHTTPRequest(r.Context(), endpoint, method,
		statusCode, float64(time.Since(startTime).Milliseconds()))
}

// userID returns the provider user ID for audit logging, empty when no
// profile was fetched.
func userID(profile *providers.UserInfo) string {
	if profile == nil {
		return ""
	}
	return profile.ID
}
