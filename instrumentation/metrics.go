package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all metric instruments for the adapter
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	// Flow metrics
	FlowsStarted       metric.Int64Counter
	CallbacksProcessed metric.Int64Counter
	TokensRefreshed    metric.Int64Counter
	LogoutsProcessed   metric.Int64Counter

	// Security metrics
	CSRFFailures      metric.Int64Counter
	RateLimitRejected metric.Int64Counter

	// Provider API metrics
	ProviderAPICallsTotal   metric.Int64Counter
	ProviderAPICallDuration metric.Float64Histogram
	ProviderAPIErrors       metric.Int64Counter
}

// newMetrics creates all metric instruments
func newMetrics(inst *Instrumentation) (*Metrics, error) {
	httpMeter := inst.Meter("http")
	flowMeter := inst.Meter("flow")
	securityMeter := inst.Meter("security")
	providerMeter := inst.Meter("provider")

	m := &Metrics{}
	var err error

	m.HTTPRequestsTotal, err = httpMeter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total number of HTTP requests to adapter endpoints"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http.requests.total counter: %w", err)
	}

	m.HTTPRequestDuration, err = httpMeter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http.request.duration histogram: %w", err)
	}

	m.FlowsStarted, err = flowMeter.Int64Counter(
		"flow.started.total",
		metric.WithDescription("Total number of login flows started"),
		metric.WithUnit("{flow}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create flow.started.total counter: %w", err)
	}

	m.CallbacksProcessed, err = flowMeter.Int64Counter(
		"flow.callbacks.total",
		metric.WithDescription("Total number of provider callbacks processed"),
		metric.WithUnit("{callback}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create flow.callbacks.total counter: %w", err)
	}

	m.TokensRefreshed, err = flowMeter.Int64Counter(
		"flow.refreshes.total",
		metric.WithDescription("Total number of access token refreshes"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create flow.refreshes.total counter: %w", err)
	}

	m.LogoutsProcessed, err = flowMeter.Int64Counter(
		"flow.logouts.total",
		metric.WithDescription("Total number of logouts processed"),
		metric.WithUnit("{logout}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create flow.logouts.total counter: %w", err)
	}

	m.CSRFFailures, err = securityMeter.Int64Counter(
		"security.csrf.failures.total",
		metric.WithDescription("Total number of CSRF nonce validation failures"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create security.csrf.failures.total counter: %w", err)
	}

	m.RateLimitRejected, err = securityMeter.Int64Counter(
		"security.ratelimit.rejected.total",
		metric.WithDescription("Total number of requests rejected by rate limiting"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create security.ratelimit.rejected.total counter: %w", err)
	}

	m.ProviderAPICallsTotal, err = providerMeter.Int64Counter(
		"provider.api.calls.total",
		metric.WithDescription("Total number of calls to the identity provider"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider.api.calls.total counter: %w", err)
	}

	m.ProviderAPICallDuration, err = providerMeter.Float64Histogram(
		"provider.api.call.duration",
		metric.WithDescription("Identity provider API call duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider.api.call.duration histogram: %w", err)
	}

	m.ProviderAPIErrors, err = providerMeter.Int64Counter(
		"provider.api.errors.total",
		metric.WithDescription("Total number of failed identity provider API calls"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create provider.api.errors.total counter: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with its duration
func (m *Metrics) RecordHTTPRequest(ctx context.Context, endpoint, method string, statusCode int, durationMs float64) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("endpoint", endpoint),
		attribute.String("method", method),
		attribute.Int("status_code", statusCode),
	)

	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, durationMs, attrs)
}

// RecordFlowStarted records the start of a login flow
func (m *Metrics) RecordFlowStarted(ctx context.Context, provider string) {
	if m == nil {
		return
	}
	m.FlowsStarted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
	))
}

// RecordCallback records a processed provider callback with its outcome
func (m *Metrics) RecordCallback(ctx context.Context, provider, outcome string) {
	if m == nil {
		return
	}
	m.CallbacksProcessed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	))
}

// RecordTokenRefresh records a token refresh attempt with its outcome
func (m *Metrics) RecordTokenRefresh(ctx context.Context, provider, outcome string) {
	if m == nil {
		return
	}
	m.TokensRefreshed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	))
}

// RecordLogout records a processed logout
func (m *Metrics) RecordLogout(ctx context.Context, provider string) {
	if m == nil {
		return
	}
	m.LogoutsProcessed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
	))
}

// RecordCSRFFailure records a CSRF nonce validation failure
func (m *Metrics) RecordCSRFFailure(ctx context.Context, provider, reason string) {
	if m == nil {
		return
	}
	m.CSRFFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("reason", reason),
	))
}

// RecordRateLimitRejection records a request rejected by rate limiting
func (m *Metrics) RecordRateLimitRejection(ctx context.Context, endpoint string) {
	if m == nil {
		return
	}
	m.RateLimitRejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String("endpoint", endpoint),
	))
}

// RecordProviderAPICall records a provider API call with duration and outcome
func (m *Metrics) RecordProviderAPICall(ctx context.Context, provider, operation string, durationMs float64, err error) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
	)

	m.ProviderAPICallsTotal.Add(ctx, 1, attrs)
	m.ProviderAPICallDuration.Record(ctx, durationMs, attrs)
	if err != nil {
		m.ProviderAPIErrors.Add(ctx, 1, attrs)
	}
}
