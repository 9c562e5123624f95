package instrumentation

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys used across the adapter. Values never include tokens,
// authorization codes, or nonces.
const (
	AttrProvider  = "auth.provider"
	AttrEndpoint  = "auth.endpoint"
	AttrOperation = "auth.operation"
	AttrOutcome   = "auth.outcome"
	AttrClientIP  = "client.ip"
	AttrRequestID = "request.id"
)

// RecordError records an error on the span and marks it with error status.
// Safe to call with a nil or non-recording span.
func RecordError(span trace.Span, err error) {
	if span == nil || !span.IsRecording() || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanSuccess marks the span as successful
func SetSpanSuccess(span trace.Span) {
	if span == nil || !span.IsRecording() {
		return
	}
	span.SetStatus(codes.Ok, "")
}

// SetSpanError marks the span as failed with a description but no error value
func SetSpanError(span trace.Span, description string) {
	if span == nil || !span.IsRecording() {
		return
	}
	span.SetStatus(codes.Error, description)
}

// SetSpanAttributes sets attributes on the span if it is recording
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span == nil || !span.IsRecording() {
		return
	}
	span.SetAttributes(attrs...)
}
