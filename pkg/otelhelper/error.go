package otelhelper

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TimeoutKey marks spans whose failure was a deadline hit.
const TimeoutKey = "leadflow.timeout"

// SetError marks span as failed. attrs are attached to the recorded error
// event, not to the span itself.
func SetError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if errors.Is(err, context.DeadlineExceeded) {
		attrs = append(attrs, attribute.Bool(TimeoutKey, true))
	}

	span.RecordError(err, trace.WithAttributes(attrs...))
	span.SetStatus(codes.Error, err.Error())
}
