package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/merch/byom/internal/domain/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for service spans
const TracerName = "byom"

// Span attribute keys for service spans
const (
	SpanAttrDesignID  = "design.id"
	SpanAttrStatus    = "design.status"
	SpanAttrMerchType = "merch.type"
	SpanAttrStage     = "pipeline.stage"
	SpanAttrStrategy  = "pricing.strategy"
	SpanAttrSessionID = "editor.session_id"
)

// StartServiceSpan starts a span named {service}.{method}.
// The caller must end the returned span.
func StartServiceSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	opts := []trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindInternal)}
	if len(attrs) > 0 {
		opts = append(opts, trace.WithAttributes(attrs...))
	}
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, fmt.Sprintf("%s.%s", service, method), opts...)
}

// EndSpan records err on span, if any, and ends it. Domain errors are
// client faults: they are recorded as events without failing the span.
func EndSpan(span trace.Span, err error) {
	defer span.End()
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		span.AddEvent("domain_error", trace.WithAttributes(
			attribute.String("error.code", de.Code),
			attribute.String("error.message", de.Message),
		))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// GetTraceID returns the trace ID of the span in ctx, or ""
func GetTraceID(ctx context.Context) string {
	id := trace.SpanFromContext(ctx).SpanContext().TraceID()
	if !id.IsValid() {
		return ""
	}
	return id.String()
}

// GetSpanID returns the span ID of the span in ctx, or ""
func GetSpanID(ctx context.Context) string {
	id := trace.SpanFromContext(ctx).SpanContext().SpanID()
	if !id.IsValid() {
		return ""
	}
	return id.String()
}
