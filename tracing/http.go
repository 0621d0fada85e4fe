package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// StartHTTPServerSpan continues any inbound trace context and opens the
// server span of a metadata request.
func StartHTTPServerSpan(ctx context.Context, r *http.Request, route string) (context.Context, trace.Span) {
	if !isEnabled {
		return ctx, trace.SpanFromContext(ctx)
	}

	ctx = propagation.TraceContext{}.Extract(ctx, propagation.HeaderCarrier(r.Header))
	return StartSpan(ctx, "Http.MetadataRequest",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			semconv.HTTPMethodKey.String(r.Method),
			semconv.HTTPURLKey.String(r.URL.Path),
			semconv.HTTPUserAgentKey.String(r.UserAgent()),
			attribute.String("http.route", route),
		),
	)
}

func EnrichHTTPServerSpan(ctx context.Context, statusCode int, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(semconv.HTTPStatusCodeKey.Int(statusCode))
	if err != nil {
		SetError(span, err)
		return
	}
	if statusCode >= 400 {
		span.SetStatus(codes.Error, http.StatusText(statusCode))
	} else {
		span.SetStatus(codes.Ok, "")
	}
}
