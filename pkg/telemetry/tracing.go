// Package telemetry configures OpenTelemetry tracing for provisioning
// sessions.
//
// Custom span attributes use the `onboard.` prefix.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/smartmonitor/onboard-go"

// Tracer returns the package-level tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// InitTraceProvider installs an OTLP gRPC trace exporter. An empty endpoint
// leaves the no-op provider in place. The returned function flushes and
// shuts the provider down.
func InitTraceProvider(ctx context.Context, endpoint, version string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String("onboardctl"),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// StartSessionSpan creates the span covering one provisioning session.
func StartSessionSpan(ctx context.Context, sessionID, transport string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "provisioning.session",
		trace.WithAttributes(
			attribute.String("onboard.session_id", sessionID),
			attribute.String("onboard.transport", transport),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StageEvent records a state transition on the session span.
func StageEvent(span trace.Span, state, step string) {
	span.AddEvent(step, trace.WithAttributes(attribute.String("onboard.state", state)))
}

// EndSessionSpan records the outcome and ends the span.
func EndSessionSpan(span trace.Span, success bool, kind, message string) {
	span.SetAttributes(attribute.Bool("onboard.success", success))
	if !success {
		span.SetAttributes(attribute.String("onboard.failure_kind", kind))
		span.SetStatus(codes.Error, message)
	}
	span.End()
}

// StartScanSpan creates a span for a standalone device scan.
func StartScanSpan(ctx context.Context, transport string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "provisioning.scan",
		trace.WithAttributes(attribute.String("onboard.transport", transport)),
	)
}

// EndScanSpan records the number of devices found and ends the span.
func EndScanSpan(span trace.Span, found int, err error) {
	span.SetAttributes(attribute.Int("onboard.devices_found", found))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
