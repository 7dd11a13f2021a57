package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer installs an in-memory span exporter for test assertions.
func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(trace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

func TestInitTraceProviderNoopWhenEmpty(t *testing.T) {
	shutdown, err := InitTraceProvider(context.Background(), "", "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSessionSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	_, span := StartSessionSpan(context.Background(), "sess-1", "RADIO")
	StageEvent(span, "CONNECTING", "connecting")
	StageEvent(span, "FAILED", "failed")
	EndSessionSpan(span, false, "CONNECTION_ERROR", "link lost")

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	s := spans[0]
	if s.Name != "provisioning.session" {
		t.Errorf("span name = %q", s.Name)
	}
	if len(s.Events) != 2 || s.Events[0].Name != "connecting" {
		t.Errorf("unexpected events: %+v", s.Events)
	}
	if s.Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", s.Status.Code)
	}

	found := false
	for _, a := range s.Attributes {
		if string(a.Key) == "onboard.failure_kind" && a.Value.AsString() == "CONNECTION_ERROR" {
			found = true
		}
	}
	if !found {
		t.Error("missing onboard.failure_kind attribute")
	}
}

func TestScanSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	_, span := StartScanSpan(context.Background(), "RADIO")
	EndScanSpan(span, 0, errors.New("adapter off"))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", spans[0].Status.Code)
	}
}
