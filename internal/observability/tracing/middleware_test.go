package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func installRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestMiddleware_CreatesSpan(t *testing.T) {
	exporter := installRecorder(t)

	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	serve(h, httptest.NewRequest(http.MethodGet, "/health", nil))

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "GET /health" {
		t.Errorf("expected span name 'GET /health', got %q", spans[0].Name)
	}

	found := map[string]bool{}
	for _, attr := range spans[0].Attributes {
		found[string(attr.Key)] = true
	}
	for _, key := range []string{"http.method", "http.path", "http.status_code"} {
		if !found[key] {
			t.Errorf("missing attribute %s", key)
		}
	}
}

func TestMiddleware_AddsTraceIDToResponse(t *testing.T) {
	exporter := installRecorder(t)

	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rr := serve(h, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	got := rr.Header().Get("X-Trace-Id")
	if got == "" {
		t.Fatal("expected X-Trace-Id header")
	}
	if want := exporter.GetSpans()[0].SpanContext.TraceID().String(); got != want {
		t.Errorf("header %s does not match span trace id %s", got, want)
	}
}

func TestMiddleware_PropagatesTraceContext(t *testing.T) {
	exporter := installRecorder(t)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	serve(h, req)

	if got := exporter.GetSpans()[0].SpanContext.TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("expected incoming trace id, got %s", got)
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantError bool
	}{
		{"ok", http.StatusOK, false},
		{"not found", http.StatusNotFound, false},
		{"server error", http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter := installRecorder(t)

			h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			serve(h, httptest.NewRequest(http.MethodGet, "/ready", nil))

			span := exporter.GetSpans()[0]
			if gotError := span.Status.Code == codes.Error; gotError != tt.wantError {
				t.Errorf("status %d: error=%v, want %v", tt.status, gotError, tt.wantError)
			}
			for _, attr := range span.Attributes {
				if attr.Key == "http.status_code" && attr.Value.AsInt64() != int64(tt.status) {
					t.Errorf("http.status_code = %d, want %d", attr.Value.AsInt64(), tt.status)
				}
			}
		})
	}
}

/* ───────── Init ───────── */

func TestInit_InstallsSampledProvider(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	shutdown := Init("isdnews-test", 1.0)
	defer func() { _ = shutdown(context.Background()) }()

	_, span := GetTracer().Start(context.Background(), "probe")
	defer span.End()

	if !span.SpanContext().IsSampled() {
		t.Error("expected span to be sampled with ratio 1.0")
	}
}

func TestInit_ZeroRatioDropsRootSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	shutdown := Init("isdnews-test", 0)
	defer func() { _ = shutdown(context.Background()) }()

	_, span := GetTracer().Start(context.Background(), "probe")
	defer span.End()

	if span.SpanContext().IsSampled() {
		t.Error("expected root span to be dropped with ratio 0")
	}
	if !span.SpanContext().HasTraceID() {
		t.Error("unsampled spans still carry a trace id")
	}
}
