package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func captureLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewJSONHandler(buf, nil)), buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		wantDebug bool
	}{
		{"default", "", "", false},
		{"debug", "debug", "", true},
		{"debug upper case", "DEBUG", "text", true},
		{"unknown level", "verbose", "json", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.level)
			t.Setenv("LOG_FORMAT", tt.format)

			logger := NewLogger()
			require.NotNil(t, logger)
			assert.Equal(t, tt.wantDebug, logger.Enabled(context.Background(), slog.LevelDebug))
		})
	}
}

/* ───────── run_id の伝播 ───────── */

func TestWithRunID(t *testing.T) {
	logger, buf := captureLogger()

	ctx := ContextWithRunID(context.Background(), "run-123")
	WithRunID(ctx, logger).Info("collect run started")

	assert.Equal(t, "run-123", decode(t, buf)["run_id"])
	assert.Equal(t, "run-123", RunIDFromContext(ctx))
}

func TestWithRunID_Absent(t *testing.T) {
	logger, buf := captureLogger()

	WithRunID(context.Background(), logger).Info("no run")

	_, ok := decode(t, buf)["run_id"]
	assert.False(t, ok)
}

/* ───────── trace_id の付与 ───────── */

func TestWithTrace(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	logger, buf := captureLogger()
	WithTrace(ctx, logger).Info("inside span")

	entry := decode(t, buf)
	assert.Equal(t, span.SpanContext().TraceID().String(), entry["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), entry["span_id"])
}

func TestWithTrace_NoSpan(t *testing.T) {
	logger, buf := captureLogger()
	WithTrace(context.Background(), logger).Info("outside span")

	_, ok := decode(t, buf)["trace_id"]
	assert.False(t, ok)
}

func TestFromContext(t *testing.T) {
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	logger, _ := captureLogger()
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
}
