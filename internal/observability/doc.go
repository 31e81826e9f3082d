// Package observability groups the logging, metrics and tracing helpers
// shared by the worker and the CLI.
//
// Subpackages:
//   - logging: slog construction plus run and trace id propagation
//   - metrics: Prometheus collectors for collect runs, enrichment cycles and AI calls
//   - tracing: OpenTelemetry provider setup, the tracer and HTTP middleware
package observability
