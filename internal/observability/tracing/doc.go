// Package tracing wires OpenTelemetry into the worker and the CLI.
//
// Init installs an SDK tracer provider with a parent-based ratio sampler.
// No exporter is configured by default; spans still give every log line of
// a run a trace_id through logging.WithTrace. Pass sdktrace options to Init
// to attach an exporter.
package tracing
