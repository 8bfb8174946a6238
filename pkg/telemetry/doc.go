// Package telemetry groups guardrail's observability packages.
//
//   - logging: slog logger construction, context fields and secret redaction
//   - metrics: Prometheus collector for evaluations, capability calls and the
//     rule catalog
//   - tracing: OpenTelemetry tracer with OTLP export, or a noop tracer when
//     disabled
//   - health: liveness and readiness checks for the server
//
// The engine and capability chain depend only on small observer interfaces;
// cmd/guardrail builds the concrete implementations from config.Telemetry.
package telemetry
