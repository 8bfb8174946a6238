// Package tracing sets up OpenTelemetry tracing for guardrail.
//
// Each evaluation produces a "guardrail.evaluate" span with one child span
// per phase ("guardrail.phase.layout", ...). The root span carries the
// evaluation id, mode and verdict summary (score, canExport, finding counts
// and rule ids).
//
// Spans are exported over OTLP gRPC when telemetry.tracing.enabled is set;
// otherwise a noop tracer is used and spans cost next to nothing:
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	eng, err := engine.New(catalog, engine.DefaultConfig().WithTracer(tracer.Tracer()))
//
// Incoming requests to the HTTP host join existing traces through the W3C
// traceparent header (see HTTPMiddleware), and capability providers forward
// the context with Inject.
package tracing
