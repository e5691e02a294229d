// Package tracing provides OpenTelemetry tracing for the relay service.
//
// Spans are exported over OTLP/gRPC. Incoming W3C traceparent headers are
// honored by HTTPMiddleware and propagated to upstream provider calls with
// Inject, so a single trace spans browser, relay and vendor.
//
// Samplers: always, never, ratio (parent based). With tracing disabled New
// returns a noop tracer and StartSpan still works against the global noop
// provider.
package tracing
