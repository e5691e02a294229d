// Package telemetry groups the observability packages of the relay.
//
// # Components
//
//   - logging: slog handlers with secret redaction
//   - metrics: Prometheus collectors for requests, relays, providers and caches
//   - tracing: OpenTelemetry spans exported over OTLP
//   - health: liveness, readiness and version endpoints
//
// # Usage
//
//	logger, err := logging.New(logging.FromConfig(cfg.Logging))
//	slog.SetDefault(logger)
//
//	collector := metrics.NewCollector(&cfg.Metrics, nil)
//	collector.RecordHTTPRequest("/run", "POST", 200, time.Second)
//
//	tracer, err := tracing.New(&cfg.Tracing)
//	ctx, span := tracing.StartSpan(ctx, "relay.stream")
//	defer span.End()
//
// Every collector method is safe on a nil receiver, so components accept an
// optional *metrics.Collector and callers pass nil when metrics are off.
//
// # Redaction
//
// Provider keys never reach the log output:
//
//   - sk-ant-abc123 → sk-a***
//   - Authorization: Bearer xyz → Bearer ***
package telemetry
