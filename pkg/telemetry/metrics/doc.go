// Package metrics provides Prometheus metrics for the relay service.
//
// A single Collector owns a registry and groups metrics by area:
//
//   - Request metrics: HTTP requests by route, method and status, latency,
//     rate-limited requests
//   - Provider metrics: health gauge, time to first byte, errors by type
//   - Relay metrics: streams by outcome, forwarded fragments, fallbacks,
//     active streams, news ingest runs
//   - Cache metrics: hits, misses, entries and evictions per cache
//
// Metric names are prefixed with the configured namespace and subsystem
// (hohl_relay_ by default).
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.StreamStarted()
//	defer collector.StreamFinished("anthropic", "done", n, time.Since(start))
//
// Every method is a no-op on a nil Collector or when metrics are disabled.
//
// Route and model labels go through a CardinalityLimiter; once the limit is
// reached new values are recorded as "other".
package metrics
