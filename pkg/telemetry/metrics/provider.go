package metrics

import (
	"hohl-rocks/relay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics tracks upstream LLM provider health and performance.
//
// Metrics:
//   - <ns>_<sub>_provider_health: 1=healthy, 0=unhealthy
//   - <ns>_<sub>_provider_ttfb_seconds: time until response headers arrived
//   - <ns>_<sub>_provider_errors_total: failures by type
//   - <ns>_<sub>_provider_requests_total: call attempts
type ProviderMetrics struct {
	health   *prometheus.GaugeVec
	latency  *prometheus.HistogramVec
	errors   *prometheus.CounterVec
	requests *prometheus.CounterVec
}

// NewProviderMetrics creates and registers provider metrics.
func NewProviderMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ProviderMetrics {
	pm := &ProviderMetrics{
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_health",
				Help:      "Provider health status (1=healthy, 0=unhealthy)",
			},
			[]string{"provider"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_ttfb_seconds",
				Help:      "Time until the provider returned response headers",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"provider", "model"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_errors_total",
				Help:      "Total number of provider errors by type",
			},
			[]string{"provider", "error_type"},
		),

		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "provider_requests_total",
				Help:      "Total number of requests sent to each provider",
			},
			[]string{"provider", "model"},
		),
	}

	registry.MustRegister(
		pm.health,
		pm.latency,
		pm.errors,
		pm.requests,
	)

	return pm
}

// UpdateHealth sets the health gauge.
func (pm *ProviderMetrics) UpdateHealth(provider string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	pm.health.WithLabelValues(provider).Set(value)
}

// RecordLatency observes the time to first byte in seconds.
func (pm *ProviderMetrics) RecordLatency(provider, model string, latencySeconds float64) {
	pm.latency.WithLabelValues(provider, model).Observe(latencySeconds)
}

// RecordError counts a provider error.
func (pm *ProviderMetrics) RecordError(provider, errorType string) {
	pm.errors.WithLabelValues(provider, errorType).Inc()
}

// RecordRequest counts a call attempt.
func (pm *ProviderMetrics) RecordRequest(provider, model string) {
	pm.requests.WithLabelValues(provider, model).Inc()
}
