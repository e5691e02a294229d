package metrics

import (
	"strconv"
	"time"

	"hohl-rocks/relay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks inbound HTTP traffic.
//
// Metrics:
//   - <ns>_<sub>_http_requests_total: requests by route, method and status
//   - <ns>_<sub>_http_request_duration_seconds: latency by route
//   - <ns>_<sub>_http_rate_limited_total: requests rejected by the limiter
type RequestMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	rateLimited     *prometheus.CounterVec
}

// NewRequestMetrics creates and registers request metrics.
func NewRequestMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests handled",
			},
			[]string{"route", "method", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds, streams included",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"route"},
		),

		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "http_rate_limited_total",
				Help:      "Total number of requests rejected by the rate limiter",
			},
			[]string{"route"},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.rateLimited,
	)

	return rm
}

// Record records one finished request.
func (rm *RequestMetrics) Record(route, method string, status int, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	rm.requestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordRateLimited counts one rejected request.
func (rm *RequestMetrics) RecordRateLimited(route string) {
	rm.rateLimited.WithLabelValues(route).Inc()
}
