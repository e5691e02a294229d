package metrics

import (
	"time"

	"hohl-rocks/relay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RelayMetrics tracks streaming sessions and background ingest runs.
type RelayMetrics struct {
	streams        *prometheus.CounterVec
	streamDuration *prometheus.HistogramVec
	fragments      *prometheus.CounterVec
	fallbacks      *prometheus.CounterVec
	active         prometheus.Gauge

	ingestRuns     *prometheus.CounterVec
	ingestItems    prometheus.Gauge
	ingestDuration prometheus.Histogram
}

// NewRelayMetrics creates and registers relay metrics.
func NewRelayMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RelayMetrics {
	rm := &RelayMetrics{
		streams: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "streams_total",
				Help:      "Total number of relay streams by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),

		streamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "stream_duration_seconds",
				Help:      "Duration of relay streams in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
			[]string{"provider"},
		),

		fragments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "stream_fragments_total",
				Help:      "Total number of text fragments forwarded to clients",
			},
			[]string{"provider"},
		),

		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "fallbacks_total",
				Help:      "Total number of provider fallbacks before streaming started",
			},
			[]string{"from", "to"},
		),

		active: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "streams_active",
				Help:      "Number of relay streams currently open",
			},
		),

		ingestRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ingest_runs_total",
				Help:      "Total number of news ingest runs by status",
			},
			[]string{"status"},
		),

		ingestItems: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ingest_items",
				Help:      "Number of items written by the last successful ingest run",
			},
		),

		ingestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "ingest_duration_seconds",
				Help:      "Duration of news ingest runs in seconds",
				Buckets:   cfg.RequestDurationBuckets,
			},
		),
	}

	registry.MustRegister(
		rm.streams,
		rm.streamDuration,
		rm.fragments,
		rm.fallbacks,
		rm.active,
		rm.ingestRuns,
		rm.ingestItems,
		rm.ingestDuration,
	)

	return rm
}

// RecordStream records a finished stream.
func (rm *RelayMetrics) RecordStream(provider, outcome string, fragments int, duration time.Duration) {
	if provider == "" {
		provider = "none"
	}
	rm.streams.WithLabelValues(provider, outcome).Inc()
	rm.streamDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if fragments > 0 {
		rm.fragments.WithLabelValues(provider).Add(float64(fragments))
	}
}

// RecordIngest records an ingest run.
func (rm *RelayMetrics) RecordIngest(status string, items int, duration time.Duration) {
	rm.ingestRuns.WithLabelValues(status).Inc()
	rm.ingestDuration.Observe(duration.Seconds())
	if status == "success" {
		rm.ingestItems.Set(float64(items))
	}
}
