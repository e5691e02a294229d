package metrics

import (
	"hohl-rocks/relay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics tracks the in-memory TTL caches (news, research).
//
// Hit rate per cache in PromQL:
//
//	rate(hohl_relay_cache_hits_total{cache="news"}[5m]) /
//	(rate(hohl_relay_cache_hits_total{cache="news"}[5m]) +
//	 rate(hohl_relay_cache_misses_total{cache="news"}[5m]))
type CacheMetrics struct {
	hitsTotal      *prometheus.CounterVec
	missesTotal    *prometheus.CounterVec
	entries        *prometheus.GaugeVec
	evictionsTotal *prometheus.CounterVec
}

// NewCacheMetrics creates and registers cache metrics.
func NewCacheMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	vec := func(name, help string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      name,
				Help:      help,
			},
			[]string{"cache"},
		)
	}

	cm := &CacheMetrics{
		hitsTotal:      vec("cache_hits_total", "Total number of cache hits"),
		missesTotal:    vec("cache_misses_total", "Total number of cache misses"),
		evictionsTotal: vec("cache_evictions_total", "Total number of expired entries removed"),
		entries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_entries",
				Help:      "Current number of entries in cache",
			},
			[]string{"cache"},
		),
	}

	registry.MustRegister(
		cm.hitsTotal,
		cm.missesTotal,
		cm.entries,
		cm.evictionsTotal,
	)

	return cm
}

// RecordHit records a cache hit.
func (cm *CacheMetrics) RecordHit(cacheName string) {
	cm.hitsTotal.WithLabelValues(cacheName).Inc()
}

// RecordMiss records a cache miss.
func (cm *CacheMetrics) RecordMiss(cacheName string) {
	cm.missesTotal.WithLabelValues(cacheName).Inc()
}

// UpdateSize sets the current entry count of a cache.
func (cm *CacheMetrics) UpdateSize(cacheName string, size int) {
	cm.entries.WithLabelValues(cacheName).Set(float64(size))
}

// RecordEviction counts removed expired entries.
func (cm *CacheMetrics) RecordEviction(cacheName string, n int) {
	cm.evictionsTotal.WithLabelValues(cacheName).Add(float64(n))
}
