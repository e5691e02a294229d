package metrics

import (
	"sync"
	"time"

	"hohl-rocks/relay/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns every Prometheus metric of the relay service and exposes
// one recording method per event. All methods are safe on a nil Collector
// and no-ops when metrics are disabled, so callers never branch on config.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics  *RequestMetrics
	providerMetrics *ProviderMetrics
	relayMetrics    *RelayMetrics
	cacheMetrics    *CacheMetrics

	cardinalityLimiter *CardinalityLimiter
}

// otherLabel replaces label values once the cardinality limit is reached.
const otherLabel = "other"

// NewCollector creates a collector registered on registry. A nil registry
// gets a fresh one.
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = config.DefaultMetricsSubsystem
	}
	if len(cfg.RequestDurationBuckets) == 0 {
		cfg.RequestDurationBuckets = append([]float64(nil), config.DefaultRequestDurationBuckets...)
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}

	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.providerMetrics = NewProviderMetrics(cfg, registry)
	c.relayMetrics = NewRelayMetrics(cfg, registry)
	c.cacheMetrics = NewCacheMetrics(cfg, registry)

	return c
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordHTTPRequest records a finished HTTP request. route should be the
// registered pattern, not the raw path.
func (c *Collector) RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	if !c.enabled() {
		return
	}

	if !c.cardinalityLimiter.Allow("http:" + route) {
		route = otherLabel
	}
	c.requestMetrics.Record(route, method, status, duration)
}

// RecordRateLimited counts a request rejected by the per-client limiter.
func (c *Collector) RecordRateLimited(route string) {
	if !c.enabled() {
		return
	}
	if !c.cardinalityLimiter.Allow("http:" + route) {
		route = otherLabel
	}
	c.requestMetrics.RecordRateLimited(route)
}

// RecordProviderRequest records one upstream call attempt and its
// time to first byte.
func (c *Collector) RecordProviderRequest(provider, model string, ttfb time.Duration) {
	if !c.enabled() {
		return
	}
	if !c.cardinalityLimiter.Allow("provider:" + provider + ":" + model) {
		model = otherLabel
	}
	c.providerMetrics.RecordRequest(provider, model)
	c.providerMetrics.RecordLatency(provider, model, ttfb.Seconds())
}

// UpdateProviderHealth sets the health gauge of a provider (1=healthy).
func (c *Collector) UpdateProviderHealth(provider string, healthy bool) {
	if !c.enabled() {
		return
	}
	c.providerMetrics.UpdateHealth(provider, healthy)
}

// RecordProviderError counts an upstream failure. errorType is one of
// "auth", "rate_limit", "timeout", "server_error", "client_error",
// "network" or "stream".
func (c *Collector) RecordProviderError(provider, errorType string) {
	if !c.enabled() {
		return
	}
	c.providerMetrics.RecordError(provider, errorType)
}

// StreamStarted increments the active stream gauge.
func (c *Collector) StreamStarted() {
	if !c.enabled() {
		return
	}
	c.relayMetrics.active.Inc()
}

// StreamFinished records the outcome of a relay stream and decrements the
// active gauge. outcome is "done", "failed" or "cancelled".
func (c *Collector) StreamFinished(provider, outcome string, fragments int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.relayMetrics.active.Dec()
	c.relayMetrics.RecordStream(provider, outcome, fragments, duration)
}

// RecordFallback counts a switch from one provider to the next before any
// fragment was forwarded.
func (c *Collector) RecordFallback(from, to string) {
	if !c.enabled() {
		return
	}
	c.relayMetrics.fallbacks.WithLabelValues(from, to).Inc()
}

// RecordCacheHit records a cache hit.
func (c *Collector) RecordCacheHit(cacheName string) {
	if !c.enabled() {
		return
	}
	c.cacheMetrics.RecordHit(cacheName)
}

// RecordCacheMiss records a cache miss.
func (c *Collector) RecordCacheMiss(cacheName string) {
	if !c.enabled() {
		return
	}
	c.cacheMetrics.RecordMiss(cacheName)
}

// UpdateCacheSize updates the current number of entries of a cache.
func (c *Collector) UpdateCacheSize(cacheName string, size int) {
	if !c.enabled() {
		return
	}
	c.cacheMetrics.UpdateSize(cacheName, size)
}

// RecordCacheEviction counts n expired entries removed from a cache.
func (c *Collector) RecordCacheEviction(cacheName string, n int) {
	if !c.enabled() || n <= 0 {
		return
	}
	c.cacheMetrics.RecordEviction(cacheName, n)
}

// RecordIngestRun records one news ingest run. status is "success" or "error".
func (c *Collector) RecordIngestRun(status string, items int, duration time.Duration) {
	if !c.enabled() {
		return
	}
	c.relayMetrics.RecordIngest(status, items, duration)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter caps the number of distinct label sets a collector
// will create.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter allowing maxCardinality label sets.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelSet is already known or still fits under the
// limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelSet]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
