package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys. Service-specific keys use the "relay." namespace.
const (
	AttrHTTPMethod = "http.request.method"
	AttrHTTPRoute  = "http.route"

	AttrProvider  = "relay.provider"
	AttrModel     = "relay.model"
	AttrAttempt   = "relay.attempt"
	AttrFallback  = "relay.fallback_from"
	AttrFragments = "relay.fragments"
	AttrOutcome   = "relay.outcome"
	AttrStatus    = "relay.upstream_status"

	AttrCacheHit  = "relay.cache.hit"
	AttrCacheName = "relay.cache.name"

	AttrRequestID = "relay.request_id"
)

// SetHTTPAttributes sets method and route on a server span.
func SetHTTPAttributes(span trace.Span, method, route string) {
	span.SetAttributes(
		attribute.String(AttrHTTPMethod, method),
		attribute.String(AttrHTTPRoute, route),
	)
}

// SetProviderAttributes sets the upstream provider and model.
func SetProviderAttributes(span trace.Span, provider, model string, attempt int) {
	span.SetAttributes(
		attribute.String(AttrProvider, provider),
		attribute.String(AttrModel, model),
		attribute.Int(AttrAttempt, attempt),
	)
}

// SetStreamResult records the final state of a relay stream.
func SetStreamResult(span trace.Span, outcome string, fragments int) {
	span.SetAttributes(
		attribute.String(AttrOutcome, outcome),
		attribute.Int(AttrFragments, fragments),
	)
}

// SetCacheAttributes records a cache lookup.
func SetCacheAttributes(span trace.Span, cacheName string, hit bool) {
	span.SetAttributes(
		attribute.String(AttrCacheName, cacheName),
		attribute.Bool(AttrCacheHit, hit),
	)
}

// AddFallbackEvent records a switch to the next provider.
func AddFallbackEvent(span trace.Span, from, to string, status int) {
	span.AddEvent("provider_fallback", trace.WithAttributes(
		attribute.String(AttrFallback, from),
		attribute.String(AttrProvider, to),
		attribute.Int(AttrStatus, status),
	))
}
