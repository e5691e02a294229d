// Package middleware provides HTTP middleware for cross-cutting concerns.
//
// # Middleware Chain
//
// The server wraps its mux in this order (outermost first):
//
//	handler = Recovery(Logging(RequestID(CORS(RateLimit(mux)))))
//
// Handlers registered on the mux are wrapped with Routed so that access logs
// and metrics carry the matched pattern instead of the raw path. Streaming
// routes are additionally wrapped with StreamingMiddleware, which lifts the
// server write timeout for the lifetime of the response.
//
// # Middleware Types
//
// Request tracking:
//   - RequestIDMiddleware: UUID request ID in context and X-Request-ID header
//   - LoggingMiddleware: access log with level by status class, HTTP metrics
//
// Security and resilience:
//   - CORSMiddleware: exact, "*" and wildcard origin patterns
//   - RateLimitMiddleware: per-client token bucket, 429 with Retry-After
//   - RecoveryMiddleware: recover from panics, return 500
package middleware
