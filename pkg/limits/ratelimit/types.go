package ratelimit

import (
	"time"

	"hohl-rocks/relay/pkg/config"
)

// Config configures a Limiter.
type Config struct {
	// RequestsPerMinute is the sustained rate per client.
	RequestsPerMinute int

	// Burst is the bucket capacity. Defaults to RequestsPerMinute.
	Burst int

	// IdleTTL is how long an unused bucket is kept.
	// Default: 10m
	IdleTTL time.Duration
}

// FromConfig maps the rate limit section of the service configuration.
func FromConfig(cfg config.RateLimitConfig) Config {
	return Config{
		RequestsPerMinute: cfg.RequestsPerMinute,
		Burst:             cfg.Burst,
		IdleTTL:           cfg.IdleTTL,
	}
}

// Result is the outcome of one Allow call.
type Result struct {
	// Allowed is true when the request may proceed.
	Allowed bool

	// Limit is the bucket capacity.
	Limit int64

	// Remaining is the number of whole tokens left after this request.
	Remaining int64

	// RetryAfter is the wait until the next token, zero when allowed.
	RetryAfter time.Duration
}
