// Package ratelimit limits request rates per client.
//
// Each client key (usually the client IP) owns a token bucket. The bucket
// holds up to Burst tokens and refills at RequestsPerMinute/60 tokens per
// second; each request takes one token.
//
//	limiter := ratelimit.New(ratelimit.Config{RequestsPerMinute: 60, Burst: 60})
//	if res := limiter.Allow(clientIP); !res.Allowed {
//	    // reply 429 with Retry-After: res.RetryAfter
//	}
//
// Buckets idle for longer than IdleTTL are dropped by Sweep, which the
// janitor started with StartJanitor calls periodically.
package ratelimit
