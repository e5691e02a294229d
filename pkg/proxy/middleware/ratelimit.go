package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"hohl-rocks/relay/pkg/limits/ratelimit"
	"hohl-rocks/relay/pkg/proxy"
	"hohl-rocks/relay/pkg/telemetry/metrics"
)

// RateLimitConfig configures RateLimitMiddleware.
type RateLimitConfig struct {
	// Limiter holds the per-client buckets. nil disables limiting.
	Limiter *ratelimit.Limiter

	// TrustProxy keys clients by X-Forwarded-For.
	TrustProxy bool

	// Prefixes lists the path prefixes that are limited. Empty limits every
	// path.
	Prefixes []string

	// Metrics records rejected requests. May be nil.
	Metrics *metrics.Collector
}

// RateLimitMiddleware applies the per-client token bucket to matching
// paths. Rejected requests get 429 {"error":"rate_limited"} with a
// Retry-After header in whole seconds. Every limited response carries the
// X-RateLimit-Limit and X-RateLimit-Remaining headers.
//
// Preflight requests are never limited.
func RateLimitMiddleware(config RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if config.Limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope, ok := limitScope(r.URL.Path, config.Prefixes)
			if r.Method == http.MethodOptions || !ok {
				next.ServeHTTP(w, r)
				return
			}

			ip := proxy.ClientIP(r, config.TrustProxy)
			ctx := context.WithValue(r.Context(), ClientIPKey, ip)

			result := config.Limiter.Allow(ip)
			if result.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
				w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
			}

			if !result.Allowed {
				retry := int(math.Ceil(result.RetryAfter.Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				config.Metrics.RecordRateLimited(scope)

				slog.WarnContext(ctx, "rate limit exceeded",
					"client_ip", ip,
					"path", r.URL.Path,
					"retry_after_s", retry,
				)
				_ = proxy.WriteError(w, http.StatusTooManyRequests, proxy.CodeRateLimited)
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClientIP returns the client address stored by RateLimitMiddleware.
func GetClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ClientIPKey).(string); ok {
		return ip
	}
	return ""
}

// limitScope returns the prefix path falls under. A prefix matches the path
// itself and everything below it. With no prefixes every path is limited
// under the scope "all".
func limitScope(path string, prefixes []string) (string, bool) {
	if len(prefixes) == 0 {
		return "all", true
	}
	for _, prefix := range prefixes {
		if path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/") {
			return prefix, true
		}
	}
	return "", false
}
