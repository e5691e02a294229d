package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"hohl-rocks/relay/pkg/telemetry/logging"
	"hohl-rocks/relay/pkg/telemetry/metrics"
)

// responseWriter wraps http.ResponseWriter to capture status code and size.
// Unwrap lets http.ResponseController reach Flush and SetWriteDeadline of
// the underlying writer.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	bytes      int64
	written    bool
}

// newResponseWriter creates a new response writer wrapper.
func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader captures the status code before writing.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

// Write ensures WriteHeader is called if not already done.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += int64(n)
	return n, err
}

// Flush implements http.Flusher for handlers that type-assert.
func (rw *responseWriter) Flush() {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	_ = http.NewResponseController(rw.ResponseWriter).Flush()
}

// Unwrap returns the wrapped writer.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// routeInfo is filled in by Routed once the mux matched a pattern.
type routeInfo struct {
	pattern string
}

const routeInfoKey contextKey = "route_info"

// LoggingMiddleware logs every request when it completes and records the
// request metrics. The level follows the status class: 5xx is logged as
// error, 4xx as warning, anything else as info.
//
// The route label is the mux pattern reported by Routed, or "unmatched",
// so that metric cardinality stays bounded.
func LoggingMiddleware(m *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			startTime := time.Now()
			info := &routeInfo{}
			ctx := context.WithValue(r.Context(), StartTimeKey, startTime)
			ctx = context.WithValue(ctx, routeInfoKey, info)

			rw := newResponseWriter(w)

			slog.DebugContext(ctx, "request started",
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			next.ServeHTTP(rw, r.WithContext(ctx))

			latency := time.Since(startTime)
			route := info.pattern
			if route == "" {
				route = "unmatched"
			}
			m.RecordHTTPRequest(route, r.Method, rw.statusCode, latency)

			logLevel := slog.LevelInfo
			if rw.statusCode >= 500 {
				logLevel = slog.LevelError
			} else if rw.statusCode >= 400 {
				logLevel = slog.LevelWarn
			}

			slog.Log(ctx, logLevel, "request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", rw.statusCode,
				"bytes", rw.bytes,
				"latency_ms", latency.Milliseconds(),
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		})
	}
}

// Routed wraps a handler registered on a ServeMux and reports the matched
// pattern to LoggingMiddleware and to the logging context.
func Routed(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if info, ok := r.Context().Value(routeInfoKey).(*routeInfo); ok {
			info.pattern = r.Pattern
		}
		next.ServeHTTP(w, r.WithContext(logging.WithRoute(r.Context(), r.Pattern)))
	})
}

// GetStartTime extracts the request start time from the context.
// Returns zero time if not found.
func GetStartTime(ctx context.Context) time.Time {
	if startTime, ok := ctx.Value(StartTimeKey).(time.Time); ok {
		return startTime
	}
	return time.Time{}
}
