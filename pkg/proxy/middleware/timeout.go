package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// StreamingMiddleware replaces the server's write timeout for long lived
// responses. The write deadline becomes now+d, or is cleared when d is
// zero; the handler is expected to bound the stream itself.
func StreamingMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var deadline time.Time
			if d > 0 {
				deadline = time.Now().Add(d)
			}

			if err := http.NewResponseController(w).SetWriteDeadline(deadline); err != nil {
				slog.DebugContext(r.Context(), "write deadline not adjustable",
					"path", r.URL.Path,
					"error", err,
				)
			}

			next.ServeHTTP(w, r)
		})
	}
}
