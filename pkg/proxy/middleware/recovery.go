package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"hohl-rocks/relay/pkg/proxy"
)

// RecoveryMiddleware recovers from panics in HTTP handlers and answers
// 500 {"error":"internal_error"}. The stack trace is logged, never sent.
//
// http.ErrAbortHandler is re-panicked so net/http can abort the
// connection as usual.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			if err == http.ErrAbortHandler {
				panic(err)
			}

			slog.ErrorContext(r.Context(), "panic in handler",
				"error", err,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)

			_ = proxy.WriteError(w, http.StatusInternalServerError, proxy.CodeInternal)
		}()

		next.ServeHTTP(w, r)
	})
}
