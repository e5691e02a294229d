package proxy

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"hohl-rocks/relay/pkg/providers"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	return nil
}

// WriteError writes {"error": code} with the given status.
func WriteError(w http.ResponseWriter, status int, code string) error {
	return WriteJSON(w, status, errorBody{Error: code})
}

// WriteHandledError maps err with HandleError, logs it and writes the
// resulting error response.
func WriteHandledError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := HandleError(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request failed",
		"path", r.URL.Path,
		"status", status,
		"code", code,
		"error", err,
	)

	if err := WriteError(w, status, code); err != nil {
		slog.ErrorContext(r.Context(), "failed to write error response", "error", err)
	}
}

// SetSSEHeaders sets the headers of an event stream. X-Accel-Buffering
// disables response buffering in nginx style reverse proxies.
func SetSSEHeaders(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream; charset=utf-8")
	h.Set("Cache-Control", "no-cache, no-transform")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// sseRecord is one event stream record. Exactly one member is set.
type sseRecord struct {
	Delta *string `json:"delta,omitempty"`
	Done  bool    `json:"done,omitempty"`
	Error string  `json:"error,omitempty"`
}

// SSEWriter writes fragments as event stream records, flushing after each
// one.
type SSEWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController
}

// NewSSEWriter sets the stream headers, sends the 200 status and flushes so
// the client sees the response start before the first delta.
func NewSSEWriter(w http.ResponseWriter) *SSEWriter {
	SetSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	s := &SSEWriter{w: w, rc: http.NewResponseController(w)}
	_ = s.rc.Flush()
	return s
}

// WriteFragment writes f as a delta, done or error record.
func (s *SSEWriter) WriteFragment(f providers.Fragment) error {
	switch f.Kind() {
	case providers.KindError:
		return s.Error(f.ErrorMessage)
	case providers.KindDone:
		return s.Done()
	default:
		return s.Delta(f.Text)
	}
}

// Delta writes {"delta": text}.
func (s *SSEWriter) Delta(text string) error {
	return s.write(sseRecord{Delta: &text})
}

// Done writes {"done": true}.
func (s *SSEWriter) Done() error {
	return s.write(sseRecord{Done: true})
}

// Error writes {"error": msg}.
func (s *SSEWriter) Error(msg string) error {
	return s.write(sseRecord{Error: msg})
}

func (s *SSEWriter) write(rec sseRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal SSE record: %w", err)
	}

	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write SSE record: %w", err)
	}

	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("failed to flush SSE record: %w", err)
	}
	return nil
}
