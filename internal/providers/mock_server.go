// Package providers holds test doubles for upstream LLM vendors: a scripted
// HTTP server speaking the Anthropic and OpenAI wire formats, and helpers to
// drain relay fragment streams.
package providers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockServer is a scripted upstream. Responses are keyed by URL path.
type MockServer struct {
	server    *httptest.Server
	responses map[string]MockResponse
	requests  []CapturedRequest
	mu        sync.Mutex
}

// MockResponse scripts one endpoint.
type MockResponse struct {
	StatusCode int
	Body       any
	Delay      time.Duration
	Headers    map[string]string

	// StreamChunks are data payloads, each written as "data: <chunk>\n\n".
	StreamChunks []string

	// RawStream is written verbatim, one flush per element. Use it to split
	// frames, runes or CRLF pairs across writes.
	RawStream []string

	// ChunkDelay is slept between stream writes.
	ChunkDelay time.Duration

	// Done appends "data: [DONE]\n\n" after StreamChunks.
	Done bool

	// Hang keeps the connection open after the stream until the client
	// goes away.
	Hang bool
}

// CapturedRequest is a request seen by the server.
type CapturedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// NewMockServer starts a new mock server.
func NewMockServer() *MockServer {
	ms := &MockServer{
		responses: make(map[string]MockResponse),
	}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handler))
	return ms
}

// URL returns the server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close shuts the server down.
func (ms *MockServer) Close() {
	ms.server.CloseClientConnections()
	ms.server.Close()
}

// SetResponse scripts the response for path.
func (ms *MockServer) SetResponse(path string, response MockResponse) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.responses[path] = response
}

// GetRequestCount returns the number of requests received.
func (ms *MockServer) GetRequestCount() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.requests)
}

// Requests returns a copy of the captured requests.
func (ms *MockServer) Requests() []CapturedRequest {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return append([]CapturedRequest(nil), ms.requests...)
}

// LastRequest returns the most recent request. ok is false when none arrived.
func (ms *MockServer) LastRequest() (CapturedRequest, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if len(ms.requests) == 0 {
		return CapturedRequest{}, false
	}
	return ms.requests[len(ms.requests)-1], true
}

func (ms *MockServer) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	ms.mu.Lock()
	ms.requests = append(ms.requests, CapturedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Header: r.Header.Clone(),
		Body:   body,
	})
	response, ok := ms.responses[r.URL.Path]
	ms.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if response.Delay > 0 {
		select {
		case <-time.After(response.Delay):
		case <-r.Context().Done():
			return
		}
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}

	if len(response.StreamChunks) > 0 || len(response.RawStream) > 0 || response.Hang {
		ms.handleStream(w, r, response)
		return
	}

	status := response.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	switch v := response.Body.(type) {
	case nil:
	case string:
		_, _ = io.WriteString(w, v)
	case []byte:
		_, _ = w.Write(v)
	default:
		_ = json.NewEncoder(w).Encode(v)
	}
}

func (ms *MockServer) handleStream(w http.ResponseWriter, r *http.Request, response MockResponse) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	write := func(s string) bool {
		if _, err := io.WriteString(w, s); err != nil {
			return false
		}
		flusher.Flush()
		if response.ChunkDelay > 0 {
			select {
			case <-time.After(response.ChunkDelay):
			case <-r.Context().Done():
				return false
			}
		}
		return true
	}

	for _, chunk := range response.StreamChunks {
		if !write("data: " + chunk + "\n\n") {
			return
		}
	}
	for _, raw := range response.RawStream {
		if !write(raw) {
			return
		}
	}
	if response.Done {
		write("data: [DONE]\n\n")
	}

	if response.Hang {
		<-r.Context().Done()
	}
}

// OpenAIStreamChunk returns one chat.completion.chunk payload.
func OpenAIStreamChunk(delta string) string {
	chunk := map[string]any{
		"id":      "chatcmpl-123",
		"object":  "chat.completion.chunk",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{
			{
				"index": 0,
				"delta": map[string]any{"content": delta},
			},
		},
	}
	b, _ := json.Marshal(chunk)
	return string(b)
}

// OpenAICompletion returns a non-streaming chat completion body.
func OpenAICompletion(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-123",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	}
}

// AnthropicCompletion returns a non-streaming messages body.
func AnthropicCompletion(content string) map[string]any {
	return map[string]any{
		"id":          "msg_123",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": content}},
		"stop_reason": "end_turn",
	}
}

// AnthropicEvent returns one complete SSE frame "event: <type>\ndata: <json>\n\n".
func AnthropicEvent(eventType string, data any) string {
	b, _ := json.Marshal(data)
	return fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, b)
}

// AnthropicStream returns the full event sequence of a message whose text
// deltas are texts: message_start, content_block_start, ping, one
// content_block_delta per text, content_block_stop, message_delta and
// message_stop.
func AnthropicStream(texts ...string) []string {
	frames := []string{
		AnthropicEvent("message_start", map[string]any{
			"type":    "message_start",
			"message": map[string]any{"id": "msg_123", "role": "assistant", "content": []any{}},
		}),
		AnthropicEvent("content_block_start", map[string]any{
			"type": "content_block_start", "index": 0,
			"content_block": map[string]any{"type": "text", "text": ""},
		}),
		AnthropicEvent("ping", map[string]any{"type": "ping"}),
	}
	for _, text := range texts {
		frames = append(frames, AnthropicEvent("content_block_delta", map[string]any{
			"type": "content_block_delta", "index": 0,
			"delta": map[string]any{"type": "text_delta", "text": text},
		}))
	}
	return append(frames,
		AnthropicEvent("content_block_stop", map[string]any{"type": "content_block_stop", "index": 0}),
		AnthropicEvent("message_delta", map[string]any{
			"type":  "message_delta",
			"delta": map[string]any{"stop_reason": "end_turn"},
		}),
		AnthropicEvent("message_stop", map[string]any{"type": "message_stop"}),
	)
}

// ErrorResponse returns a vendor-style JSON error with the given status.
func ErrorResponse(statusCode int, message string) MockResponse {
	return MockResponse{
		StatusCode: statusCode,
		Body: map[string]any{
			"error": map[string]any{
				"message": message,
				"type":    "api_error",
			},
		},
	}
}

// AuthError returns a 401.
func AuthError() MockResponse {
	return ErrorResponse(http.StatusUnauthorized, "invalid x-api-key")
}

// RateLimitError returns a 429 with Retry-After.
func RateLimitError(retryAfter int) MockResponse {
	response := ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded")
	response.Headers = map[string]string{"Retry-After": fmt.Sprintf("%d", retryAfter)}
	return response
}

// ServerError returns a 500.
func ServerError() MockResponse {
	return ErrorResponse(http.StatusInternalServerError, "internal server error")
}

// HasHeader reports whether a captured request carried key with a value
// containing want.
func (c CapturedRequest) HasHeader(key, want string) bool {
	return strings.Contains(c.Header.Get(key), want)
}
