package proxy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"hohl-rocks/relay/pkg/providers"
)

const (
	// MaxRequestBodySize is the default limit for JSON request bodies (1MB).
	MaxRequestBodySize = 1 << 20

	// ForwardedForHeader carries the client address behind a reverse proxy.
	ForwardedForHeader = "X-Forwarded-For"
)

// Client error codes.
const (
	CodeInvalidBody  = "invalid_body"
	CodeBodyTooLarge = "body_too_large"
	CodeMissingQuery = "missing_query"
	CodeRateLimited  = "rate_limited"
	CodeNotFound     = "not_found"
	CodeMethod       = "method_not_allowed"
	CodeInternal     = "internal_error"
)

// DecodeJSON reads r's body into v. The body is limited to limit bytes
// (MaxRequestBodySize when limit <= 0). An empty body leaves v untouched.
//
// All failures are *RequestError values carrying a client code.
func DecodeJSON(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	if limit <= 0 {
		limit = MaxRequestBodySize
	}
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return &RequestError{
				Message:    fmt.Sprintf("request body exceeds maximum size of %d bytes", limit),
				Code:       CodeBodyTooLarge,
				StatusCode: http.StatusRequestEntityTooLarge,
			}
		case errors.Is(err, io.EOF):
			return nil
		default:
			return &RequestError{
				Message:    fmt.Sprintf("invalid JSON: %v", err),
				Code:       CodeInvalidBody,
				StatusCode: http.StatusBadRequest,
			}
		}
	}
	return nil
}

// RunInput is the "input" member of a run request. Clients send either an
// object with a text field or a bare string.
type RunInput struct {
	Text string `json:"text"`
}

// UnmarshalJSON accepts both {"text": "..."} and "...".
func (in *RunInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &in.Text)
	}
	type plain RunInput
	return json.Unmarshal(data, (*plain)(in))
}

// RunRequest is the body of POST /run. Two generations of the frontend are
// in use, so most members have an alias.
type RunRequest struct {
	PromptID string `json:"promptId"`
	ID       string `json:"id"`

	// RawPrompt replaces the catalog system prompt when set.
	RawPrompt string `json:"rawPrompt"`

	UserInput string    `json:"userInput"`
	Input     *RunInput `json:"input"`

	ConversationHistory []providers.Message `json:"conversationHistory"`
	Thread              []providers.Message `json:"thread"`
}

// Prompt returns the prompt catalog id.
func (r *RunRequest) Prompt() string {
	if r.PromptID != "" {
		return r.PromptID
	}
	return r.ID
}

// UserText returns the user's latest input.
func (r *RunRequest) UserText() string {
	if r.UserInput != "" {
		return r.UserInput
	}
	if r.Input != nil {
		return r.Input.Text
	}
	return ""
}

// History returns the prior conversation.
func (r *RunRequest) History() []providers.Message {
	if len(r.ConversationHistory) > 0 {
		return r.ConversationHistory
	}
	return r.Thread
}

// ClientIP returns the address used to key per-client state. With
// trustProxy the left-most X-Forwarded-For entry wins, otherwise the peer
// address of the connection is used.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get(ForwardedForHeader); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
