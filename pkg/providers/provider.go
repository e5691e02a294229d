package providers

import (
	"strings"
)

// Adapter translates between the provider-agnostic request/fragment types and
// one vendor's wire format. Adapters hold no connection state; transport is
// handled by HTTPClient and stream decoding by the relay.
//
// The set of adapters is closed: anthropic, openai (any OpenAI-compatible
// endpoint) and openrouter. Adding a vendor means adding one implementation.
type Adapter interface {
	// Name returns the provider this adapter talks to.
	Name() Name

	// Model returns the model identifier sent upstream.
	Model() string

	// Endpoint returns the full URL generation requests are POSTed to.
	Endpoint() string

	// Headers returns the authentication and vendor headers for a request.
	Headers() map[string]string

	// BuildRequestBody encodes req as the vendor JSON body. streaming toggles
	// the vendor's SSE framing.
	BuildRequestBody(req *GenerationRequest, streaming bool) ([]byte, error)

	// ParseStreamFrame decodes one blank-line separated SSE frame. It returns
	// false when the frame carries nothing to forward (pings, metadata,
	// malformed JSON). A terminal sentinel yields a final fragment and an
	// in-band vendor error yields an error fragment.
	ParseStreamFrame(frame string) (Fragment, bool)

	// ParseCompletion extracts the completion text from a non-streaming
	// response body.
	ParseCompletion(body []byte) (string, error)
}

// Pinger is implemented by adapters that expose a cheap authenticated
// endpoint for health probes.
type Pinger interface {
	PingURL() string
}

// FrameData returns the data payload of an SSE frame. Multiple data lines are
// joined with a newline, comment lines (leading ':') are skipped and a single
// space after the colon is dropped. ok is false when the frame has no data
// field.
func FrameData(frame string) (data string, ok bool) {
	var lines []string
	for _, line := range strings.Split(frame, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}

		field, value, found := strings.Cut(line, ":")
		if field != "data" {
			continue
		}
		if found {
			value = strings.TrimPrefix(value, " ")
		}
		lines = append(lines, value)
	}

	if len(lines) == 0 {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}

// FrameEvent returns the value of the SSE event field, if present.
func FrameEvent(frame string) string {
	for _, line := range strings.Split(frame, "\n") {
		if value, found := strings.CutPrefix(line, "event:"); found {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
