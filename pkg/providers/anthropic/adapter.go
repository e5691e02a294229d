package anthropic

import (
	"encoding/json"
	"log/slog"

	"hohl-rocks/relay/pkg/providers"
)

// DefaultAnthropicVersion is the API version header sent with every request.
const DefaultAnthropicVersion = "2023-06-01"

// Adapter is the Anthropic Messages API adapter.
type Adapter struct {
	cred providers.Credential
}

var _ providers.Adapter = (*Adapter)(nil)

// New creates the Anthropic adapter for cred.
func New(cred providers.Credential) (*Adapter, error) {
	cred.Provider = providers.Anthropic
	if !cred.Configured() {
		return nil, &providers.ConfigError{
			Provider: string(providers.Anthropic),
			Field:    "api_key",
			Message:  "API key is required for Anthropic",
		}
	}
	return &Adapter{cred: cred.WithDefaults()}, nil
}

// Name implements providers.Adapter.
func (a *Adapter) Name() providers.Name { return providers.Anthropic }

// Model implements providers.Adapter.
func (a *Adapter) Model() string { return a.cred.Model }

// Endpoint implements providers.Adapter.
func (a *Adapter) Endpoint() string { return a.cred.BaseURL + "/v1/messages" }

// PingURL implements providers.Pinger.
func (a *Adapter) PingURL() string { return a.cred.BaseURL + "/v1/models" }

// Headers implements providers.Adapter.
func (a *Adapter) Headers() map[string]string {
	return map[string]string{
		"x-api-key":         a.cred.APIKey,
		"anthropic-version": DefaultAnthropicVersion,
		"Content-Type":      "application/json",
		"Accept":            "text/event-stream",
	}
}

// BuildRequestBody implements providers.Adapter. The request is normalized
// on a copy, so system turns and unset defaults are handled here.
func (a *Adapter) BuildRequestBody(req *providers.GenerationRequest, streaming bool) ([]byte, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(transformRequest(a.cred.Model, req.Normalized(), streaming))
}

// ParseStreamFrame implements providers.Adapter.
func (a *Adapter) ParseStreamFrame(frame string) (providers.Fragment, bool) {
	data, ok := providers.FrameData(frame)
	if !ok || data == "" {
		return providers.Fragment{}, false
	}

	var event AnthropicStreamEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		slog.Debug("dropping malformed frame", "provider", providers.Anthropic, "error", err)
		return providers.Fragment{}, false
	}
	if event.Type == "" {
		event.Type = providers.FrameEvent(frame)
	}

	switch event.Type {
	case eventContentBlockDelta:
		if event.Delta != nil && event.Delta.Text != "" {
			return providers.DeltaFragment(event.Delta.Text), true
		}
	case eventMessageStop:
		return providers.DoneFragment(), true
	case eventError:
		msg := "upstream error"
		if event.Error != nil && event.Error.Message != "" {
			msg = event.Error.Message
		}
		return providers.ErrorFragment(msg), true
	case eventMessageStart, eventContentBlockStart, eventContentBlockStop, eventMessageDelta, eventPing:
		// Metadata only.
	}
	return providers.Fragment{}, false
}

// ParseCompletion implements providers.Adapter.
func (a *Adapter) ParseCompletion(body []byte) (string, error) {
	var resp AnthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &providers.ParseError{
			Provider:    string(providers.Anthropic),
			RawResponse: string(body),
			Cause:       err,
		}
	}

	text, err := responseText(&resp)
	if err != nil {
		return "", &providers.ParseError{
			Provider:    string(providers.Anthropic),
			RawResponse: string(body),
			Cause:       err,
		}
	}
	return text, nil
}
