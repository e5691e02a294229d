package openai

import (
	"encoding/json"
	"log/slog"
	"maps"
	"strings"

	"hohl-rocks/relay/pkg/providers"
)

// Adapter is the OpenAI-compatible chat completions adapter.
type Adapter struct {
	name     providers.Name
	cred     providers.Credential
	endpoint string
	headers  map[string]string
}

var _ providers.Adapter = (*Adapter)(nil)

// Option customizes an Adapter.
type Option func(*Adapter)

// WithEndpoint overrides the completions URL. By default it is
// {base}/chat/completions.
func WithEndpoint(url string) Option {
	return func(a *Adapter) { a.endpoint = url }
}

// WithHeaders adds headers sent with every request. Empty values are skipped.
func WithHeaders(headers map[string]string) Option {
	return func(a *Adapter) {
		for k, v := range headers {
			if strings.TrimSpace(v) == "" {
				continue
			}
			a.headers[k] = v
		}
	}
}

// WithName sets the provider name reported by the adapter. Used by vendors
// that share the OpenAI dialect.
func WithName(name providers.Name) Option {
	return func(a *Adapter) { a.name = name }
}

// New creates an OpenAI-compatible adapter for cred.
func New(cred providers.Credential, opts ...Option) (*Adapter, error) {
	if cred.Provider == providers.None {
		cred.Provider = providers.OpenAI
	}
	a := &Adapter{
		name:    cred.Provider,
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(a)
	}
	cred.Provider = a.name

	if !cred.Configured() {
		return nil, &providers.ConfigError{
			Provider: string(a.name),
			Field:    "api_key",
			Message:  "API key is required",
		}
	}

	a.cred = cred.WithDefaults()
	if a.endpoint == "" {
		a.endpoint = a.cred.BaseURL + "/chat/completions"
	}
	return a, nil
}

// Name implements providers.Adapter.
func (a *Adapter) Name() providers.Name { return a.name }

// Model implements providers.Adapter.
func (a *Adapter) Model() string { return a.cred.Model }

// Endpoint implements providers.Adapter.
func (a *Adapter) Endpoint() string { return a.endpoint }

// PingURL implements providers.Pinger.
func (a *Adapter) PingURL() string { return a.cred.BaseURL + "/models" }

// Headers implements providers.Adapter.
func (a *Adapter) Headers() map[string]string {
	h := map[string]string{
		"Authorization": "Bearer " + a.cred.APIKey,
		"Content-Type":  "application/json",
		"Accept":        "text/event-stream",
	}
	maps.Copy(h, a.headers)
	return h
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
	if !ok {
		return providers.Fragment{}, false
	}
	data = strings.TrimSpace(data)
	if data == "" {
		return providers.Fragment{}, false
	}
	if data == doneSentinel {
		return providers.DoneFragment(), true
	}

	var chunk OpenAIStreamResponse
	if err := json.Unmarshal([]byte(data), &chunk); err != nil {
		slog.Debug("dropping malformed frame", "provider", a.name, "error", err)
		return providers.Fragment{}, false
	}

	if chunk.Error != nil {
		msg := chunk.Error.Message
		if msg == "" {
			msg = "upstream error"
		}
		return providers.ErrorFragment(msg), true
	}

	if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
		return providers.Fragment{}, false
	}
	return providers.DeltaFragment(chunk.Choices[0].Delta.Content), true
}

// ParseCompletion implements providers.Adapter.
func (a *Adapter) ParseCompletion(body []byte) (string, error) {
	var resp OpenAIResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &providers.ParseError{Provider: string(a.name), RawResponse: string(body), Cause: err}
	}
	text, err := responseText(&resp)
	if err != nil {
		return "", &providers.ParseError{Provider: string(a.name), RawResponse: string(body), Cause: err}
	}
	return text, nil
}
