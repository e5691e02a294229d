package providerfactory

import (
	"fmt"
	"log/slog"

	"hohl-rocks/relay/pkg/providers"
	"hohl-rocks/relay/pkg/providers/anthropic"
	"hohl-rocks/relay/pkg/providers/openai"
	"hohl-rocks/relay/pkg/providers/openrouter"
)

// Options carries settings that are not part of a credential.
type Options struct {
	// Referer and Title are sent to OpenRouter as attribution headers.
	Referer string
	Title   string

	// Client is the transport template. Name is filled per provider.
	Client providers.ClientConfig
}

// New maps a credential to its adapter variant.
//
// Supported providers:
//   - anthropic: Anthropic Messages API
//   - openai: OpenAI chat completions
//   - openrouter: OpenAI-compatible with attribution headers
//
// Example:
//
//	adapter, err := providerfactory.New(providers.Credential{
//	    Provider: providers.OpenAI,
//	    APIKey:   "sk-...",
//	}, providerfactory.Options{})
func New(cred providers.Credential, opts Options) (providers.Adapter, error) {
	slog.Debug("creating adapter",
		"provider", cred.Provider,
		"model", cred.Model,
		"base_url", cred.BaseURL,
	)

	var (
		adapter providers.Adapter
		err     error
	)

	switch cred.Provider {
	case providers.Anthropic:
		adapter, err = anthropic.New(cred)

	case providers.OpenAI:
		adapter, err = openai.New(cred)

	case providers.OpenRouter:
		adapter, err = openrouter.New(cred, opts.Referer, opts.Title)

	default:
		return nil, &providers.ConfigError{
			Provider: string(cred.Provider),
			Field:    "provider",
			Message:  fmt.Sprintf("unsupported provider: %q (supported: anthropic, openai, openrouter)", cred.Provider),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create adapter %q: %w", cred.Provider, err)
	}
	return adapter, nil
}
