// Package openrouter configures the OpenAI-compatible adapter for OpenRouter.
//
// OpenRouter speaks the chat completions dialect and additionally accepts
// attribution headers identifying the calling site.
package openrouter

import (
	"hohl-rocks/relay/pkg/providers"
	"hohl-rocks/relay/pkg/providers/openai"
)

// Attribution headers. They are omitted when empty.
const (
	HeaderReferer = "HTTP-Referer"
	HeaderTitle   = "X-Title"
)

// New creates an OpenRouter adapter. referer and title become the
// attribution headers.
func New(cred providers.Credential, referer, title string) (*openai.Adapter, error) {
	cred.Provider = providers.OpenRouter
	return openai.New(cred,
		openai.WithName(providers.OpenRouter),
		openai.WithHeaders(map[string]string{
			HeaderReferer: referer,
			HeaderTitle:   title,
		}),
	)
}
