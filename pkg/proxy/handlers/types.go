package handlers

import (
	"context"

	"hohl-rocks/relay/pkg/news"
	"hohl-rocks/relay/pkg/providers"
	"hohl-rocks/relay/pkg/replicate"
	"hohl-rocks/relay/pkg/search/tavily"
)

// Streamer starts a relay call. *relay.Relay implements it.
type Streamer interface {
	Stream(ctx context.Context, req *providers.GenerationRequest) <-chan providers.Fragment
}

// Completer produces a single non-streaming completion.
// *completion.Facade implements it.
type Completer interface {
	Available() bool
	Complete(ctx context.Context, prompt, system string) (string, error)
}

// PromptCatalog resolves prompt ids to system prompts.
// *prompts.Catalog implements it.
type PromptCatalog interface {
	SystemPrompt(id string) string
	IDs() []string
}

// NewsSource produces the news and daily lists. *news.Service implements it.
type NewsSource interface {
	News(ctx context.Context) []news.Item
	Daily(ctx context.Context) []news.Item
}

// Searcher runs web searches. *tavily.Client implements it.
type Searcher interface {
	Configured() bool
	Search(ctx context.Context, q tavily.Query) ([]tavily.Result, error)
}

// Predictor runs Replicate predictions. *replicate.Client implements it.
type Predictor interface {
	Configured() bool
	Run(ctx context.Context, in replicate.Input) (*replicate.Prediction, error)
}

// Prober pings every configured provider. *providerfactory.Manager
// implements it.
type Prober interface {
	Probe(ctx context.Context) map[providers.Name]error
}
