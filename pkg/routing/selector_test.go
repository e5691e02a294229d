package routing

import (
	"errors"
	"slices"
	"testing"

	"hohl-rocks/relay/pkg/providers"
)

func TestSelectProvider(t *testing.T) {
	anthropic := providers.Credential{Provider: providers.Anthropic, APIKey: "sk-ant-x"}
	openai := providers.Credential{Provider: providers.OpenAI, APIKey: "sk-x"}
	openrouter := providers.Credential{Provider: providers.OpenRouter, APIKey: "sk-or-x"}

	tests := []struct {
		name      string
		creds     []providers.Credential
		want      providers.Name
		wantChain []providers.Name
	}{
		{
			name:      "all configured",
			creds:     []providers.Credential{openrouter, openai, anthropic},
			want:      providers.Anthropic,
			wantChain: []providers.Name{providers.Anthropic, providers.OpenAI, providers.OpenRouter},
		},
		{
			name:      "openai only",
			creds:     []providers.Credential{openai},
			want:      providers.OpenAI,
			wantChain: []providers.Name{providers.OpenAI},
		},
		{
			name:      "openai beats openrouter",
			creds:     []providers.Credential{openrouter, openai},
			want:      providers.OpenAI,
			wantChain: []providers.Name{providers.OpenAI, providers.OpenRouter},
		},
		{
			name:      "openrouter only",
			creds:     []providers.Credential{openrouter},
			want:      providers.OpenRouter,
			wantChain: []providers.Name{providers.OpenRouter},
		},
		{
			name:      "empty keys ignored",
			creds:     []providers.Credential{{Provider: providers.Anthropic, APIKey: "  "}, openrouter},
			want:      providers.OpenRouter,
			wantChain: []providers.Name{providers.OpenRouter},
		},
		{
			name:      "nothing configured",
			want:      providers.None,
			wantChain: []providers.Name{},
		},
		{
			name:      "unknown provider ignored",
			creds:     []providers.Credential{{Provider: "mistral", APIKey: "x"}},
			want:      providers.None,
			wantChain: []providers.Name{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds := NewCredentials(tt.creds...)

			if got := SelectProvider(creds); got != tt.want {
				t.Errorf("SelectProvider() = %q, want %q", got, tt.want)
			}
			if got := Chain(creds); !slices.Equal(got, tt.wantChain) {
				t.Errorf("Chain() = %v, want %v", got, tt.wantChain)
			}
		})
	}
}

func TestSelectProvider_Pure(t *testing.T) {
	creds := NewCredentials(providers.Credential{Provider: providers.OpenAI, APIKey: "sk-x"})
	first := SelectProvider(creds)
	for range 10 {
		if got := SelectProvider(creds); got != first {
			t.Fatalf("SelectProvider() changed from %q to %q", first, got)
		}
	}
}

func TestNewCredentials_Defaults(t *testing.T) {
	creds := NewCredentials(
		providers.Credential{Provider: providers.Anthropic, APIKey: "a", Model: "claude-custom"},
		providers.Credential{Provider: providers.Anthropic, APIKey: "b"},
		providers.Credential{Provider: providers.OpenAI, APIKey: "c"},
	)

	if creds.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", creds.Len())
	}
	a, _ := creds.Get(providers.Anthropic)
	if a.APIKey != "a" || a.Model != "claude-custom" {
		t.Errorf("first anthropic entry should win, got %+v", a)
	}
	o, _ := creds.Get(providers.OpenAI)
	if o.Model != providers.DefaultOpenAIModel || o.BaseURL != providers.DefaultOpenAIBaseURL {
		t.Errorf("defaults not applied: %+v", o)
	}

	list := creds.List()
	if len(list) != 2 || list[0].Provider != providers.Anthropic {
		t.Errorf("List() not in priority order: %+v", list)
	}
	if ActiveModel(creds) != "claude-custom" {
		t.Errorf("ActiveModel() = %q", ActiveModel(creds))
	}
	if ActiveModel(NewCredentials()) != "" {
		t.Error("ActiveModel() should be empty without providers")
	}
}

func TestAllProvidersFailedError(t *testing.T) {
	last := &providers.ProviderError{Provider: "openai", StatusCode: 502}
	err := &AllProvidersFailedError{Attempted: []string{"anthropic", "openai"}, LastError: last}

	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Error("expected errors.Is(err, ErrAllProvidersFailed)")
	}
	var pe *providers.ProviderError
	if !errors.As(err, &pe) || pe.StatusCode != 502 {
		t.Errorf("expected to unwrap to the last provider error, got %v", pe)
	}
	if providers.ClientMessage(err) != "openai_http_502" {
		t.Errorf("ClientMessage() = %q", providers.ClientMessage(err))
	}
}
