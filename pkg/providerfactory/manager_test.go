package providerfactory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"hohl-rocks/relay/pkg/providers"
)

func TestManager_Load(t *testing.T) {
	m := NewManager(Options{})
	defer m.Close()

	err := m.Load([]providers.Credential{
		{Provider: providers.OpenAI, APIKey: "sk-x"},
		{Provider: providers.Anthropic, APIKey: "sk-ant-x"},
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if m.Count() != 2 {
		t.Errorf("Count() = %d, want 2", m.Count())
	}
	want := []providers.Name{providers.Anthropic, providers.OpenAI}
	if got := m.Names(); !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	e, ok := m.Get(providers.Anthropic)
	if !ok {
		t.Fatal("anthropic not registered")
	}
	if e.Client.Name() != "anthropic" {
		t.Errorf("client name = %q", e.Client.Name())
	}

	if _, ok := m.Get(providers.OpenRouter); ok {
		t.Error("openrouter should not be registered")
	}
}

func TestManager_LoadCollectsErrors(t *testing.T) {
	m := NewManager(Options{})
	defer m.Close()

	err := m.Load([]providers.Credential{
		{Provider: providers.OpenAI, APIKey: "sk-x"},
		{Provider: "unknown", APIKey: "x"},
	})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if m.Count() != 1 {
		t.Errorf("valid credential should still be registered, Count() = %d", m.Count())
	}
}

func TestManager_AddReplaces(t *testing.T) {
	m := NewManager(Options{})
	defer m.Close()

	_ = m.Add(providers.Credential{Provider: providers.OpenAI, APIKey: "sk-x", Model: "gpt-4o"})
	_ = m.Add(providers.Credential{Provider: providers.OpenAI, APIKey: "sk-x", Model: "gpt-4o-mini"})

	if m.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", m.Count())
	}
	e, _ := m.Get(providers.OpenAI)
	if e.Adapter.Model() != "gpt-4o-mini" {
		t.Errorf("Model() = %q", e.Adapter.Model())
	}
}

func TestManager_Probe(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer healthy.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer broken.Close()

	m := NewManager(Options{})
	defer m.Close()
	_ = m.Load([]providers.Credential{
		{Provider: providers.OpenAI, APIKey: "sk-x", BaseURL: healthy.URL},
		{Provider: providers.Anthropic, APIKey: "sk-ant-x", BaseURL: broken.URL},
	})

	results := m.Probe(context.Background())
	if results[providers.OpenAI] != nil {
		t.Errorf("openai probe failed: %v", results[providers.OpenAI])
	}
	if results[providers.Anthropic] == nil {
		t.Error("anthropic probe should fail with 401")
	}

	summary := m.HealthSummary()
	if summary.Total != 2 {
		t.Errorf("Total = %d", summary.Total)
	}
	if summary.Details[providers.Anthropic].ConsecutiveFailures != 1 {
		t.Errorf("anthropic failures = %d", summary.Details[providers.Anthropic].ConsecutiveFailures)
	}
}

func TestManager_Close(t *testing.T) {
	m := NewManager(Options{})
	_ = m.Add(providers.Credential{Provider: providers.OpenAI, APIKey: "sk-x"})
	m.StartHealthChecks()

	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if m.Count() != 0 {
		t.Errorf("Count() after Close = %d", m.Count())
	}
}
