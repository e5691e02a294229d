package completion

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	mock "hohl-rocks/relay/internal/providers"
	"hohl-rocks/relay/pkg/providerfactory"
	"hohl-rocks/relay/pkg/providers"
	"hohl-rocks/relay/pkg/relay"
	"hohl-rocks/relay/pkg/routing"
)

func setup(t *testing.T, names ...providers.Name) (routing.Credentials, *providerfactory.Manager, map[providers.Name]*mock.MockServer) {
	t.Helper()

	servers := make(map[providers.Name]*mock.MockServer)
	var creds []providers.Credential
	for _, name := range names {
		ms := mock.NewMockServer()
		t.Cleanup(ms.Close)
		servers[name] = ms
		creds = append(creds, mock.TestCredential(name, ms.URL()))
	}

	manager := providerfactory.NewManager(providerfactory.Options{})
	t.Cleanup(func() { _ = manager.Close() })
	if err := manager.Load(creds); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return routing.NewCredentials(creds...), manager, servers
}

func TestComplete_Placeholder(t *testing.T) {
	f := New(routing.NewCredentials(), providerfactory.NewManager(providerfactory.Options{}))

	text, err := f.Complete(context.Background(), "Hallo", "")
	mock.AssertNoError(t, err)
	if text != Placeholder {
		t.Errorf("Complete() = %q, want placeholder", text)
	}
	if f.Available() {
		t.Error("Available() = true without credentials")
	}
}

func TestComplete_Anthropic(t *testing.T) {
	creds, manager, servers := setup(t, providers.Anthropic)
	servers[providers.Anthropic].SetResponse("/v1/messages", mock.MockResponse{
		Body: mock.AnthropicCompletion("Guten Tag"),
	})

	text, err := New(creds, manager).Complete(context.Background(), "Hallo", "Sei knapp.")
	mock.AssertNoError(t, err)
	if text != "Guten Tag" {
		t.Errorf("Complete() = %q", text)
	}

	req, _ := servers[providers.Anthropic].LastRequest()
	body := string(req.Body)
	if strings.Contains(body, `"stream":true`) {
		t.Errorf("non-streaming call sent stream=true: %s", body)
	}
	if !strings.Contains(body, `"system":"Sei knapp."`) {
		t.Errorf("system instruction missing: %s", body)
	}
}

func TestCompleteRequest_HandBuiltRequest(t *testing.T) {
	creds, manager, servers := setup(t, providers.Anthropic)
	servers[providers.Anthropic].SetResponse("/v1/messages", mock.MockResponse{
		Body: mock.AnthropicCompletion("ok"),
	})

	req := &providers.GenerationRequest{
		Messages: []providers.Message{
			{Role: providers.RoleSystem, Content: "SYS"},
			{Role: providers.RoleUser, Content: "hi"},
		},
		Temperature: providers.Float64(0),
	}
	_, err := New(creds, manager).CompleteRequest(context.Background(), req)
	mock.AssertNoError(t, err)

	last, _ := servers[providers.Anthropic].LastRequest()
	body := string(last.Body)
	for _, want := range []string{`"system":"SYS"`, `"max_tokens":700`, `"temperature":0`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %s: %s", want, body)
		}
	}
}

func TestComplete_OpenAI(t *testing.T) {
	creds, manager, servers := setup(t, providers.OpenAI)
	servers[providers.OpenAI].SetResponse("/chat/completions", mock.MockResponse{
		Body: mock.OpenAICompletion("Hi"),
	})

	text, err := New(creds, manager).Complete(context.Background(), "Hallo", "")
	mock.AssertNoError(t, err)
	if text != "Hi" {
		t.Errorf("Complete() = %q", text)
	}
}

func TestComplete_OnlySelectedProvider(t *testing.T) {
	creds, manager, servers := setup(t, providers.Anthropic, providers.OpenAI)
	servers[providers.Anthropic].SetResponse("/v1/messages", mock.ServerError())
	servers[providers.OpenAI].SetResponse("/chat/completions", mock.MockResponse{
		Body: mock.OpenAICompletion("unused"),
	})

	_, err := New(creds, manager).Complete(context.Background(), "Hallo", "")
	if providers.ClientMessage(err) != "anthropic_http_500" {
		t.Errorf("error = %v", err)
	}
	if n := servers[providers.OpenAI].GetRequestCount(); n != 0 {
		t.Errorf("openai contacted %d times", n)
	}
}

func TestComplete_MalformedBody(t *testing.T) {
	creds, manager, servers := setup(t, providers.OpenAI)
	servers[providers.OpenAI].SetResponse("/chat/completions", mock.MockResponse{Body: "{not json"})

	_, err := New(creds, manager).Complete(context.Background(), "Hallo", "")
	var pe *providers.ParseError
	if !errors.As(err, &pe) {
		t.Errorf("error = %T %v, want *ParseError", err, err)
	}
}

func TestComplete_Timeout(t *testing.T) {
	creds, manager, servers := setup(t, providers.OpenAI)
	servers[providers.OpenAI].SetResponse("/chat/completions", mock.MockResponse{
		Body:  mock.OpenAICompletion("late"),
		Delay: 2 * time.Second,
	})

	_, err := New(creds, manager, WithTimeout(100*time.Millisecond)).Complete(context.Background(), "Hallo", "")
	if providers.ClientMessage(err) != "upstream timeout" {
		t.Errorf("error = %v", err)
	}
}

func TestComplete_InvalidRequest(t *testing.T) {
	creds, manager, _ := setup(t, providers.OpenAI)

	req := &providers.GenerationRequest{Messages: []providers.Message{{Role: providers.RoleAssistant, Content: "x"}}}
	_, err := New(creds, manager).CompleteRequest(context.Background(), req)
	var ve *providers.ValidationError
	if !errors.As(err, &ve) {
		t.Errorf("error = %v, want *ValidationError", err)
	}
}

// The streamed deltas joined must equal the one-shot answer no matter how
// the stream is cut into writes.
func TestStreamMatchesCompletion(t *testing.T) {
	const answer = "Künstliche Intelligenz: kurz erklärt."

	pieces := []string{"Künst", "liche Intelligenz", ": kurz", " erklärt."}
	var frames string
	for _, p := range pieces {
		frames += "data: " + mock.OpenAIStreamChunk(p) + "\n\n"
	}
	frames += "data: [DONE]\n\n"

	for _, step := range []int{1, 3, 7, 64, len(frames)} {
		creds, manager, servers := setup(t, providers.OpenAI)
		servers[providers.OpenAI].SetResponse("/chat/completions", mock.MockResponse{
			Body: mock.OpenAICompletion(answer),
		})
		oneShot, err := New(creds, manager).Complete(context.Background(), "Was ist KI?", "")
		mock.AssertNoError(t, err)

		var raw []string
		for i := 0; i < len(frames); i += step {
			raw = append(raw, frames[i:min(i+step, len(frames))])
		}
		servers[providers.OpenAI].SetResponse("/chat/completions", mock.MockResponse{RawStream: raw})

		streamed, err := relay.New(creds, manager, relay.Config{}).
			Collect(context.Background(), providers.NewGenerationRequest("", "Was ist KI?", nil))
		mock.AssertNoError(t, err)

		if streamed != oneShot {
			t.Errorf("step %d: streamed %q != completion %q", step, streamed, oneShot)
		}
	}
}
