package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"hohl-rocks/relay/pkg/news"
	"hohl-rocks/relay/pkg/prompts"
	"hohl-rocks/relay/pkg/providers"
	"hohl-rocks/relay/pkg/replicate"
	"hohl-rocks/relay/pkg/routing"
	"hohl-rocks/relay/pkg/search/tavily"
	"hohl-rocks/relay/pkg/telemetry/health"
)

// fakeStreamer replays fragments and records the request it got.
type fakeStreamer struct {
	mu        sync.Mutex
	fragments []providers.Fragment
	got       *providers.GenerationRequest
	cancelled chan struct{}
}

func (f *fakeStreamer) Stream(ctx context.Context, req *providers.GenerationRequest) <-chan providers.Fragment {
	f.mu.Lock()
	f.got = req
	f.mu.Unlock()

	out := make(chan providers.Fragment)
	go func() {
		defer close(out)
		for _, frag := range f.fragments {
			if ctx.Err() != nil {
				if f.cancelled != nil {
					close(f.cancelled)
				}
				return
			}
			select {
			case out <- frag:
			case <-ctx.Done():
				if f.cancelled != nil {
					close(f.cancelled)
				}
				return
			}
		}
	}()
	return out
}

func (f *fakeStreamer) request() *providers.GenerationRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.got
}

type fakeCompleter struct {
	available bool
	answer    string
	err       error
	prompt    string
	system    string
}

func (f *fakeCompleter) Available() bool { return f.available }

func (f *fakeCompleter) Complete(_ context.Context, prompt, system string) (string, error) {
	f.prompt, f.system = prompt, system
	return f.answer, f.err
}

type fakeSearcher struct {
	configured bool
	results    []tavily.Result
	err        error
	calls      int
}

func (f *fakeSearcher) Configured() bool { return f.configured }

func (f *fakeSearcher) Search(context.Context, tavily.Query) ([]tavily.Result, error) {
	f.calls++
	return f.results, f.err
}

type fakeNews struct{}

func (fakeNews) News(context.Context) []news.Item  { return news.StaticNews }
func (fakeNews) Daily(context.Context) []news.Item { return news.StaticDaily }

type fakePredictor struct {
	configured bool
	pred       *replicate.Prediction
	err        error
	got        replicate.Input
}

func (f *fakePredictor) Configured() bool { return f.configured }

func (f *fakePredictor) Run(_ context.Context, in replicate.Input) (*replicate.Prediction, error) {
	f.got = in
	return f.pred, f.err
}

type fakeProber map[providers.Name]error

func (f fakeProber) Probe(context.Context) map[providers.Name]error { return f }

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON body %q: %v", w.Body.String(), err)
	}
}

func TestRunHandler_Stream(t *testing.T) {
	streamer := &fakeStreamer{fragments: []providers.Fragment{
		providers.DeltaFragment("Hallo"),
		providers.DeltaFragment(" Welt"),
		providers.DoneFragment(),
	}}
	h := NewRunHandler(streamer, prompts.New())

	body := `{"promptId":"unknown-id","userInput":"Hi","conversationHistory":[{"role":"user","content":"vorher"},{"role":"assistant","content":"ok"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/run", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	want := "data: {\"delta\":\"Hallo\"}\n\ndata: {\"delta\":\" Welt\"}\n\ndata: {\"done\":true}\n\n"
	if w.Body.String() != want {
		t.Errorf("body = %q, want %q", w.Body.String(), want)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}

	got := streamer.request()
	if got.System != prompts.New().SystemPrompt("") {
		t.Errorf("unknown id should use the default task, got system %q", got.System)
	}
	if len(got.Messages) != 3 || got.Messages[2].Content != "Hi" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestRunHandler_RawPromptAndLegacyBody(t *testing.T) {
	streamer := &fakeStreamer{fragments: []providers.Fragment{providers.DoneFragment()}}
	h := NewRunHandler(streamer, prompts.New())
	h.Temperature = providers.Float64(0.2)
	h.MaxOutputTokens = 100

	body := `{"id":"x","rawPrompt":"Sei knapp.","input":{"text":"Frage"}}`
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(body)))

	got := streamer.request()
	if got.System != "Sei knapp." {
		t.Errorf("System = %q, rawPrompt must win", got.System)
	}
	if got.Messages[0].Content != "Frage" {
		t.Errorf("user text = %q", got.Messages[0].Content)
	}
	if got.Temperature == nil || *got.Temperature != 0.2 || got.MaxOutputTokens != 100 {
		t.Errorf("generation settings = %v/%d", got.Temperature, got.MaxOutputTokens)
	}
}

func TestRunHandler_ZeroTemperature(t *testing.T) {
	streamer := &fakeStreamer{fragments: []providers.Fragment{providers.DoneFragment()}}
	h := NewRunHandler(streamer, prompts.New())
	h.Temperature = providers.Float64(0)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(`{"userInput":"x"}`)))

	got := streamer.request()
	if got.Temperature == nil || *got.Temperature != 0 {
		t.Errorf("Temperature = %v, want explicit 0", got.Temperature)
	}
}

func TestRunHandler_ErrorFragment(t *testing.T) {
	streamer := &fakeStreamer{fragments: []providers.Fragment{
		providers.DeltaFragment("Teil"),
		providers.ErrorFragment("upstream timeout"),
	}}
	w := httptest.NewRecorder()
	NewRunHandler(streamer, prompts.New()).ServeHTTP(w,
		httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(`{}`)))

	want := "data: {\"delta\":\"Teil\"}\n\ndata: {\"error\":\"upstream timeout\"}\n\n"
	if w.Body.String() != want {
		t.Errorf("body = %q, want %q", w.Body.String(), want)
	}
}

func TestRunHandler_InvalidBody(t *testing.T) {
	streamer := &fakeStreamer{}
	w := httptest.NewRecorder()
	NewRunHandler(streamer, prompts.New()).ServeHTTP(w,
		httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(`{"promptId":`)))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if w.Body.String() != `{"error":"invalid_body"}` {
		t.Errorf("body = %s", w.Body.String())
	}
	if streamer.request() != nil {
		t.Error("relay must not be called for an invalid body")
	}
}

func TestRunHandler_Usage(t *testing.T) {
	w := httptest.NewRecorder()
	NewRunHandler(&fakeStreamer{}, prompts.New()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/run", nil))

	var got runUsage
	decode(t, w, &got)
	if !got.OK || got.Method != "POST" || got.Usage == "" {
		t.Errorf("usage = %+v", got)
	}
}

// failingWriter accepts headers but fails every body write.
type failingWriter struct {
	*httptest.ResponseRecorder
}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestRunHandler_ClientGoneCancelsRelay(t *testing.T) {
	frags := make([]providers.Fragment, 50)
	for i := range frags {
		frags[i] = providers.DeltaFragment("x")
	}
	streamer := &fakeStreamer{fragments: frags, cancelled: make(chan struct{})}

	done := make(chan struct{})
	go func() {
		defer close(done)
		NewRunHandler(streamer, prompts.New()).ServeHTTP(failingWriter{httptest.NewRecorder()},
			httptest.NewRequest(http.MethodPost, "/run", strings.NewReader(`{}`)))
	}()

	select {
	case <-streamer.cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("relay context was not cancelled after a failed write")
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return")
	}
}

func TestNewsHandler(t *testing.T) {
	h := NewNewsHandler(fakeNews{})
	h.now = func() time.Time { return time.UnixMilli(1700000000000) }

	t.Run("news", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.News(w, httptest.NewRequest(http.MethodGet, "/api/news", nil))

		var got newsResponse
		decode(t, w, &got)
		if !got.OK || len(got.Items) != len(news.StaticNews) {
			t.Errorf("news = %+v", got)
		}
	})

	t.Run("daily", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Daily(w, httptest.NewRequest(http.MethodGet, "/api/daily", nil))

		var got dailyResponse
		decode(t, w, &got)
		if got.At != 1700000000000 || len(got.Items) != len(news.StaticDaily) {
			t.Errorf("daily = %+v", got)
		}
	})
}

func TestResearchHandler(t *testing.T) {
	results := []tavily.Result{
		{Title: "EU AI Act", URL: "https://example.eu/act", Content: strings.Repeat("ä", 700)},
		{Title: "Ohne URL"},
	}

	tests := []struct {
		name        string
		body        string
		search      *fakeSearcher
		completer   *fakeCompleter
		wantStatus  int
		wantAnswer  string
		wantSources int
		wantError   string
	}{
		{
			name:       "missing query",
			body:       `{"q":"   "}`,
			search:     &fakeSearcher{},
			completer:  &fakeCompleter{},
			wantStatus: 400,
			wantError:  "missing_query",
		},
		{
			name:       "demo without search",
			body:       `{"q":"AI Act"}`,
			search:     &fakeSearcher{},
			completer:  &fakeCompleter{available: true},
			wantStatus: 200,
			wantAnswer: "(Demo) Zusammenfassung für: AI Act",
		},
		{
			name:       "demo without provider",
			body:       `{"q":"AI Act"}`,
			search:     &fakeSearcher{configured: true},
			completer:  &fakeCompleter{},
			wantStatus: 200,
			wantAnswer: "(Demo) Zusammenfassung für: AI Act",
		},
		{
			name:       "demo when search fails",
			body:       `{"q":"AI Act"}`,
			search:     &fakeSearcher{configured: true, err: &tavily.APIError{StatusCode: 500}},
			completer:  &fakeCompleter{available: true},
			wantStatus: 200,
			wantAnswer: "(Demo) Zusammenfassung für: AI Act",
		},
		{
			name:        "live summary",
			body:        `{"q":"AI Act"}`,
			search:      &fakeSearcher{configured: true, results: results},
			completer:   &fakeCompleter{available: true, answer: "Kurzfassung"},
			wantStatus:  200,
			wantAnswer:  "Kurzfassung",
			wantSources: 1,
		},
		{
			name:       "summary fails",
			body:       `{"q":"AI Act"}`,
			search:     &fakeSearcher{configured: true, results: results},
			completer:  &fakeCompleter{available: true, err: &providers.ProviderError{Provider: "openai", StatusCode: 500}},
			wantStatus: 502,
			wantError:  "openai_http_500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewResearchHandler(tt.search, tt.completer)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/research", strings.NewReader(tt.body)))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantError != "" {
				var got struct{ Error string }
				decode(t, w, &got)
				if got.Error != tt.wantError {
					t.Errorf("error = %q, want %q", got.Error, tt.wantError)
				}
				return
			}

			var got researchResponse
			decode(t, w, &got)
			if got.Answer != tt.wantAnswer {
				t.Errorf("answer = %q, want %q", got.Answer, tt.wantAnswer)
			}
			if got.Sources == nil || len(got.Sources) != tt.wantSources {
				t.Errorf("sources = %#v, want %d entries", got.Sources, tt.wantSources)
			}
		})
	}

	t.Run("prompt carries truncated sources", func(t *testing.T) {
		completer := &fakeCompleter{available: true, answer: "ok"}
		h := NewResearchHandler(&fakeSearcher{configured: true, results: results}, completer)
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/research", strings.NewReader(`{"q":"AI Act"}`)))

		if !strings.Contains(completer.prompt, "[1] EU AI Act (https://example.eu/act)") {
			t.Errorf("prompt = %q", completer.prompt)
		}
		if strings.Contains(completer.prompt, strings.Repeat("ä", 601)) {
			t.Error("snippet not truncated")
		}
		if completer.system != researchSystem {
			t.Errorf("system = %q", completer.system)
		}
	})
}

func TestReplicateHandler(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewReplicateHandler(&fakePredictor{}).ServeHTTP(w,
			httptest.NewRequest(http.MethodPost, "/api/replicate", strings.NewReader(`{"version":"v"}`)))

		if w.Code != http.StatusServiceUnavailable || w.Body.String() != `{"error":"replicate_not_configured"}` {
			t.Errorf("got %d %s", w.Code, w.Body.String())
		}
	})

	t.Run("missing version", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewReplicateHandler(&fakePredictor{configured: true}).ServeHTTP(w,
			httptest.NewRequest(http.MethodPost, "/api/replicate", strings.NewReader(`{"input":{}}`)))

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("poll exhausted", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewReplicateHandler(&fakePredictor{configured: true, err: replicate.ErrPollExhausted}).ServeHTTP(w,
			httptest.NewRequest(http.MethodPost, "/api/replicate", strings.NewReader(`{"version":"v"}`)))

		if w.Code != http.StatusGatewayTimeout || w.Body.String() != `{"error":"replicate_timeout"}` {
			t.Errorf("got %d %s", w.Code, w.Body.String())
		}
	})

	t.Run("succeeded", func(t *testing.T) {
		p := &fakePredictor{configured: true, pred: &replicate.Prediction{
			ID:     "p1",
			Status: replicate.StatusSucceeded,
			Output: json.RawMessage(`["https://replicate.delivery/out.png"]`),
		}}
		w := httptest.NewRecorder()
		NewReplicateHandler(p).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/replicate",
			strings.NewReader(`{"version":"v1","input":{"prompt":"ein Hase"}}`)))

		var got predictionResponse
		decode(t, w, &got)
		if !got.OK || got.ID != "p1" || !strings.Contains(string(got.Output), "out.png") {
			t.Errorf("response = %+v", got)
		}
		if p.got.Version != "v1" || p.got.Input["prompt"] != "ein Hase" {
			t.Errorf("input = %+v", p.got)
		}
	})
}

func TestPromptsHandler(t *testing.T) {
	catalog := prompts.New()
	w := httptest.NewRecorder()
	NewPromptsHandler(catalog).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/prompts", nil))

	var got promptsResponse
	decode(t, w, &got)
	if !got.OK || got.Count != catalog.Len() || len(got.IDs) != catalog.Len() {
		t.Errorf("prompts = %+v", got)
	}
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler("production")
	h.now = func() time.Time { return time.UnixMilli(42) }

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	var got healthResponse
	decode(t, w, &got)
	if !got.OK || got.Now != 42 || got.Env != "production" {
		t.Errorf("health = %+v", got)
	}
}

func TestReadyHandler(t *testing.T) {
	anthropic := providers.Credential{Provider: providers.Anthropic, APIKey: "sk-ant-test"}

	tests := []struct {
		name       string
		creds      routing.Credentials
		probe      fakeProber
		wantStatus int
		wantModel  string
	}{
		{
			name:       "no credentials",
			creds:      routing.NewCredentials(),
			wantStatus: 503,
			wantModel:  "n/a",
		},
		{
			name:       "credential without probe",
			creds:      routing.NewCredentials(anthropic),
			wantStatus: 200,
			wantModel:  providers.DefaultAnthropicModel,
		},
		{
			name:       "one provider reachable",
			creds:      routing.NewCredentials(anthropic),
			probe:      fakeProber{providers.Anthropic: nil, providers.OpenAI: errors.New("down")},
			wantStatus: 200,
			wantModel:  providers.DefaultAnthropicModel,
		},
		{
			name:       "no provider reachable",
			creds:      routing.NewCredentials(anthropic),
			probe:      fakeProber{providers.Anthropic: &providers.ProviderError{Provider: "anthropic", StatusCode: 401}},
			wantStatus: 503,
			wantModel:  providers.DefaultAnthropicModel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var checker *health.Checker
			if tt.probe != nil {
				checker = health.New(time.Second)
				checker.RegisterCheck("providers", ProviderCheck(tt.probe))
			}

			w := httptest.NewRecorder()
			NewReadyHandler(tt.creds, checker).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var got readyResponse
			decode(t, w, &got)
			if got.Model != tt.wantModel {
				t.Errorf("model = %q, want %q", got.Model, tt.wantModel)
			}
			if got.OK != (tt.wantStatus == 200) {
				t.Errorf("ok = %v", got.OK)
			}
		})
	}
}

func TestRootHandler(t *testing.T) {
	w := httptest.NewRecorder()
	RootHandler(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Body.String() != "hohl.rocks-back up" {
		t.Errorf("body = %q", w.Body.String())
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("Content-Type = %q", w.Header().Get("Content-Type"))
	}
}
