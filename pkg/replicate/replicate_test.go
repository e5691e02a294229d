package replicate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"hohl-rocks/relay/pkg/config"
)

// fakeAPI answers creates with "starting" and reports "succeeded" after
// finishAfter polls. A negative finishAfter never finishes.
func fakeAPI(t *testing.T, finishAfter int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var polls atomic.Int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer r8_test" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Invalid token."}`))
			return
		}

		pred := map[string]any{
			"id":   "p1",
			"urls": map[string]string{"get": srv.URL + "/predictions/p1"},
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/predictions":
			var in Input
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Version == "" {
				w.WriteHeader(http.StatusUnprocessableEntity)
				return
			}
			w.WriteHeader(http.StatusCreated)
			pred["status"] = StatusStarting
		case r.Method == http.MethodGet && r.URL.Path == "/predictions/p1":
			n := polls.Add(1)
			pred["status"] = StatusProcessing
			if finishAfter >= 0 && n >= finishAfter {
				pred["status"] = StatusSucceeded
				pred["output"] = []string{"https://replicate.delivery/out.png"}
			}
		default:
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(pred)
	}))
	t.Cleanup(srv.Close)
	return srv, &polls
}

func newClient(baseURL, token string, attempts int) *Client {
	return New(config.ReplicateConfig{
		APIToken:     token,
		BaseURL:      baseURL,
		MaxAttempts:  attempts,
		PollInterval: 5 * time.Millisecond,
	})
}

func TestRun_Succeeds(t *testing.T) {
	srv, polls := fakeAPI(t, 3)

	pred, err := newClient(srv.URL, "r8_test", 10).Run(context.Background(), Input{
		Version: "v1",
		Input:   map[string]any{"prompt": "ein Fuchs"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if pred.Status != StatusSucceeded || len(pred.Output) == 0 {
		t.Errorf("prediction = %+v", pred)
	}
	if n := polls.Load(); n != 3 {
		t.Errorf("polls = %d, want 3", n)
	}
}

func TestRun_PollExhausted(t *testing.T) {
	srv, polls := fakeAPI(t, -1)

	pred, err := newClient(srv.URL, "r8_test", 4).Run(context.Background(), Input{Version: "v1"})
	if !errors.Is(err, ErrPollExhausted) {
		t.Fatalf("Run() error = %v, want ErrPollExhausted", err)
	}
	if n := polls.Load(); n != 4 {
		t.Errorf("polls = %d, want exactly 4", n)
	}
	if pred == nil || pred.Status != StatusProcessing {
		t.Errorf("last prediction = %+v", pred)
	}
}

func TestRun_NotConfigured(t *testing.T) {
	if _, err := newClient("", "", 0).Run(context.Background(), Input{Version: "v1"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("error = %v", err)
	}
}

func TestRun_APIError(t *testing.T) {
	srv, _ := fakeAPI(t, 1)

	_, err := newClient(srv.URL, "wrong", 3).Run(context.Background(), Input{Version: "v1"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized || apiErr.Detail != "Invalid token." {
		t.Errorf("error = %v", err)
	}
}

func TestRun_ContextCancel(t *testing.T) {
	srv, _ := fakeAPI(t, -1)
	c := New(config.ReplicateConfig{APIToken: "r8_test", BaseURL: srv.URL, PollInterval: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := c.Run(ctx, Input{Version: "v1"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New(config.ReplicateConfig{})
	if c.maxAttempts != 30 || c.pollInterval != 2*time.Second || c.baseURL != "https://api.replicate.com/v1" {
		t.Errorf("defaults = %d %s %s", c.maxAttempts, c.pollInterval, c.baseURL)
	}
	if c.Configured() {
		t.Error("Configured() = true without token")
	}
}
