package relay

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	mock "hohl-rocks/relay/internal/providers"
	"hohl-rocks/relay/pkg/providers"
	"hohl-rocks/relay/pkg/providers/anthropic"
	"hohl-rocks/relay/pkg/providers/openai"
)

func openAIAdapter(t *testing.T) providers.Adapter {
	t.Helper()
	a, err := openai.New(providers.Credential{Provider: providers.OpenAI, APIKey: "sk-test"})
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func anthropicAdapter(t *testing.T) providers.Adapter {
	t.Helper()
	a, err := anthropic.New(providers.Credential{Provider: providers.Anthropic, APIKey: "sk-ant-test"})
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func sseBody(frames ...string) io.ReadCloser {
	var sb strings.Builder
	for _, f := range frames {
		sb.WriteString(f)
	}
	return io.NopCloser(strings.NewReader(sb.String()))
}

// drain reads deltas until Next returns an error.
func drain(t *testing.T, s *Stream) ([]string, error) {
	t.Helper()
	var deltas []string
	for {
		frag, err := s.Next(context.Background())
		if err != nil {
			return deltas, err
		}
		deltas = append(deltas, frag.Text)
	}
}

func TestStream_OpenAIDoneSentinel(t *testing.T) {
	s := NewStream(openAIAdapter(t), sseBody(
		"data: "+mock.OpenAIStreamChunk("Hal")+"\n\n",
		"data: "+mock.OpenAIStreamChunk("lo")+"\n\n",
		"data: [DONE]\n\n",
		"data: "+mock.OpenAIStreamChunk("ignored")+"\n\n",
	), 0)
	defer s.Close()

	deltas, err := drain(t, s)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v, want io.EOF", err)
	}
	if strings.Join(deltas, "|") != "Hal|lo" {
		t.Errorf("deltas = %q", deltas)
	}

	if _, err := s.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Error("Next after the sentinel should keep returning io.EOF")
	}
}

func TestStream_AnthropicSequence(t *testing.T) {
	s := NewStream(anthropicAdapter(t), sseBody(mock.AnthropicStream("Hi", " there")...), 0)
	defer s.Close()

	deltas, err := drain(t, s)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v", err)
	}
	if strings.Join(deltas, "") != "Hi there" {
		t.Errorf("deltas = %q", deltas)
	}
}

func TestStream_MalformedFrameSkipped(t *testing.T) {
	s := NewStream(openAIAdapter(t), sseBody(
		"data: "+mock.OpenAIStreamChunk("a")+"\n\n",
		"data: {not json\n\n",
		": keep-alive comment\n\n",
		"data: "+mock.OpenAIStreamChunk("b")+"\n\n",
	), 0)
	defer s.Close()

	deltas, err := drain(t, s)
	if !errors.Is(err, io.EOF) {
		t.Fatalf("clean end should be io.EOF, got %v", err)
	}
	if strings.Join(deltas, "") != "ab" {
		t.Errorf("deltas = %q", deltas)
	}
}

func TestStream_InBandError(t *testing.T) {
	s := NewStream(anthropicAdapter(t), sseBody(
		mock.AnthropicEvent("content_block_delta", map[string]any{
			"type": "content_block_delta", "delta": map[string]any{"type": "text_delta", "text": "x"},
		}),
		mock.AnthropicEvent("error", map[string]any{
			"type": "error", "error": map[string]any{"type": "overloaded_error", "message": "Overloaded"},
		}),
	), 0)
	defer s.Close()

	deltas, err := drain(t, s)
	var se *providers.StreamError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StreamError", err)
	}
	if se.Message != "Overloaded" || len(deltas) != 1 {
		t.Errorf("message = %q, deltas = %q", se.Message, deltas)
	}
}

func TestStream_IdleTimeout(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	s := NewStream(openAIAdapter(t), pr, 50*time.Millisecond)
	defer s.Close()

	_, err := s.Next(context.Background())
	var te *providers.TimeoutError
	if !errors.As(err, &te) || te.Phase != "idle" {
		t.Fatalf("err = %v, want idle *TimeoutError", err)
	}
	if providers.ClientMessage(err) != "upstream timeout" {
		t.Errorf("client message = %q", providers.ClientMessage(err))
	}
}

func TestStream_ContextCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	s := NewStream(openAIAdapter(t), pr, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}

	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if _, err := pw.Write([]byte("data: x\n\n")); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("upstream should be released after Close, write err = %v", err)
	}
	_ = s.Close()
}

func TestStream_BrokenConnection(t *testing.T) {
	pr, pw := io.Pipe()
	s := NewStream(openAIAdapter(t), pr, 0)
	defer s.Close()

	go func() {
		_, _ = pw.Write([]byte("data: " + mock.OpenAIStreamChunk("a") + "\n\n"))
		pw.CloseWithError(errors.New("connection reset by peer"))
	}()

	deltas, err := drain(t, s)
	var se *providers.StreamError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StreamError", err)
	}
	if len(deltas) != 1 {
		t.Errorf("deltas = %q", deltas)
	}
	if msg := providers.ClientMessage(err); !strings.Contains(msg, "connection reset by peer") {
		t.Errorf("client message = %q, want the transport error text", msg)
	}
}
