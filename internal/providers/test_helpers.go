package providers

import (
	"context"
	"strings"
	"testing"
	"time"

	"hohl-rocks/relay/pkg/providers"
)

// TestCredential returns a credential for name pointing at baseURL.
func TestCredential(name providers.Name, baseURL string) providers.Credential {
	return providers.Credential{
		Provider: name,
		APIKey:   "test-key-" + string(name),
		BaseURL:  baseURL,
	}
}

// CollectFragments drains ch. It fails the test when the stream does not
// close within timeout.
func CollectFragments(t *testing.T, ch <-chan providers.Fragment, timeout time.Duration) []providers.Fragment {
	t.Helper()

	var out []providers.Fragment
	deadline := time.After(timeout)
	for {
		select {
		case f, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, f)
		case <-deadline:
			t.Fatalf("stream did not close within %s (got %d fragments)", timeout, len(out))
			return out
		}
	}
}

// JoinDeltas concatenates the text of all delta fragments.
func JoinDeltas(frags []providers.Fragment) string {
	var sb strings.Builder
	for _, f := range frags {
		if f.Kind() == providers.KindDelta {
			sb.WriteString(f.Text)
		}
	}
	return sb.String()
}

// Terminal returns the last fragment, which must be a done or error marker.
func Terminal(t *testing.T, frags []providers.Fragment) providers.Fragment {
	t.Helper()
	if len(frags) == 0 {
		t.Fatal("no fragments received")
	}
	last := frags[len(frags)-1]
	if !last.IsFinal {
		t.Fatalf("last fragment %+v is not terminal", last)
	}
	for _, f := range frags[:len(frags)-1] {
		if f.IsFinal {
			t.Fatalf("terminal fragment %+v before end of stream", f)
		}
	}
	return last
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// WithTimeout runs fn with a context that expires after timeout and fails
// the test if fn does not return in time.
func WithTimeout(t *testing.T, timeout time.Duration, fn func(ctx context.Context)) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		fn(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout + time.Second):
		t.Fatalf("test timeout after %s", timeout)
	}
}

// WaitForCondition polls condition until it holds or timeout passes.
func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool, message string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %s: %s", timeout, message)
		}
		<-ticker.C
	}
}
