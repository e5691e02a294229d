package completion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"hohl-rocks/relay/pkg/providerfactory"
	"hohl-rocks/relay/pkg/providers"
	"hohl-rocks/relay/pkg/routing"
	"hohl-rocks/relay/pkg/telemetry/logging"
	"hohl-rocks/relay/pkg/telemetry/metrics"
	"hohl-rocks/relay/pkg/telemetry/tracing"
)

// Placeholder is returned instead of a completion when no provider is
// configured.
const Placeholder = "[Platzhalter] Kein KI-Anbieter konfiguriert. Setze ANTHROPIC_API_KEY, OPENAI_API_KEY oder OPENROUTER_API_KEY für echte Antworten."

// maxResponseBytes caps a non-streaming response body.
const maxResponseBytes = 4 << 20

// Registry resolves a provider name to its adapter and transport.
type Registry interface {
	Get(name providers.Name) (providerfactory.Entry, bool)
}

// Facade performs single-shot completions.
type Facade struct {
	creds    routing.Credentials
	registry Registry
	timeout  time.Duration
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// Option customizes a Facade.
type Option func(*Facade)

// WithTimeout bounds each call, response body included.
func WithTimeout(d time.Duration) Option {
	return func(f *Facade) { f.timeout = d }
}

// WithMetrics records provider metrics on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(f *Facade) { f.metrics = c }
}

// WithLogger replaces slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(f *Facade) { f.logger = l }
}

// New creates a facade over the configured credentials.
func New(creds routing.Credentials, registry Registry, opts ...Option) *Facade {
	f := &Facade{
		creds:    creds,
		registry: registry,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Available reports whether a real provider would answer.
func (f *Facade) Available() bool {
	return routing.SelectProvider(f.creds) != providers.None
}

// Complete sends prompt with the system instruction and returns the whole
// answer.
func (f *Facade) Complete(ctx context.Context, prompt, system string) (string, error) {
	return f.CompleteRequest(ctx, providers.NewGenerationRequest(system, prompt, nil))
}

// CompleteRequest is Complete for a prepared request. Only the selected
// provider is tried.
func (f *Facade) CompleteRequest(ctx context.Context, req *providers.GenerationRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	req = req.Normalized()

	name := routing.SelectProvider(f.creds)
	if name == providers.None {
		f.logger.DebugContext(ctx, "no provider configured, returning placeholder")
		return Placeholder, nil
	}

	entry, ok := f.registry.Get(name)
	if !ok {
		return "", &providers.ConfigError{Provider: string(name), Field: "adapter", Message: "provider not registered"}
	}

	ctx, span := tracing.StartSpan(ctx, "completion.complete")
	defer span.End()
	tracing.SetProviderAttributes(span, name.String(), entry.Adapter.Model(), 1)

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	text, err := f.call(logging.WithProvider(ctx, name.String()), entry, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = &providers.TimeoutError{Provider: string(name), Timeout: f.timeout, Phase: "stream"}
		}
		tracing.SetStatus(span, err)
		f.metrics.RecordProviderError(name.String(), "completion")
		f.logger.WarnContext(ctx, "completion failed",
			"provider", name.String(),
			"status", providers.StatusCode(err),
			"error", err,
		)
		return "", err
	}

	tracing.SetStatus(span, nil)
	return text, nil
}

func (f *Facade) call(ctx context.Context, entry providerfactory.Entry, req *providers.GenerationRequest) (string, error) {
	body, err := entry.Adapter.BuildRequestBody(req, false)
	if err != nil {
		return "", fmt.Errorf("failed to build request body: %w", err)
	}

	start := time.Now()
	resp, err := entry.Client.Open(ctx, entry.Adapter, body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	f.metrics.RecordProviderRequest(entry.Adapter.Name().String(), entry.Adapter.Model(), time.Since(start))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &providers.StreamError{
			Provider: entry.Adapter.Name().String(),
			Message:  "upstream response interrupted",
			Cause:    err,
		}
	}

	return entry.Adapter.ParseCompletion(raw)
}
