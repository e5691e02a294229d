package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"hohl-rocks/relay/pkg/config"
	"hohl-rocks/relay/pkg/providerfactory"
	"hohl-rocks/relay/pkg/providers"
	"hohl-rocks/relay/pkg/routing"
	"hohl-rocks/relay/pkg/telemetry/logging"
	"hohl-rocks/relay/pkg/telemetry/metrics"
	"hohl-rocks/relay/pkg/telemetry/tracing"

	"go.opentelemetry.io/otel/trace"
)

// Registry resolves a provider name to its adapter and transport.
// *providerfactory.Manager implements it.
type Registry interface {
	Get(name providers.Name) (providerfactory.Entry, bool)
}

// Config bounds a relay call.
type Config struct {
	// StreamTimeout bounds a whole call, connect included. Zero disables it.
	StreamTimeout time.Duration

	// IdleTimeout bounds the wait for each upstream frame. Zero disables it.
	IdleTimeout time.Duration
}

// ConfigFrom maps the relay section of the service configuration.
func ConfigFrom(cfg config.RelayConfig) Config {
	return Config{
		StreamTimeout: cfg.StreamTimeout,
		IdleTimeout:   cfg.IdleTimeout,
	}
}

// Relay streams generations from the first provider that accepts the
// request. It holds only read-only state and is safe for concurrent use.
type Relay struct {
	creds    routing.Credentials
	registry Registry
	cfg      Config
	metrics  *metrics.Collector
	logger   *slog.Logger
}

// Option customizes a Relay.
type Option func(*Relay)

// WithMetrics records stream and provider metrics on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Relay) { r.metrics = c }
}

// WithLogger replaces slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(r *Relay) { r.logger = l }
}

// New creates a relay over the configured credentials.
func New(creds routing.Credentials, registry Registry, cfg Config, opts ...Option) *Relay {
	r := &Relay{
		creds:    creds,
		registry: registry,
		cfg:      cfg,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Available reports whether at least one provider is configured.
func (r *Relay) Available() bool {
	return r.creds.Len() > 0
}

// Credentials returns the credential snapshot the relay routes over.
func (r *Relay) Credentials() routing.Credentials {
	return r.creds
}

// Stream starts a relay call and returns its fragment sequence. The channel
// carries deltas in upstream order followed by exactly one done or error
// fragment, then closes. When ctx is cancelled the upstream connection is
// released and the channel closes without a terminal fragment. Callers
// stop reading only by cancelling ctx.
func (r *Relay) Stream(ctx context.Context, req *providers.GenerationRequest) <-chan providers.Fragment {
	out := make(chan providers.Fragment)
	go r.run(ctx, req, out)
	return out
}

// call tracks one relay invocation.
type call struct {
	relay     *Relay
	state     State
	provider  providers.Name
	fragments int
	started   time.Time
	span      trace.Span
}

func (c *call) transition(ctx context.Context, next State) {
	if !c.state.CanTransition(next) {
		c.relay.logger.WarnContext(ctx, "unexpected relay state transition",
			"from", c.state.String(),
			"to", next.String(),
		)
	}
	c.relay.logger.DebugContext(ctx, "relay state",
		"from", c.state.String(),
		"to", next.String(),
		"provider", c.provider.String(),
	)
	c.state = next
}

func (r *Relay) run(ctx context.Context, req *providers.GenerationRequest, out chan<- providers.Fragment) {
	defer close(out)

	ctx, span := tracing.StartSpan(ctx, "relay.stream")
	defer span.End()

	c := &call{relay: r, state: StateIdle, started: time.Now(), span: span}
	r.metrics.StreamStarted()
	outcome := "failed"
	defer func() {
		tracing.SetStreamResult(span, outcome, c.fragments)
		r.metrics.StreamFinished(c.provider.String(), outcome, c.fragments, time.Since(c.started))
		r.logger.InfoContext(ctx, "relay finished",
			"provider", c.provider.String(),
			"state", c.state.String(),
			"outcome", outcome,
			"fragments_sent", c.fragments,
			"duration", time.Since(c.started),
		)
	}()

	emit := func(f providers.Fragment) bool {
		select {
		case out <- f:
			return true
		case <-ctx.Done():
			return false
		}
	}
	fail := func(err error) {
		c.transition(ctx, StateFailed)
		tracing.SetStatus(span, err)
		emit(providers.ErrorFragment(providers.ClientMessage(err)))
	}

	if err := req.Validate(); err != nil {
		fail(err)
		return
	}
	req = req.Normalized()

	chain := routing.Chain(r.creds)
	if len(chain) == 0 {
		r.logger.WarnContext(ctx, "relay without configured provider")
		fail(routing.ErrNoProviderConfigured)
		return
	}

	upCtx := ctx
	if r.cfg.StreamTimeout > 0 {
		var cancel context.CancelFunc
		upCtx, cancel = context.WithTimeout(ctx, r.cfg.StreamTimeout)
		defer cancel()
	}

	stream, err := r.connect(upCtx, c, chain, req)
	if err != nil {
		if ctx.Err() != nil {
			outcome = "cancelled"
			c.transition(ctx, StateFailed)
			return
		}
		fail(r.timeoutOr(upCtx, err, c.provider))
		return
	}
	defer stream.Close()

	c.transition(ctx, StateStreaming)
	for {
		frag, err := stream.Next(upCtx)
		if errors.Is(err, io.EOF) {
			c.transition(ctx, StateDone)
			if emit(providers.DoneFragment()) {
				outcome = "done"
				tracing.SetStatus(span, nil)
			} else {
				outcome = "cancelled"
			}
			return
		}
		if err != nil {
			if ctx.Err() != nil {
				outcome = "cancelled"
				c.transition(ctx, StateFailed)
				return
			}
			r.metrics.RecordProviderError(c.provider.String(), errorType(err))
			r.logger.WarnContext(ctx, "relay stream failed",
				"provider", c.provider.String(),
				"fragments_sent", c.fragments,
				"error", err,
			)
			fail(r.timeoutOr(upCtx, err, c.provider))
			return
		}

		if !emit(frag) {
			outcome = "cancelled"
			c.transition(ctx, StateFailed)
			return
		}
		c.fragments++
	}
}

// connect walks chain until a provider returns a streaming body. Any
// failure here falls back to the next provider; the returned error belongs
// to the last attempt.
func (r *Relay) connect(ctx context.Context, c *call, chain []providers.Name, req *providers.GenerationRequest) (*Stream, error) {
	var (
		attempted []string
		lastErr   error
	)

	for i, name := range chain {
		entry, ok := r.registry.Get(name)
		if !ok {
			lastErr = &providers.ConfigError{Provider: string(name), Field: "adapter", Message: "provider not registered"}
			continue
		}

		if i > 0 && c.provider != providers.None {
			r.logger.InfoContext(ctx, "falling back to next provider",
				"from", c.provider.String(),
				"to", name.String(),
				"error", lastErr,
			)
			r.metrics.RecordFallback(c.provider.String(), name.String())
			tracing.AddFallbackEvent(c.span, c.provider.String(), name.String(), providers.StatusCode(lastErr))
		}

		c.provider = name
		c.transition(ctx, StateConnecting)
		tracing.SetProviderAttributes(c.span, name.String(), entry.Adapter.Model(), len(attempted)+1)
		attempted = append(attempted, name.String())

		body, err := entry.Adapter.BuildRequestBody(req, true)
		if err != nil {
			lastErr = err
			continue
		}

		start := time.Now()
		resp, err := entry.Client.Open(logging.WithProvider(ctx, name.String()), entry.Adapter, body)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			r.metrics.RecordProviderError(name.String(), errorType(err))
			r.logger.WarnContext(ctx, "provider rejected stream request",
				"provider", name.String(),
				"status", providers.StatusCode(err),
				"error", err,
			)
			lastErr = err
			continue
		}

		r.metrics.RecordProviderRequest(name.String(), entry.Adapter.Model(), time.Since(start))
		return NewStream(entry.Adapter, resp.Body, r.cfg.IdleTimeout), nil
	}

	if len(attempted) > 1 {
		return nil, &routing.AllProvidersFailedError{Attempted: attempted, LastError: lastErr}
	}
	return nil, lastErr
}

// timeoutOr maps an expired stream deadline to a *providers.TimeoutError.
func (r *Relay) timeoutOr(ctx context.Context, err error, provider providers.Name) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &providers.TimeoutError{
			Provider: string(provider),
			Timeout:  r.cfg.StreamTimeout,
			Phase:    "stream",
		}
	}
	return err
}

// errorType classifies err for the provider_errors_total metric.
func errorType(err error) string {
	var (
		ae *providers.AuthError
		re *providers.RateLimitError
		te *providers.TimeoutError
		se *providers.StreamError
	)
	switch {
	case errors.As(err, &ae):
		return "auth"
	case errors.As(err, &re):
		return "rate_limit"
	case errors.As(err, &te), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &se):
		return "stream"
	}

	switch status := providers.StatusCode(err); {
	case status >= 500:
		return "server_error"
	case status >= 400:
		return "client_error"
	case status > 0:
		return "bad_response"
	}
	return "network"
}

// FailedError is returned by Collect when the stream ended with an error
// fragment.
type FailedError struct {
	// Message is the client-facing error text of the fragment.
	Message string
}

// Error implements the error interface.
func (e *FailedError) Error() string {
	return fmt.Sprintf("relay failed: %s", e.Message)
}

// Collect runs a relay call and concatenates its deltas. The partial text
// is returned together with a *FailedError when the stream failed.
func (r *Relay) Collect(ctx context.Context, req *providers.GenerationRequest) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var sb strings.Builder
	for f := range r.Stream(ctx, req) {
		switch f.Kind() {
		case providers.KindDelta:
			sb.WriteString(f.Text)
		case providers.KindError:
			return sb.String(), &FailedError{Message: f.ErrorMessage}
		case providers.KindDone:
			return sb.String(), nil
		}
	}
	if err := ctx.Err(); err != nil {
		return sb.String(), err
	}
	return sb.String(), nil
}
