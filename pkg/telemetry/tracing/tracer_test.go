package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"hohl-rocks/relay/pkg/config"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer(t *testing.T) (*Tracer, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := New(&config.TracingConfig{
		Enabled:     true,
		Sampler:     SamplerAlways,
		ServiceName: "hohl-relay-test",
	}, WithExporter(exporter), WithServiceVersion("test"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = tracer.Shutdown(context.Background()) })
	return tracer, exporter
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  *config.TracingConfig
		wantErr bool
	}{
		{name: "nil config", config: nil, wantErr: true},
		{name: "disabled", config: &config.TracingConfig{Enabled: false}},
		{
			name:    "unknown sampler",
			config:  &config.TracingConfig{Enabled: true, Sampler: "sometimes"},
			wantErr: true,
		},
		{
			name:    "ratio out of range",
			config:  &config.TracingConfig{Enabled: true, Sampler: SamplerRatio, SampleRatio: 1.5},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer, err := New(tt.config, WithExporter(tracetest.NewInMemoryExporter()))
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				_ = tracer.Shutdown(context.Background())
			}
		})
	}
}

func TestTracer_Disabled(t *testing.T) {
	tracer, err := New(&config.TracingConfig{Enabled: false})
	if err != nil {
		t.Fatal(err)
	}
	if tracer.Enabled() {
		t.Error("Enabled() = true")
	}

	ctx, span := tracer.Start(context.Background(), "noop")
	span.End()
	if TraceID(ctx) != "" {
		t.Error("noop span should not carry a trace ID")
	}
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestTracer_RecordsSpans(t *testing.T) {
	tracer, exporter := newRecordingTracer(t)

	ctx, span := tracer.Start(context.Background(), "relay.stream")
	SetProviderAttributes(span, "anthropic", "claude-3-5-sonnet-20240620", 1)
	AddFallbackEvent(span, "anthropic", "openai", 500)
	SetStreamResult(span, "done", 4)
	SetStatus(span, errors.New("boom"))

	if TraceID(ctx) == "" || SpanID(ctx) == "" {
		t.Error("expected valid trace and span IDs")
	}
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	got := spans[0]
	if got.Name != "relay.stream" {
		t.Errorf("span name = %q", got.Name)
	}
	if got.Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", got.Status.Code)
	}
	if len(got.Events) < 2 {
		t.Errorf("expected fallback and exception events, got %d", len(got.Events))
	}
}

func TestHTTPMiddleware_ContinuesIncomingTrace(t *testing.T) {
	_, exporter := newRecordingTracer(t)

	var sawTrace string
	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawTrace = TraceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/run", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if sawTrace != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("handler trace ID = %q", sawTrace)
	}
	if rec.Header().Get("X-Trace-ID") != sawTrace {
		t.Error("X-Trace-ID header should expose the trace ID")
	}
	if len(exporter.GetSpans()) != 1 {
		t.Errorf("expected one server span")
	}
}

func TestInject(t *testing.T) {
	tracer, _ := newRecordingTracer(t)
	ctx, span := tracer.Start(context.Background(), "upstream")
	defer span.End()

	headers := http.Header{}
	Inject(ctx, headers)
	if headers.Get("traceparent") == "" {
		t.Error("Inject should set traceparent")
	}
}
