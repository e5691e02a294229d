package config

import (
	"time"

	"hohl-rocks/relay/pkg/providers"
)

// Config is the root configuration structure for the hohl.rocks relay.
type Config struct {
	// Server contains HTTP server configuration including listen address,
	// timeouts and CORS.
	Server ServerConfig `yaml:"server"`

	// Providers contains the LLM provider credentials and transport settings.
	Providers ProvidersConfig `yaml:"providers"`

	// Relay bounds streaming calls and sets generation defaults.
	Relay RelayConfig `yaml:"relay"`

	// Prompts configures the prompt catalog overlay.
	Prompts PromptsConfig `yaml:"prompts"`

	// Search configures the Tavily search collaborator.
	Search SearchConfig `yaml:"search"`

	// News configures the news and daily lists.
	News NewsConfig `yaml:"news"`

	// Ingest configures the scheduled news snapshot job.
	Ingest IngestConfig `yaml:"ingest"`

	// Replicate configures the Replicate prediction collaborator.
	Replicate ReplicateConfig `yaml:"replicate"`

	// Limits contains rate limiting configuration.
	Limits LimitsConfig `yaml:"limits"`

	// Telemetry contains configuration for logging, metrics, tracing and
	// health endpoints.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// The PORT environment variable sets ":<port>".
	// Default: ":8080"
	ListenAddress string `yaml:"listen_address"`

	// Env is the deployment environment reported by /healthz.
	// Default: "development"
	Env string `yaml:"env"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds non-streaming responses. Streaming routes clear it
	// per request.
	// Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for in-flight requests
	// during graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits request header size.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes limits JSON request bodies.
	// Default: 1048576 (1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains CORS (Cross-Origin Resource Sharing) configuration.
type CORSConfig struct {
	// Enabled controls whether CORS headers are sent.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins lists allowed origins. Entries may be exact origins,
	// "*" or wildcard patterns such as "https://*.netlify.app".
	// The ALLOWED_ORIGINS environment variable takes a comma separated list.
	// Default: ["https://hohl.rocks", "https://www.hohl.rocks", "https://*.netlify.app", "http://localhost:*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods.
	// Default: ["GET", "POST", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of allowed request headers.
	// Default: ["Content-Type", "Authorization", "X-Request-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders is a list of headers exposed to the browser.
	// Default: ["X-Request-ID"]
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the preflight cache duration in seconds.
	// Default: 600
	MaxAge int `yaml:"max_age"`

	// AllowCredentials controls Access-Control-Allow-Credentials.
	// Default: false
	AllowCredentials bool `yaml:"allow_credentials"`
}

// ProvidersConfig contains the credentials of all LLM providers. A provider
// is available exactly when its API key is set.
type ProvidersConfig struct {
	Anthropic  ProviderConfig `yaml:"anthropic"`
	OpenAI     ProviderConfig `yaml:"openai"`
	OpenRouter ProviderConfig `yaml:"openrouter"`

	// Referer and Title are sent to OpenRouter as HTTP-Referer and X-Title.
	// Default: "https://hohl.rocks", "hohl.rocks"
	Referer string `yaml:"referer"`
	Title   string `yaml:"title"`

	// ConnectTimeout bounds the wait for upstream response headers.
	// Default: 30s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// MaxRetries is the number of connect-phase retries per provider.
	// Default: 0
	MaxRetries int `yaml:"max_retries"`

	// HealthCheckInterval is the period of background provider pings.
	// Zero disables background pings.
	// Default: 0
	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
}

// ProviderConfig contains configuration for a single LLM provider.
type ProviderConfig struct {
	// APIKey is the authentication key. It should come from the environment.
	APIKey string `yaml:"api_key"`

	// Model overrides the vendor default model.
	Model string `yaml:"model"`

	// BaseURL overrides the vendor API base URL.
	BaseURL string `yaml:"base_url"`
}

// RelayConfig bounds streaming relay calls.
type RelayConfig struct {
	// StreamTimeout bounds a whole relay call.
	// Default: 5m
	StreamTimeout time.Duration `yaml:"stream_timeout"`

	// IdleTimeout bounds the wait for each upstream read.
	// Default: 60s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// Temperature is the sampling temperature sent upstream. An explicit 0
	// is kept.
	// Default: 0.7
	Temperature *float64 `yaml:"temperature"`

	// MaxOutputTokens caps completion length.
	// Default: 700
	MaxOutputTokens int `yaml:"max_output_tokens"`
}

// PromptsConfig configures the prompt catalog.
type PromptsConfig struct {
	// File is an optional YAML overlay merged over the built-in catalog.
	File string `yaml:"file"`

	// Watch reloads File when it changes.
	// Default: false
	Watch bool `yaml:"watch"`
}

// SearchConfig configures web search.
type SearchConfig struct {
	Tavily TavilyConfig `yaml:"tavily"`
}

// TavilyConfig configures the Tavily API client.
type TavilyConfig struct {
	// APIKey enables search. Without it search-backed features fall back to
	// static content.
	APIKey string `yaml:"api_key"`

	// BaseURL is the Tavily API base URL.
	// Default: "https://api.tavily.com"
	BaseURL string `yaml:"base_url"`

	// Timeout bounds one search call. HTTP_TIMEOUT_S sets it in seconds.
	// Default: 20s
	Timeout time.Duration `yaml:"timeout"`
}

// NewsConfig configures the cached news and daily lists.
type NewsConfig struct {
	// CacheTTL is how long fetched lists are served from memory.
	// Default: 12h
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// IngestConfig configures the scheduled AI-Act news snapshot job.
type IngestConfig struct {
	// Enabled runs the scheduler inside the server.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Cron is the standard five-field schedule.
	// Default: "0 */6 * * *"
	Cron string `yaml:"cron"`

	// Region selects the query scope: "dach", "eu" or "all".
	// Default: "dach"
	Region string `yaml:"region"`

	// OutDir is where snapshot files are written.
	// Default: "./data"
	OutDir string `yaml:"out_dir"`

	// RunOnStart triggers one run shortly after the scheduler starts.
	// Default: true
	RunOnStart bool `yaml:"run_on_start"`
}

// ReplicateConfig configures the Replicate client.
type ReplicateConfig struct {
	// APIToken enables Replicate. REPLICATE_API_TOKEN sets it.
	APIToken string `yaml:"api_token"`

	// BaseURL is the Replicate API base URL.
	// Default: "https://api.replicate.com/v1"
	BaseURL string `yaml:"base_url"`

	// MaxAttempts bounds the number of status polls.
	// Default: 30
	MaxAttempts int `yaml:"max_attempts"`

	// PollInterval is the delay between polls.
	// Default: 2s
	PollInterval time.Duration `yaml:"poll_interval"`
}

// LimitsConfig contains rate limiting configuration.
type LimitsConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	// Enabled turns rate limiting on.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// RequestsPerMinute is the sustained refill rate.
	// Default: 60
	RequestsPerMinute int `yaml:"requests_per_minute"`

	// Burst is the bucket capacity.
	// Default: 60
	Burst int `yaml:"burst"`

	// TrustProxy keys clients by X-Forwarded-For instead of the peer address.
	// Default: true
	TrustProxy bool `yaml:"trust_proxy"`

	// IdleTTL evicts buckets of clients not seen for this long.
	// Default: 10m
	IdleTTL time.Duration `yaml:"idle_ttl"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	Health  HealthConfig  `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactSecrets masks API keys and bearer tokens in log attributes.
	// Default: true
	RedactSecrets bool `yaml:"redact_secrets"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path of the Prometheus endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "hohl"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "relay"
	Subsystem string `yaml:"subsystem"`

	// RequestDurationBuckets defines histogram buckets in seconds.
	// Default: [0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300]
	RequestDurationBuckets []float64 `yaml:"request_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "hohl-relay"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS for the collector connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the export timeout.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health endpoint configuration.
type HealthConfig struct {
	// LivenessPath is the liveness probe path.
	// Default: "/healthz"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the readiness probe path.
	// Default: "/readyz"
	ReadinessPath string `yaml:"readiness_path"`

	// VersionPath is the version information path.
	// Default: "/version"
	VersionPath string `yaml:"version_path"`

	// ProbeProviders makes readiness ping each provider.
	// Default: false
	ProbeProviders bool `yaml:"probe_providers"`

	// CheckTimeout bounds each readiness check.
	// Default: 2s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}

// Credentials returns the provider credentials in priority order. Entries
// without an API key are included; routing drops them.
func (c *Config) Credentials() []providers.Credential {
	entry := func(name providers.Name, p ProviderConfig) providers.Credential {
		return providers.Credential{
			Provider: name,
			APIKey:   p.APIKey,
			Model:    p.Model,
			BaseURL:  p.BaseURL,
		}
	}
	return []providers.Credential{
		entry(providers.Anthropic, c.Providers.Anthropic),
		entry(providers.OpenAI, c.Providers.OpenAI),
		entry(providers.OpenRouter, c.Providers.OpenRouter),
	}
}

// ClientConfig returns the transport template shared by all providers.
func (c *Config) ClientConfig() providers.ClientConfig {
	return providers.ClientConfig{
		ConnectTimeout:      c.Providers.ConnectTimeout,
		MaxRetries:          c.Providers.MaxRetries,
		HealthCheckInterval: c.Providers.HealthCheckInterval,
	}
}
