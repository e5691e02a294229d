package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = ":8080"
	DefaultEnv             = "development"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1 << 20
	DefaultMaxBodyBytes    = int64(1 << 20)

	// CORS defaults
	DefaultCORSEnabled = true
	DefaultCORSMaxAge  = 600

	// Provider defaults
	DefaultProviderReferer        = "https://hohl.rocks"
	DefaultProviderTitle          = "hohl.rocks"
	DefaultProviderConnectTimeout = 30 * time.Second

	// Relay defaults
	DefaultStreamTimeout   = 5 * time.Minute
	DefaultRelayIdle       = 60 * time.Second
	DefaultTemperature     = 0.7
	DefaultMaxOutputTokens = 700

	// Search defaults
	DefaultTavilyBaseURL = "https://api.tavily.com"
	DefaultTavilyTimeout = 20 * time.Second

	// News defaults
	DefaultNewsCacheTTL = 12 * time.Hour

	// Ingest defaults
	DefaultIngestEnabled    = true
	DefaultIngestCron       = "0 */6 * * *"
	DefaultIngestRegion     = "dach"
	DefaultIngestOutDir     = "./data"
	DefaultIngestRunOnStart = true

	// Replicate defaults
	DefaultReplicateBaseURL      = "https://api.replicate.com/v1"
	DefaultReplicateMaxAttempts  = 30
	DefaultReplicatePollInterval = 2 * time.Second

	// Rate limit defaults
	DefaultRateLimitEnabled    = true
	DefaultRequestsPerMinute   = 60
	DefaultRateLimitBurst      = 60
	DefaultRateLimitTrustProxy = true
	DefaultRateLimitIdleTTL    = 10 * time.Minute

	// Telemetry defaults
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
	DefaultLogRedactSecrets   = true
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "hohl"
	DefaultMetricsSubsystem   = "relay"
	DefaultTracingSampler     = "ratio"
	DefaultTracingRatio       = 0.1
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingService     = "hohl-relay"
	DefaultTracingInsecure    = true
	DefaultTracingTimeout     = 10 * time.Second
	DefaultLivenessPath       = "/healthz"
	DefaultReadinessPath      = "/readyz"
	DefaultVersionPath        = "/version"
	DefaultHealthCheckTimeout = 2 * time.Second
)

// Default slice values.
var (
	DefaultCORSAllowedOrigins = []string{
		"https://hohl.rocks",
		"https://www.hohl.rocks",
		"https://*.netlify.app",
		"http://localhost:*",
	}
	DefaultCORSAllowedMethods = []string{"GET", "POST", "OPTIONS"}
	DefaultCORSAllowedHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	DefaultCORSExposedHeaders = []string{"X-Request-ID"}

	// DefaultRequestDurationBuckets covers short JSON calls up to full
	// five minute streams.
	DefaultRequestDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300}
)

// Default returns a configuration with every field at its default value.
// Files are decoded on top of it so that booleans defaulting to true stay
// true unless a file sets them.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.CORS.Enabled = DefaultCORSEnabled
	cfg.Ingest.Enabled = DefaultIngestEnabled
	cfg.Ingest.RunOnStart = DefaultIngestRunOnStart
	cfg.Limits.RateLimit.Enabled = DefaultRateLimitEnabled
	cfg.Limits.RateLimit.TrustProxy = DefaultRateLimitTrustProxy
	cfg.Telemetry.Logging.RedactSecrets = DefaultLogRedactSecrets
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Tracing.Insecure = DefaultTracingInsecure
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every zero-valued non-boolean field with its default.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = DefaultEnv
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}

	// CORS defaults
	cors := &cfg.Server.CORS
	if len(cors.AllowedOrigins) == 0 {
		cors.AllowedOrigins = append([]string(nil), DefaultCORSAllowedOrigins...)
	}
	if len(cors.AllowedMethods) == 0 {
		cors.AllowedMethods = append([]string(nil), DefaultCORSAllowedMethods...)
	}
	if len(cors.AllowedHeaders) == 0 {
		cors.AllowedHeaders = append([]string(nil), DefaultCORSAllowedHeaders...)
	}
	if len(cors.ExposedHeaders) == 0 {
		cors.ExposedHeaders = append([]string(nil), DefaultCORSExposedHeaders...)
	}
	if cors.MaxAge == 0 {
		cors.MaxAge = DefaultCORSMaxAge
	}

	// Provider defaults
	if cfg.Providers.Referer == "" {
		cfg.Providers.Referer = DefaultProviderReferer
	}
	if cfg.Providers.Title == "" {
		cfg.Providers.Title = DefaultProviderTitle
	}
	if cfg.Providers.ConnectTimeout == 0 {
		cfg.Providers.ConnectTimeout = DefaultProviderConnectTimeout
	}

	// Relay defaults
	if cfg.Relay.StreamTimeout == 0 {
		cfg.Relay.StreamTimeout = DefaultStreamTimeout
	}
	if cfg.Relay.IdleTimeout == 0 {
		cfg.Relay.IdleTimeout = DefaultRelayIdle
	}
	if cfg.Relay.Temperature == nil {
		t := DefaultTemperature
		cfg.Relay.Temperature = &t
	}
	if cfg.Relay.MaxOutputTokens == 0 {
		cfg.Relay.MaxOutputTokens = DefaultMaxOutputTokens
	}

	// Search defaults
	if cfg.Search.Tavily.BaseURL == "" {
		cfg.Search.Tavily.BaseURL = DefaultTavilyBaseURL
	}
	if cfg.Search.Tavily.Timeout == 0 {
		cfg.Search.Tavily.Timeout = DefaultTavilyTimeout
	}

	// News defaults
	if cfg.News.CacheTTL == 0 {
		cfg.News.CacheTTL = DefaultNewsCacheTTL
	}

	// Ingest defaults
	if cfg.Ingest.Cron == "" {
		cfg.Ingest.Cron = DefaultIngestCron
	}
	if cfg.Ingest.Region == "" {
		cfg.Ingest.Region = DefaultIngestRegion
	}
	if cfg.Ingest.OutDir == "" {
		cfg.Ingest.OutDir = DefaultIngestOutDir
	}

	// Replicate defaults
	if cfg.Replicate.BaseURL == "" {
		cfg.Replicate.BaseURL = DefaultReplicateBaseURL
	}
	if cfg.Replicate.MaxAttempts == 0 {
		cfg.Replicate.MaxAttempts = DefaultReplicateMaxAttempts
	}
	if cfg.Replicate.PollInterval == 0 {
		cfg.Replicate.PollInterval = DefaultReplicatePollInterval
	}

	// Rate limit defaults
	rl := &cfg.Limits.RateLimit
	if rl.RequestsPerMinute == 0 {
		rl.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if rl.Burst == 0 {
		rl.Burst = DefaultRateLimitBurst
	}
	if rl.IdleTTL == 0 {
		rl.IdleTTL = DefaultRateLimitIdleTTL
	}

	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLogLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLogFormat
	}

	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if t.Metrics.Subsystem == "" {
		t.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(t.Metrics.RequestDurationBuckets) == 0 {
		t.Metrics.RequestDurationBuckets = append([]float64(nil), DefaultRequestDurationBuckets...)
	}

	if t.Tracing.Sampler == "" {
		t.Tracing.Sampler = DefaultTracingSampler
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultTracingRatio
	}
	if t.Tracing.Endpoint == "" {
		t.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingService
	}
	if t.Tracing.Timeout == 0 {
		t.Tracing.Timeout = DefaultTracingTimeout
	}

	if t.Health.LivenessPath == "" {
		t.Health.LivenessPath = DefaultLivenessPath
	}
	if t.Health.ReadinessPath == "" {
		t.Health.ReadinessPath = DefaultReadinessPath
	}
	if t.Health.VersionPath == "" {
		t.Health.VersionPath = DefaultVersionPath
	}
	if t.Health.CheckTimeout == 0 {
		t.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
