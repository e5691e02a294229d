package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes the structured environment overrides, e.g.
// HOHL_SERVER_LISTEN_ADDRESS.
const EnvPrefix = "HOHL_"

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment. Variables that are already set are not overridden and a
// missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %q: %w", path, err)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file at the specified path.
// An empty path yields the defaults. It applies defaults and validates, but
// ignores the environment; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from an optional YAML file
// and applies environment variable overrides. Environment variables always
// take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Start from defaults
// 2. Decode the YAML file, if any
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)
	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadFile(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(cfg)
	return cfg, nil
}

// applyEnvOverrides applies the conventional deployment variables first and
// the HOHL_ prefixed ones second, so the prefixed form wins.
func applyEnvOverrides(cfg *Config) {
	applyConventionalEnv(cfg)

	// Server overrides
	setString(&cfg.Server.ListenAddress, "SERVER_LISTEN_ADDRESS")
	setString(&cfg.Server.Env, "SERVER_ENV")
	setDuration(&cfg.Server.ReadTimeout, "SERVER_READ_TIMEOUT")
	setDuration(&cfg.Server.WriteTimeout, "SERVER_WRITE_TIMEOUT")
	setDuration(&cfg.Server.IdleTimeout, "SERVER_IDLE_TIMEOUT")
	setDuration(&cfg.Server.ShutdownTimeout, "SERVER_SHUTDOWN_TIMEOUT")
	setBool(&cfg.Server.CORS.Enabled, "SERVER_CORS_ENABLED")
	setList(&cfg.Server.CORS.AllowedOrigins, "SERVER_CORS_ALLOWED_ORIGINS")

	// Provider overrides
	applyProviderEnvOverrides(&cfg.Providers.Anthropic, "ANTHROPIC")
	applyProviderEnvOverrides(&cfg.Providers.OpenAI, "OPENAI")
	applyProviderEnvOverrides(&cfg.Providers.OpenRouter, "OPENROUTER")
	setString(&cfg.Providers.Referer, "PROVIDERS_REFERER")
	setString(&cfg.Providers.Title, "PROVIDERS_TITLE")
	setDuration(&cfg.Providers.ConnectTimeout, "PROVIDERS_CONNECT_TIMEOUT")
	setInt(&cfg.Providers.MaxRetries, "PROVIDERS_MAX_RETRIES")
	setDuration(&cfg.Providers.HealthCheckInterval, "PROVIDERS_HEALTH_CHECK_INTERVAL")

	// Relay overrides
	setDuration(&cfg.Relay.StreamTimeout, "RELAY_STREAM_TIMEOUT")
	setDuration(&cfg.Relay.IdleTimeout, "RELAY_IDLE_TIMEOUT")
	setInt(&cfg.Relay.MaxOutputTokens, "RELAY_MAX_OUTPUT_TOKENS")
	if val := os.Getenv(EnvPrefix + "RELAY_TEMPERATURE"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Relay.Temperature = &f
		}
	}

	// Prompts overrides
	setString(&cfg.Prompts.File, "PROMPTS_FILE")
	setBool(&cfg.Prompts.Watch, "PROMPTS_WATCH")

	// News and ingest overrides
	setDuration(&cfg.News.CacheTTL, "NEWS_CACHE_TTL")
	setBool(&cfg.Ingest.Enabled, "INGEST_ENABLED")
	setBool(&cfg.Ingest.RunOnStart, "INGEST_RUN_ON_START")

	// Limits overrides
	setBool(&cfg.Limits.RateLimit.Enabled, "LIMITS_RATE_LIMIT_ENABLED")
	setInt(&cfg.Limits.RateLimit.RequestsPerMinute, "LIMITS_RATE_LIMIT_REQUESTS_PER_MINUTE")
	setInt(&cfg.Limits.RateLimit.Burst, "LIMITS_RATE_LIMIT_BURST")
	setBool(&cfg.Limits.RateLimit.TrustProxy, "LIMITS_RATE_LIMIT_TRUST_PROXY")

	// Telemetry overrides
	setString(&cfg.Telemetry.Logging.Level, "TELEMETRY_LOGGING_LEVEL")
	setString(&cfg.Telemetry.Logging.Format, "TELEMETRY_LOGGING_FORMAT")
	setBool(&cfg.Telemetry.Metrics.Enabled, "TELEMETRY_METRICS_ENABLED")
	setString(&cfg.Telemetry.Metrics.Path, "TELEMETRY_METRICS_PATH")
	setBool(&cfg.Telemetry.Tracing.Enabled, "TELEMETRY_TRACING_ENABLED")
	setString(&cfg.Telemetry.Tracing.Endpoint, "TELEMETRY_TRACING_ENDPOINT")
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_SAMPLE_RATIO"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Telemetry.Tracing.SampleRatio = f
		}
	}
	setBool(&cfg.Telemetry.Health.ProbeProviders, "TELEMETRY_HEALTH_PROBE_PROVIDERS")
}

// applyConventionalEnv maps the unprefixed variables used by the hosting
// platform and the existing deployment.
func applyConventionalEnv(cfg *Config) {
	if val := os.Getenv("PORT"); val != "" {
		cfg.Server.ListenAddress = ":" + strings.TrimPrefix(val, ":")
	}
	if val := os.Getenv("APP_ENV"); val != "" {
		cfg.Server.Env = val
	}
	if val := os.Getenv("ALLOWED_ORIGINS"); val != "" {
		if origins := splitList(val); len(origins) > 0 {
			cfg.Server.CORS.AllowedOrigins = origins
		}
	}

	plain := []struct {
		dst *string
		key string
	}{
		{&cfg.Providers.Anthropic.APIKey, "ANTHROPIC_API_KEY"},
		{&cfg.Providers.OpenAI.APIKey, "OPENAI_API_KEY"},
		{&cfg.Providers.OpenRouter.APIKey, "OPENROUTER_API_KEY"},
		{&cfg.Providers.Anthropic.Model, "CLAUDE_MODEL"},
		{&cfg.Providers.Anthropic.Model, "ANTHROPIC_MODEL"},
		{&cfg.Providers.OpenAI.Model, "OPENAI_MODEL"},
		{&cfg.Providers.OpenRouter.Model, "OPENROUTER_MODEL"},
		{&cfg.Search.Tavily.APIKey, "TAVILY_API_KEY"},
		{&cfg.Replicate.APIToken, "REPLICATE_API_TOKEN"},
		{&cfg.Telemetry.Logging.Level, "LOG_LEVEL"},
		{&cfg.Ingest.Cron, "INGEST_CRON"},
		{&cfg.Ingest.Region, "INGEST_REGION"},
		{&cfg.Ingest.OutDir, "OUT_DIR"},
	}
	for _, p := range plain {
		if val := strings.TrimSpace(os.Getenv(p.key)); val != "" {
			*p.dst = val
		}
	}

	if val := os.Getenv("HTTP_TIMEOUT_S"); val != "" {
		if s, err := strconv.Atoi(val); err == nil && s > 0 {
			cfg.Search.Tavily.Timeout = time.Duration(s) * time.Second
		}
	}
}

// applyProviderEnvOverrides applies HOHL_PROVIDERS_<NAME>_<FIELD> overrides.
func applyProviderEnvOverrides(p *ProviderConfig, name string) {
	prefix := fmt.Sprintf("PROVIDERS_%s_", name)
	setString(&p.APIKey, prefix+"API_KEY")
	setString(&p.Model, prefix+"MODEL")
	setString(&p.BaseURL, prefix+"BASE_URL")
}

func setString(dst *string, key string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
	}
}

func setList(dst *[]string, key string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = splitList(val)
	}
}

func setBool(dst *bool, key string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func setInt(dst *int, key string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func splitList(val string) []string {
	var out []string
	for _, s := range strings.Split(val, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
