package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together. Missing provider keys are not an error: the relay then
// answers with a configuration error fragment.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateProviders(&cfg.Providers)...)
	errs = append(errs, validateRelay(&cfg.Relay)...)
	errs = append(errs, validateIngest(&cfg.Ingest)...)
	errs = append(errs, validateReplicate(&cfg.Replicate)...)
	errs = append(errs, validateLimits(&cfg.Limits)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "listen address is required"})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "read timeout must be positive"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "write timeout must be positive"})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.idle_timeout", Message: "idle timeout must be positive"})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{Field: "server.max_body_bytes", Message: "max body bytes must be non-negative"})
	}

	for i, origin := range cfg.CORS.AllowedOrigins {
		if origin == "*" {
			continue
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("server.cors.allowed_origins[%d]", i),
				Message: fmt.Sprintf("origin %q must start with http:// or https://", origin),
			})
		}
	}
	if cfg.CORS.AllowCredentials && slices.Contains(cfg.CORS.AllowedOrigins, "*") {
		errs = append(errs, FieldError{
			Field:   "server.cors.allow_credentials",
			Message: "credentials cannot be allowed with a \"*\" origin",
		})
	}

	return errs
}

func validateProviders(cfg *ProvidersConfig) []FieldError {
	var errs []FieldError

	check := func(name string, p ProviderConfig) {
		if p.BaseURL == "" {
			return
		}
		if u, err := url.Parse(p.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("providers.%s.base_url", name),
				Message: fmt.Sprintf("invalid URL %q", p.BaseURL),
			})
		}
	}
	check("anthropic", cfg.Anthropic)
	check("openai", cfg.OpenAI)
	check("openrouter", cfg.OpenRouter)

	if cfg.ConnectTimeout < 0 {
		errs = append(errs, FieldError{Field: "providers.connect_timeout", Message: "connect timeout must be positive"})
	}
	if cfg.MaxRetries < 0 {
		errs = append(errs, FieldError{Field: "providers.max_retries", Message: "max retries must be non-negative"})
	}
	return errs
}

func validateRelay(cfg *RelayConfig) []FieldError {
	var errs []FieldError

	if cfg.StreamTimeout <= 0 {
		errs = append(errs, FieldError{Field: "relay.stream_timeout", Message: "stream timeout must be positive"})
	}
	if cfg.IdleTimeout <= 0 {
		errs = append(errs, FieldError{Field: "relay.idle_timeout", Message: "idle timeout must be positive"})
	}
	if cfg.IdleTimeout > cfg.StreamTimeout {
		errs = append(errs, FieldError{Field: "relay.idle_timeout", Message: "idle timeout must not exceed stream timeout"})
	}
	if t := cfg.Temperature; t != nil && (*t < 0 || *t > 2) {
		errs = append(errs, FieldError{Field: "relay.temperature", Message: "temperature must be between 0 and 2"})
	}
	if cfg.MaxOutputTokens < 1 {
		errs = append(errs, FieldError{Field: "relay.max_output_tokens", Message: "max output tokens must be at least 1"})
	}
	return errs
}

func validateIngest(cfg *IngestConfig) []FieldError {
	var errs []FieldError

	if _, err := cron.ParseStandard(cfg.Cron); err != nil {
		errs = append(errs, FieldError{Field: "ingest.cron", Message: fmt.Sprintf("invalid cron expression: %v", err)})
	}
	if !slices.Contains([]string{"dach", "eu", "all"}, cfg.Region) {
		errs = append(errs, FieldError{Field: "ingest.region", Message: fmt.Sprintf("region must be dach, eu or all, got %q", cfg.Region)})
	}
	if cfg.OutDir == "" {
		errs = append(errs, FieldError{Field: "ingest.out_dir", Message: "output directory is required"})
	}
	return errs
}

func validateReplicate(cfg *ReplicateConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxAttempts < 1 {
		errs = append(errs, FieldError{Field: "replicate.max_attempts", Message: "max attempts must be at least 1"})
	}
	if cfg.PollInterval <= 0 {
		errs = append(errs, FieldError{Field: "replicate.poll_interval", Message: "poll interval must be positive"})
	}
	return errs
}

func validateLimits(cfg *LimitsConfig) []FieldError {
	var errs []FieldError

	rl := cfg.RateLimit
	if !rl.Enabled {
		return nil
	}
	if rl.RequestsPerMinute < 1 {
		errs = append(errs, FieldError{Field: "limits.rate_limit.requests_per_minute", Message: "must be at least 1"})
	}
	if rl.Burst < 1 {
		errs = append(errs, FieldError{Field: "limits.rate_limit.burst", Message: "must be at least 1"})
	}
	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	if !slices.Contains([]string{"debug", "info", "warn", "warning", "error"}, strings.ToLower(cfg.Logging.Level)) {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", cfg.Logging.Level),
		})
	}
	if !slices.Contains([]string{"json", "text"}, cfg.Logging.Format) {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (valid: json, text)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "metrics path must start with /"})
	}

	if cfg.Tracing.Enabled {
		if !slices.Contains([]string{"always", "never", "ratio"}, cfg.Tracing.Sampler) {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("invalid sampler %q (valid: always, never, ratio)", cfg.Tracing.Sampler),
			})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "sample ratio must be between 0 and 1"})
		}
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "endpoint is required when tracing is enabled"})
		}
	}

	if cfg.Health.CheckTimeout < 0 {
		errs = append(errs, FieldError{Field: "telemetry.health.check_timeout", Message: "check timeout must be positive"})
	}
	return errs
}
