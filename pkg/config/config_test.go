package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"hohl-rocks/relay/pkg/providers"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.ListenAddress != ":8080" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Relay.StreamTimeout != 5*time.Minute || cfg.Relay.IdleTimeout != 60*time.Second {
		t.Errorf("relay timeouts = %v / %v", cfg.Relay.StreamTimeout, cfg.Relay.IdleTimeout)
	}
	if cfg.Relay.Temperature == nil || *cfg.Relay.Temperature != 0.7 || cfg.Relay.MaxOutputTokens != 700 {
		t.Errorf("relay generation defaults = %v / %d", cfg.Relay.Temperature, cfg.Relay.MaxOutputTokens)
	}
	if cfg.Ingest.Cron != "0 */6 * * *" || cfg.Ingest.Region != "dach" {
		t.Errorf("ingest defaults = %q / %q", cfg.Ingest.Cron, cfg.Ingest.Region)
	}
	if !cfg.Server.CORS.Enabled || !cfg.Limits.RateLimit.Enabled || !cfg.Telemetry.Metrics.Enabled {
		t.Error("boolean defaults should be true")
	}
	if cfg.Telemetry.Tracing.Enabled {
		t.Error("tracing should be disabled by default")
	}
	if !slices.Contains(cfg.Server.CORS.AllowedOrigins, "https://*.netlify.app") {
		t.Errorf("AllowedOrigins = %v", cfg.Server.CORS.AllowedOrigins)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadConfig_File(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  listen_address: "127.0.0.1:9000"
  cors:
    enabled: false
providers:
  openai:
    api_key: "sk-file"
    model: "gpt-4o"
relay:
  stream_timeout: 2m
  temperature: 0
ingest:
  region: eu
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:9000" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.CORS.Enabled {
		t.Error("explicit false should survive defaults")
	}
	if cfg.Relay.StreamTimeout != 2*time.Minute {
		t.Errorf("StreamTimeout = %v", cfg.Relay.StreamTimeout)
	}
	if cfg.Relay.Temperature == nil || *cfg.Relay.Temperature != 0 {
		t.Errorf("explicit zero temperature should survive defaults: %v", cfg.Relay.Temperature)
	}
	if cfg.Relay.IdleTimeout != DefaultRelayIdle {
		t.Errorf("IdleTimeout default not applied: %v", cfg.Relay.IdleTimeout)
	}
	if cfg.Ingest.Region != "eu" {
		t.Errorf("Region = %q", cfg.Ingest.Region)
	}
	if cfg.Providers.OpenAI.APIKey != "sk-file" || cfg.Providers.OpenAI.Model != "gpt-4o" {
		t.Errorf("openai = %+v", cfg.Providers.OpenAI)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := writeFile(t, "bad.yaml", "server: [not, a, map")
	if _, err := LoadConfig(bad); err == nil {
		t.Error("expected parse error")
	}

	invalid := writeFile(t, "invalid.yaml", "ingest:\n  region: mars\n")
	_, err := LoadConfig(invalid)
	var ve ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Errors[0].Field != "ingest.region" {
		t.Errorf("Field = %q", ve.Errors[0].Field)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "3000")
	t.Setenv("APP_ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://hohl.rocks, https://*.netlify.app ,")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env")
	t.Setenv("CLAUDE_MODEL", "claude-3-haiku-20240307")
	t.Setenv("OPENROUTER_API_KEY", "sk-or-env")
	t.Setenv("TAVILY_API_KEY", "tvly-env")
	t.Setenv("HTTP_TIMEOUT_S", "7")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("OUT_DIR", "/tmp/snapshots")
	t.Setenv("HOHL_RELAY_IDLE_TIMEOUT", "15s")
	t.Setenv("HOHL_LIMITS_RATE_LIMIT_ENABLED", "false")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}

	if cfg.Server.ListenAddress != ":3000" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.Env != "production" {
		t.Errorf("Env = %q", cfg.Server.Env)
	}
	want := []string{"https://hohl.rocks", "https://*.netlify.app"}
	if !slices.Equal(cfg.Server.CORS.AllowedOrigins, want) {
		t.Errorf("AllowedOrigins = %v, want %v", cfg.Server.CORS.AllowedOrigins, want)
	}
	if cfg.Providers.Anthropic.APIKey != "sk-ant-env" || cfg.Providers.Anthropic.Model != "claude-3-haiku-20240307" {
		t.Errorf("anthropic = %+v", cfg.Providers.Anthropic)
	}
	if cfg.Search.Tavily.APIKey != "tvly-env" || cfg.Search.Tavily.Timeout != 7*time.Second {
		t.Errorf("tavily = %+v", cfg.Search.Tavily)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("Level = %q", cfg.Telemetry.Logging.Level)
	}
	if cfg.Ingest.OutDir != "/tmp/snapshots" {
		t.Errorf("OutDir = %q", cfg.Ingest.OutDir)
	}
	if cfg.Relay.IdleTimeout != 15*time.Second {
		t.Errorf("IdleTimeout = %v", cfg.Relay.IdleTimeout)
	}
	if cfg.Limits.RateLimit.Enabled {
		t.Error("rate limit should be disabled")
	}
}

func TestLoadConfigWithEnvOverrides_PrefixWins(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-plain")
	t.Setenv("HOHL_PROVIDERS_OPENAI_API_KEY", "sk-prefixed")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}
	if cfg.Providers.OpenAI.APIKey != "sk-prefixed" {
		t.Errorf("APIKey = %q", cfg.Providers.OpenAI.APIKey)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := writeFile(t, ".env", "HOHL_TEST_DOTENV=from-file\nHOHL_TEST_PRESET=from-file\n")
	t.Setenv("HOHL_TEST_PRESET", "from-env")
	t.Cleanup(func() { os.Unsetenv("HOHL_TEST_DOTENV") })

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile() error = %v", err)
	}
	if os.Getenv("HOHL_TEST_DOTENV") != "from-file" {
		t.Errorf("HOHL_TEST_DOTENV = %q", os.Getenv("HOHL_TEST_DOTENV"))
	}
	if os.Getenv("HOHL_TEST_PRESET") != "from-env" {
		t.Error("existing variables must not be overridden")
	}

	if err := LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Errorf("missing file should be ignored, got %v", err)
	}
	if err := LoadEnvFile(""); err != nil {
		t.Errorf("empty path should be ignored, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"empty listen address", func(c *Config) { c.Server.ListenAddress = "" }, "server.listen_address"},
		{"bad origin", func(c *Config) { c.Server.CORS.AllowedOrigins = []string{"hohl.rocks"} }, "server.cors.allowed_origins[0]"},
		{"credentials with star", func(c *Config) {
			c.Server.CORS.AllowedOrigins = []string{"*"}
			c.Server.CORS.AllowCredentials = true
		}, "server.cors.allow_credentials"},
		{"bad base url", func(c *Config) { c.Providers.OpenAI.BaseURL = "not a url" }, "providers.openai.base_url"},
		{"idle exceeds stream", func(c *Config) { c.Relay.IdleTimeout = 10 * time.Minute }, "relay.idle_timeout"},
		{"temperature", func(c *Config) { t := 3.0; c.Relay.Temperature = &t }, "relay.temperature"},
		{"cron", func(c *Config) { c.Ingest.Cron = "every six hours" }, "ingest.cron"},
		{"replicate attempts", func(c *Config) { c.Replicate.MaxAttempts = -1 }, "replicate.max_attempts"},
		{"rate limit", func(c *Config) { c.Limits.RateLimit.Burst = -1 }, "limits.rate_limit.burst"},
		{"log level", func(c *Config) { c.Telemetry.Logging.Level = "loud" }, "telemetry.logging.level"},
		{"log format", func(c *Config) { c.Telemetry.Logging.Format = "xml" }, "telemetry.logging.format"},
		{"tracing ratio", func(c *Config) {
			c.Telemetry.Tracing.Enabled = true
			c.Telemetry.Tracing.SampleRatio = 2
		}, "telemetry.tracing.sample_ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, fe := range ve.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %q, got %v", tt.wantField, ve.Errors)
			}
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := ValidationError{Errors: []FieldError{
		{Field: "a", Message: "bad"},
		{Field: "b", Message: "worse"},
	}}
	msg := err.Error()
	if !strings.Contains(msg, "2 errors") || !strings.Contains(msg, "b: worse") {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestConfig_Credentials(t *testing.T) {
	cfg := Default()
	cfg.Providers.OpenAI.APIKey = "sk-x"
	cfg.Providers.OpenRouter.Model = "meta/llama"

	creds := cfg.Credentials()
	if len(creds) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(creds))
	}
	if creds[0].Provider != providers.Anthropic || creds[1].Provider != providers.OpenAI || creds[2].Provider != providers.OpenRouter {
		t.Errorf("unexpected order %+v", creds)
	}
	if !creds[1].Configured() || creds[0].Configured() {
		t.Error("only openai should be configured")
	}
	if creds[2].Model != "meta/llama" {
		t.Errorf("openrouter model = %q", creds[2].Model)
	}

	cc := cfg.ClientConfig()
	if cc.ConnectTimeout != DefaultProviderConnectTimeout || cc.MaxRetries != 0 {
		t.Errorf("ClientConfig() = %+v", cc)
	}
}

func TestSingleton(t *testing.T) {
	t.Cleanup(func() { SetConfig(nil) })

	SetConfig(nil)
	if GetConfig() != nil {
		t.Fatal("expected nil before Initialize")
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Error("MustGetConfig should panic before Initialize")
			}
		}()
		MustGetConfig()
	}()

	cfg, err := Initialize("")
	if err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetConfig() != cfg || MustGetConfig() != cfg {
		t.Error("GetConfig should return the initialized config")
	}

	if err := ReloadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected reload error")
	}
	if GetConfig() != cfg {
		t.Error("failed reload must keep the previous config")
	}
}
