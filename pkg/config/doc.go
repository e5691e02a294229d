// Package config provides configuration management for the hohl.rocks relay.
//
// Configuration comes from an optional YAML file, a dotenv file and the
// process environment. Loading never fails because a provider key is
// missing: availability of a provider is decided by the presence of its key.
//
// # Configuration Loading
//
//	if err := config.LoadEnvFile(".env"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variables
//
// The deployment's conventional names are honoured:
//
//   - PORT, APP_ENV, ALLOWED_ORIGINS
//   - ANTHROPIC_API_KEY, OPENAI_API_KEY, OPENROUTER_API_KEY
//   - CLAUDE_MODEL, OPENAI_MODEL, OPENROUTER_MODEL
//   - TAVILY_API_KEY, REPLICATE_API_TOKEN, HTTP_TIMEOUT_S
//   - LOG_LEVEL, INGEST_CRON, INGEST_REGION, OUT_DIR
//
// Every section can also be set with HOHL_SECTION_FIELD, for example
// HOHL_RELAY_STREAM_TIMEOUT=2m. The prefixed form wins over the
// conventional one.
//
// # Configuration Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
//	if err := config.Initialize("config.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
//
// For testing, prefer passing explicit Config instances.
//
// # Example Configuration
//
//	server:
//	  listen_address: ":8080"
//	  cors:
//	    allowed_origins: ["https://hohl.rocks", "https://*.netlify.app"]
//
//	providers:
//	  anthropic:
//	    model: "claude-3-5-sonnet-20241022"
//
//	relay:
//	  stream_timeout: 5m
//	  idle_timeout: 60s
//
//	ingest:
//	  cron: "0 */6 * * *"
//	  region: "dach"
//
// # Thread Safety
//
// The singleton uses a read-write lock so reloads never race with readers.
package config
