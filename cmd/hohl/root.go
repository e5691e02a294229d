package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"hohl-rocks/relay/pkg/cli"
	"hohl-rocks/relay/pkg/config"
	"hohl-rocks/relay/pkg/telemetry/health"
	"hohl-rocks/relay/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "hohl",
	Short: "hohl.rocks backend - LLM streaming relay",
	Long: `hohl is the backend of hohl.rocks.

It relays prompts to the first configured LLM provider (Anthropic, OpenAI,
OpenRouter) and streams the answer to the browser as server-sent events.
Around the relay it serves:
  - curated news and daily lists backed by Tavily search
  - a research endpoint summarizing live search results
  - Replicate predictions
  - a scheduled AI-Act news snapshot job

Configuration comes from an optional YAML file, a .env file and the
environment, in increasing order of precedence.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig reads the dotenv file, the optional config file and the
// environment, then installs the structured logger.
func loadConfig() (*config.Config, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, cli.NewConfigError("env-file", err.Error())
	}

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)
	config.SetConfig(cfg)

	return cfg, nil
}

func versionInfo() health.VersionInfo {
	return health.NewVersionInfo(Version, GitCommit, BuildDate)
}
