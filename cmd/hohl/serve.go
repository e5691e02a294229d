package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"hohl-rocks/relay/pkg/cli"
	"hohl-rocks/relay/pkg/config"
	"hohl-rocks/relay/pkg/providers"
	"hohl-rocks/relay/pkg/routing"
	"hohl-rocks/relay/pkg/server"
)

var serveFlags struct {
	listenAddress string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run"},
	Short:   "Start the relay server",
	Long: `Start the relay server with the specified configuration.

The server streams completions on /run and /api/run and serves the news,
research, replicate and prompt APIs. The news ingest job runs on its cron
schedule while the server is up.

Examples:
  # Start with defaults, .env and environment
  hohl serve

  # Start with a config file
  hohl serve --config /etc/hohl/config.yaml

  # Override listen address
  hohl serve --listen 0.0.0.0:3000

  # Validate config without starting the server
  hohl serve --dry-run`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}

	out := cmd.OutOrStdout()
	if serveFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	app, err := server.Build(cfg, versionInfo())
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := app.Close(ctx); err != nil {
			slog.Warn("cleanup failed", "error", err)
		}
	}()

	printBanner(out, cfg, app)

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	if err := server.New(app).Run(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}

	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

func printBanner(w io.Writer, cfg *config.Config, app *server.App) {
	fmt.Fprintf(w, "hohl %s\n", Version)
	if cfgFile != "" {
		fmt.Fprintf(w, "Loading configuration from: %s\n", cfgFile)
	}

	if provider := routing.SelectProvider(app.Credentials); provider != providers.None {
		fmt.Fprintf(w, "✓ Provider: %s (%s)\n", provider, routing.ActiveModel(app.Credentials))
	} else {
		fmt.Fprintln(w, "! No provider configured, /run answers with an error record")
	}
	fmt.Fprintf(w, "✓ Prompts: %d\n", app.Prompts.Len())
	if cfg.Ingest.Enabled {
		fmt.Fprintf(w, "✓ News ingest: %q into %s\n", cfg.Ingest.Cron, cfg.Ingest.OutDir)
	}
	fmt.Fprintf(w, "✓ Listening on %s\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(w, "✓ Metrics endpoint: %s\n", cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(w, "\nPress Ctrl+C to stop")
}
