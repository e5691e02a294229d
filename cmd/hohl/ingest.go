package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hohl-rocks/relay/pkg/cli"
	"hohl-rocks/relay/pkg/news"
	"hohl-rocks/relay/pkg/search/tavily"
)

var ingestFlags struct {
	region string
	outDir string
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Write one AI-Act news snapshot and exit",
	Long: `Run the news ingest job once, outside of its cron schedule.

The snapshot is written as news-<region>-<timestamp>.json into the output
directory. Without TAVILY_API_KEY an empty snapshot is written.

Examples:
  hohl ingest
  hohl ingest --region eu --out-dir /var/lib/hohl`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestFlags.region, "region", "", "override region (dach, eu, all)")
	ingestCmd.Flags().StringVar(&ingestFlags.outDir, "out-dir", "", "override output directory")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if ingestFlags.region != "" {
		cfg.Ingest.Region = ingestFlags.region
	}
	if ingestFlags.outDir != "" {
		cfg.Ingest.OutDir = ingestFlags.outDir
	}
	switch cfg.Ingest.Region {
	case "dach", "eu", "all":
	default:
		return cli.NewConfigError("region", fmt.Sprintf("region must be dach, eu or all, got %q", cfg.Ingest.Region))
	}

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	ingester := news.NewIngester(tavily.FromConfig(cfg.Search.Tavily), cfg.Ingest.Region, cfg.Ingest.OutDir, nil)
	result, err := ingester.RunOnce(ctx)
	if err != nil {
		return cli.NewCommandError("ingest", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d items to %s\n", result.Items, result.Path)
	return nil
}
