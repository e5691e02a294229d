package main

import (
	"github.com/spf13/cobra"

	"hohl-rocks/relay/pkg/cli"
	"hohl-rocks/relay/pkg/prompts"
)

var promptsFlags struct {
	output string
}

var promptsCmd = &cobra.Command{
	Use:   "prompts",
	Short: "List the prompt catalog ids",
	Long: `List the ids of the prompt catalog: the built-in prompts merged with
the overlay file configured as prompts.file.`,
	Args: cobra.NoArgs,
	RunE: runPrompts,
}

func init() {
	rootCmd.AddCommand(promptsCmd)
	promptsCmd.Flags().StringVarP(&promptsFlags.output, "output", "o", "text", "output format (text, json)")
}

type promptsResult struct {
	Count int      `json:"count"`
	IDs   []string `json:"ids"`
}

// Lines prints one id per line.
func (r promptsResult) Lines() []string { return r.IDs }

func runPrompts(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(promptsFlags.output)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	catalog, err := prompts.Load(cfg.Prompts.File)
	if err != nil {
		return cli.NewConfigError("prompts.file", err.Error())
	}

	ids := catalog.IDs()
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), promptsResult{Count: len(ids), IDs: ids})
}
