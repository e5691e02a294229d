package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"hohl-rocks/relay/pkg/cli"
	"hohl-rocks/relay/pkg/proxy/handlers"
	"hohl-rocks/relay/pkg/providers"
	"hohl-rocks/relay/pkg/server"
)

var completeFlags struct {
	promptID string
	system   string
	stream   bool
}

var completeCmd = &cobra.Command{
	Use:   "complete [prompt...]",
	Short: "Send one prompt to the configured provider",
	Long: `Send one prompt to the highest priority configured provider and print
the answer.

By default the whole answer is fetched at once. With --stream the relay is
used and deltas are printed as they arrive, exactly as /run delivers them.

Examples:
  hohl complete "Was regelt der AI Act?"
  hohl complete --prompt-id weltbau --stream "Fasse zusammen"
  hohl complete --system "Antworte in einem Satz." "Was ist SSE?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runComplete,
}

func init() {
	rootCmd.AddCommand(completeCmd)

	completeCmd.Flags().StringVarP(&completeFlags.promptID, "prompt-id", "p", "", "prompt catalog id for the system prompt")
	completeCmd.Flags().StringVarP(&completeFlags.system, "system", "s", "", "system prompt (overrides --prompt-id)")
	completeCmd.Flags().BoolVar(&completeFlags.stream, "stream", false, "stream the answer through the relay")
}

func runComplete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	app, err := server.Build(cfg, versionInfo())
	if err != nil {
		return cli.NewCommandError("complete", err)
	}
	defer func() {
		if err := app.Close(context.Background()); err != nil {
			slog.Warn("cleanup failed", "error", err)
		}
	}()

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

	prompt := strings.Join(args, " ")
	system := systemPrompt(app.Prompts, completeFlags.promptID, completeFlags.system)
	out := cmd.OutOrStdout()

	if completeFlags.stream {
		req := providers.NewGenerationRequest(system, prompt, nil)
		if t := cfg.Relay.Temperature; t != nil {
			req.Temperature = providers.Float64(*t)
		}
		req.MaxOutputTokens = cfg.Relay.MaxOutputTokens
		if err := printStream(out, app.Relay.Stream(ctx, req)); err != nil {
			return cli.NewCommandError("complete", err)
		}
		return nil
	}

	answer, err := app.Completion.Complete(ctx, prompt, system)
	if err != nil {
		return cli.NewCommandError("complete", errors.New(providers.ClientMessage(err)))
	}
	fmt.Fprintln(out, answer)
	return nil
}

// systemPrompt resolves the system instruction the way /run does: an
// explicit prompt wins over the catalog entry.
func systemPrompt(catalog handlers.PromptCatalog, id, explicit string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	return catalog.SystemPrompt(id)
}

// printStream writes deltas as they arrive. An error fragment ends the
// output with a newline and is returned.
func printStream(w io.Writer, fragments <-chan providers.Fragment) error {
	var streamErr error
	for frag := range fragments {
		switch frag.Kind() {
		case providers.KindDelta:
			if _, err := io.WriteString(w, frag.Text); err != nil {
				streamErr = err
			}
		case providers.KindError:
			fmt.Fprintln(w)
			streamErr = errors.New(frag.ErrorMessage)
		case providers.KindDone:
			fmt.Fprintln(w)
		}
	}
	return streamErr
}
