/*
Package cli provides command-line helpers used by the hohl command.

Output Formatting:

Command results are printed as text or JSON:

	formatter, err := cli.ParseFormat(flagValue)
	if err != nil {
		return err
	}
	return cli.NewFormatter(formatter).FormatTo(os.Stdout, result)

Values implementing Lines are printed one line per entry in text mode.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()

Errors:

ConfigError and CommandError carry the exit status of the process; see
ExitCode.
*/
package cli
