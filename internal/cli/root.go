package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/autobear/autobear/internal/config"
	"github.com/autobear/autobear/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the autobear CLI. It wires
// up logging and the subcommand groups (simulate, run, scripts, history,
// sops, notify, console, config, version).
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:     "autobear",
		Short:   "AutoBear script runner CLI",
		Long:    "AutoBear: run registered automation scripts with streamed console output, history, and notifications",
		Version: ver,
		Example: rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if path, _ := cmd.Flags().GetString("config"); path != "" {
				config.SetConfigPath(path)
			}

			if output, _ := cmd.Flags().GetString("output"); output != "" {
				if err := ValidateOutputFormat(output); err != nil {
					return err
				}
			}

			result := setupLogging(cmd, config.New())
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return cleanupLogging(logResult)
		},
	}

	cmd.PersistentFlags().String("log-level", "", "diagnostic log level: trace, debug, info, warn, or error")
	cmd.PersistentFlags().String("log-file", "", "write diagnostics to a file instead of stderr")
	cmd.PersistentFlags().String("config", "", "config file path (default ~/.autobear/config.yaml)")
	cmd.PersistentFlags().StringP("output", "o", "", "output format: table, json, or ndjson")

	cmd.AddCommand(
		NewSimulateCmd(), NewRunCmd(), NewConsoleCmd(),
		newScriptsCmd(), newHistoryCmd(), newSOPsCmd(),
		newNotifyCmd(), newConfigCmd(), NewVersionCmd(),
	)

	return cmd
}

const rootCmdExample = `  # Run the built-in demonstration job
  autobear simulate --records 500 --fast

  # Run a registered script and record its history
  autobear run backup.py

  # Open the interactive console
  autobear console

  # List registered scripts with their last runs
  autobear scripts list

  # Show execution statistics for a script
  autobear history stats backup.py

  # Send a test notification
  autobear notify test --kind success

  # Initialize configuration
  autobear config init`

// outputFlag resolves the effective output format: the --output flag when
// set, otherwise the configured default.
func outputFlag(cmd *cobra.Command, cfg *config.Config) string {
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		return output
	}
	if cfg.Output != "" {
		return cfg.Output
	}
	return outputFormatTable
}
