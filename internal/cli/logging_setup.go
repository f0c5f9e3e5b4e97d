package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/autobear/autobear/internal/config"
	"github.com/autobear/autobear/internal/logging"
)

// setupLogging configures diagnostics based on the config file, environment,
// and CLI flags, then attaches the logger to the command context. Script
// output is unaffected; diagnostics never write to stdout.
func setupLogging(cmd *cobra.Command, cfg *config.Config) logging.LogPathResult {
	loggingCfg := cfg.Logging

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		loggingCfg.Level = level
	}
	if file, _ := cmd.Flags().GetString("log-file"); file != "" {
		loggingCfg.File = file
	}

	// Flags win over the environment, the environment over the file.
	if envLevel := os.Getenv(config.EnvLogLevel); envLevel != "" && !cmd.Flags().Changed("log-level") {
		loggingCfg.Level = envLevel
	}
	if envFormat := os.Getenv(config.EnvLogFormat); envFormat != "" {
		loggingCfg.Format = envFormat
	}

	result := logging.NewLoggerWithPath(loggingCfg.ToLoggingConfig())
	logger = logging.ComponentLogger(result.Logger, "cli")

	if result.UsingFile {
		logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
	} else if result.FallbackUsed {
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	}

	cmd.SetContext(logger.WithContext(cmd.Context()))
	logger.Debug().Str("command", cmd.Name()).Msg("command started")

	return result
}

// cleanupLogging closes the log file handle, if one was opened.
func cleanupLogging(logResult *logging.LogPathResult) error {
	if logResult == nil {
		return nil
	}
	return logResult.Close()
}
