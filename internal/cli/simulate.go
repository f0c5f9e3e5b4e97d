package cli

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/autobear/autobear/internal/simulate"
)

// NewSimulateCmd creates the simulate command, which runs the demonstration
// batch job against stdout.
func NewSimulateCmd() *cobra.Command {
	var (
		records    int
		batchSize  int
		format     string
		noValidate bool
		batchDelay time.Duration
		lineDelay  time.Duration
		seed       int64
		fast       bool
	)

	defaults := simulate.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the demonstration batch job",
		Long: `Runs the built-in demonstration batch job: a linear data-processing
simulation that emits timestamped console lines for exercising log viewers.
Interrupting the job (Ctrl+C) emits a warning line and exits with code 1.`,
		Example: `  # Run with the registered defaults (1000 records, batches of 100)
  autobear simulate

  # A quick deterministic run for scripting
  autobear simulate --records 200 --seed 42 --fast

  # CSV output with a custom batch size
  autobear simulate --batch-size 250 --format csv`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := simulate.Config{
				RecordCount:     records,
				BatchSize:       batchSize,
				OutputFormat:    format,
				ValidateRecords: !noValidate,
				BatchDelay:      batchDelay,
				LineDelay:       lineDelay,
				WarnEvery:       defaults.WarnEvery,
				Seed:            seed,
			}
			if fast {
				cfg.BatchDelay = 0
				cfg.LineDelay = 0
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			result, err := simulate.Run(ctx, cmd.OutOrStdout(), cfg)
			if errors.Is(err, simulate.ErrInterrupted) {
				return &ExitCodeError{ExitCode: 1, Reason: err.Error()}
			}
			if err != nil {
				logger.Error().Err(err).Msg("simulation failed")
				return fmt.Errorf("running simulation: %w", err)
			}

			logger.Debug().
				Int("processed", result.Processed).
				Int("skipped", result.Skipped).
				Int("batches", result.Batches).
				Dur("duration", result.Duration).
				Msg("simulation finished")
			return nil
		},
	}

	cmd.Flags().IntVar(&records, "records", defaults.RecordCount, "number of records to process")
	cmd.Flags().IntVar(&batchSize, "batch-size", defaults.BatchSize, "records per batch")
	cmd.Flags().StringVar(&format, "format", defaults.OutputFormat, "simulated output format: json, csv, or table")
	cmd.Flags().BoolVar(&noValidate, "no-validate", false, "skip the simulated record validation step")
	cmd.Flags().DurationVar(&batchDelay, "batch-delay", defaults.BatchDelay, "pause between batches")
	cmd.Flags().DurationVar(&lineDelay, "line-delay", defaults.LineDelay, "pause between console lines")
	cmd.Flags().Int64Var(&seed, "seed", 0, "seed for the validation warning schedule (0 = from the clock)")
	cmd.Flags().BoolVar(&fast, "fast", false, "drop all pacing delays")

	return cmd
}
