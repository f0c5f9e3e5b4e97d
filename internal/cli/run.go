package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/autobear/autobear/internal/config"
	"github.com/autobear/autobear/internal/events"
	"github.com/autobear/autobear/internal/logline"
	"github.com/autobear/autobear/internal/notify"
	"github.com/autobear/autobear/internal/runner"
	"github.com/autobear/autobear/pkg/version"
)

// runParams collects the run command's flag values.
type runParams struct {
	dev      bool
	noNotify bool
	timeout  time.Duration
}

// NewRunCmd creates the run command, which executes a registered script and
// streams its console lines to stdout.
func NewRunCmd() *cobra.Command {
	var params runParams

	cmd := &cobra.Command{
		Use:   "run <script> [-- args...]",
		Short: "Run a registered script",
		Long: `Executes a registered script, streaming its output to stdout as
timestamped console lines. The run is recorded in the execution history and
raises desktop notifications per the notification settings.

Ctrl+C asks the script to stop; the run ends with a warning line and exit
code 1. A failing script propagates its own exit code.`,
		Example: `  # Run the built-in simulation entry
  autobear run Simulation

  # Pass arguments through to the script
  autobear run backup.py -- --target /srv --verbose

  # Bound the run and show debug detail
  autobear run cleanup.py --timeout 2m --dev`,
		Args: cobra.MinimumNArgs(1),
		// A failing script is a runtime outcome, not a usage mistake.
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeRun(cmd, args[0], args[1:], params)
		},
	}

	cmd.Flags().BoolVar(&params.dev, "dev", false, "show DEBUG output lines")
	cmd.Flags().BoolVar(&params.noNotify, "no-notify", false, "suppress desktop notifications for this run")
	cmd.Flags().DurationVar(&params.timeout, "timeout", 0, "abort the run after this duration (0 = no limit)")

	return cmd
}

func executeRun(cmd *cobra.Command, name string, extraArgs []string, params runParams) error {
	cfg := config.New()

	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}
	script, err := reg.Get(name)
	if err != nil {
		return err
	}
	if err := script.CheckRequires(version.GetVersion()); err != nil {
		return fmt.Errorf("script %q cannot run: %w", script.Name, err)
	}

	if err := cfg.EnsureDataDirs(); err != nil {
		return err
	}

	bus := events.NewBusWithLogger(logger)
	store := historyStore(cfg)

	if !params.noNotify && cfg.Notifications.Enabled {
		mgr := notify.NewManager(notifySettings(cfg), logger)
		integration := notify.NewIntegration(bus, mgr, logger)
		defer integration.Close()
	}

	opts := runner.DefaultOptions()
	opts.ScriptsDir = cfg.Scripts.Dir
	if cfg.Scripts.Interpreter != "" {
		opts.Interpreter = cfg.Scripts.Interpreter
	}
	opts.DeveloperMode = params.dev || cfg.Scripts.DeveloperMode
	opts.Timeout = params.timeout
	r := runner.New(bus, opts)

	pending := store.Begin(script.Name, script.Path)
	logger.Info().
		Str("script", script.Name).
		Str("run_id", pending.RunID()).
		Msg("starting script")

	run, err := r.Start(cmd.Context(), script, extraArgs...)
	if err != nil {
		return fmt.Errorf("starting script: %w", err)
	}

	// The first interrupt asks the script to stop; the runner then winds the
	// run down with a warning line.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			run.Stop()
		case <-run.Done():
		}
	}()

	out := cmd.OutOrStdout()
	for line := range run.Output() {
		fmt.Fprintln(out, logline.Format(line.Time, line.Level, line.Message))
	}

	result := run.Wait()
	if _, histErr := pending.FinishFromResult(result); histErr != nil {
		logger.Warn().Err(histErr).Msg("could not record run history")
	}

	logger.Info().
		Str("script", script.Name).
		Str("status", string(result.Status)).
		Int("exit_code", result.ExitCode).
		Dur("duration", result.Duration()).
		Msg("script finished")

	switch result.Status {
	case runner.StatusSuccess:
		return nil
	case runner.StatusStopped:
		return &ExitCodeError{ExitCode: 1, Reason: "script execution interrupted by user"}
	default:
		code := result.ExitCode
		if code == 0 {
			code = 1
		}
		reason := fmt.Sprintf("script %q failed", script.Name)
		if result.Err != nil {
			reason = result.Err.Error()
		}
		return &ExitCodeError{ExitCode: code, Reason: reason}
	}
}
