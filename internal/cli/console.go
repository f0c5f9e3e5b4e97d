package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/autobear/autobear/internal/config"
	"github.com/autobear/autobear/internal/events"
	"github.com/autobear/autobear/internal/history"
	"github.com/autobear/autobear/internal/notify"
	"github.com/autobear/autobear/internal/registry"
	"github.com/autobear/autobear/internal/runner"
	"github.com/autobear/autobear/internal/tui"
	"github.com/autobear/autobear/pkg/version"
)

// consoleParams collects the console command's flag values.
type consoleParams struct {
	dev      bool
	noNotify bool
	noStart  bool
	theme    string
	buffer   int
}

// NewConsoleCmd creates the console command, the interactive TUI around the
// runner. Without a script argument it opens the picker first.
func NewConsoleCmd() *cobra.Command {
	var params consoleParams

	cmd := &cobra.Command{
		Use:   "console [script]",
		Short: "Interactive script console",
		Long: `Opens the interactive console: a scrolling view of a script's output with
start/stop, clear, export, and developer-mode toggles. Without a script
argument a picker lists the registry with last-run information.

When stdout is not a terminal the console degrades to plain streaming, like
the run command.`,
		Example: `  # Pick a script interactively
  autobear console

  # Open the console on one script and start it
  autobear console backup.py

  # Open idle, with debug lines visible
  autobear console backup.py --no-start --dev`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return executeConsole(cmd, name, params)
		},
	}

	cmd.Flags().BoolVar(&params.dev, "dev", false, "show DEBUG output lines from the start")
	cmd.Flags().BoolVar(&params.noNotify, "no-notify", false, "suppress desktop notifications")
	cmd.Flags().BoolVar(&params.noStart, "no-start", false, "open idle instead of starting the script")
	cmd.Flags().StringVar(&params.theme, "theme", "", "color theme: dark or light (default from config)")
	cmd.Flags().IntVar(&params.buffer, "buffer", 0, "output buffer capacity in lines (default from config)")

	return cmd
}

func executeConsole(cmd *cobra.Command, name string, params consoleParams) error {
	cfg := config.New()

	reg, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	interactive := false
	if f, ok := cmd.OutOrStdout().(*os.File); ok {
		interactive = isTerminal(f)
	}
	theme := params.theme
	if theme == "" {
		theme = cfg.Console.Theme
	}
	bufferCap := params.buffer
	if bufferCap <= 0 {
		bufferCap = cfg.Console.Buffer
	}

	// Resolve the script, via the picker when none is named.
	var script registry.Script
	autoStart := !params.noStart
	if name != "" {
		script, err = reg.Get(name)
		if err != nil {
			return err
		}
	} else {
		if !interactive {
			return fmt.Errorf("picking a script requires a terminal; name one: autobear console <script>")
		}
		picked, ok, pickErr := pickScript(reg.List(), historyStore(cfg), theme)
		if pickErr != nil {
			return pickErr
		}
		if !ok {
			return nil
		}
		script = picked
		// Picked scripts open idle, mirroring the picker-then-start flow.
		autoStart = false
	}
	if err := script.CheckRequires(version.GetVersion()); err != nil {
		return fmt.Errorf("script %q cannot run: %w", script.Name, err)
	}

	if !interactive {
		return executeRun(cmd, script.Name, nil, runParams{dev: params.dev, noNotify: params.noNotify})
	}

	if err := cfg.EnsureDataDirs(); err != nil {
		return err
	}

	bus := events.NewBusWithLogger(logger)
	store := historyStore(cfg)
	recorder := history.NewRecorder(bus, store, registryPathResolver(reg), logger)
	defer recorder.Close()

	if !params.noNotify && cfg.Notifications.Enabled {
		mgr := notify.NewManager(notifySettings(cfg), logger)
		integration := notify.NewIntegration(bus, mgr, logger)
		defer integration.Close()
	}

	// The console runner always emits DEBUG so the in-view developer toggle
	// has lines to reveal; the model filters what is shown.
	opts := runner.DefaultOptions()
	opts.ScriptsDir = cfg.Scripts.Dir
	if cfg.Scripts.Interpreter != "" {
		opts.Interpreter = cfg.Scripts.Interpreter
	}
	opts.DeveloperMode = true
	r := runner.New(bus, opts)

	model := tui.NewConsoleModel(tui.ConsoleOptions{
		Script:    script,
		Runner:    r,
		Bus:       bus,
		Theme:     theme,
		BufferCap: bufferCap,
		ExportDir: cfg.ExportDir(),
		DevMode:   params.dev || cfg.Scripts.DeveloperMode,
		AutoStart: autoStart,
	})

	logger.Info().Str("script", script.Name).Msg("opening console")
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running console: %w", err)
	}
	return nil
}

// pickScript runs the picker program and returns the chosen script, if any.
func pickScript(scripts []registry.Script, store *history.Store, theme string) (registry.Script, bool, error) {
	if len(scripts) == 0 {
		return registry.Script{}, false, fmt.Errorf("no scripts registered; add one with: autobear scripts add")
	}

	model := tui.NewPickerModel(scripts, store, theme)
	p := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return registry.Script{}, false, fmt.Errorf("running script picker: %w", err)
	}

	picker, ok := finalModel.(*tui.PickerModel)
	if !ok {
		return registry.Script{}, false, nil
	}
	script, chosen := picker.Selected()
	return script, chosen, nil
}

// registryPathResolver adapts registry lookups for the history recorder.
func registryPathResolver(reg *registry.Registry) history.PathResolver {
	return func(name string) string {
		script, err := reg.Get(name)
		if err != nil {
			return ""
		}
		return script.Path
	}
}
