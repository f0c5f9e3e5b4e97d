package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/autobear/autobear/internal/config"
	"github.com/autobear/autobear/internal/history"
	"github.com/autobear/autobear/internal/registry"
)

const builtinPathLabel = "(built-in)"

// newScriptsCmd creates the scripts command group for registry management.
func newScriptsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "scripts", Short: "Script registry management"}
	cmd.AddCommand(
		newScriptsListCmd(), newScriptsShowCmd(),
		newScriptsAddCmd(), newScriptsRemoveCmd(),
		newScriptsSetCmd(), newScriptsUnsetCmd(),
	)
	return cmd
}

// scriptListEntry is one row of the scripts listing, enriched with last-run
// information from the execution history.
type scriptListEntry struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Path     string `json:"path"`
	Requires string `json:"requires,omitempty"`
	LastRun  string `json:"last_run,omitempty"`
	Status   string `json:"status,omitempty"`
}

func newScriptsListCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered scripts",
		Long:  "Lists registered scripts with their categories and most recent run.",
		Example: `  # List every registered script
  autobear scripts list

  # Only one category, as JSON
  autobear scripts list --category Maintenance --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.New()
			reg, err := loadRegistry(cfg)
			if err != nil {
				return err
			}

			scripts := reg.List()
			if category != "" {
				scripts = reg.ByCategory(category)
			}
			if len(scripts) == 0 {
				cmd.Println("No scripts registered.")
				return nil
			}

			store := historyStore(cfg)
			entries := make([]scriptListEntry, len(scripts))
			for i, script := range scripts {
				entries[i] = scriptListEntry{
					Name:     script.Name,
					Category: script.Category,
					Path:     script.Path,
					Requires: script.Requires,
				}
				if entries[i].Path == "" {
					entries[i].Path = builtinPathLabel
				}
				if display, status, lrErr := store.LastRunDisplay(script.Name); lrErr == nil {
					entries[i].LastRun = display
					entries[i].Status = string(status)
				} else {
					entries[i].LastRun = "Never"
				}
			}

			out := cmd.OutOrStdout()
			switch outputFlag(cmd, cfg) {
			case outputFormatJSON:
				return renderJSON(out, entries)
			case outputFormatNDJSON:
				return renderNDJSON(out, entries)
			default:
				return renderScriptsTable(out, entries)
			}
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only scripts in this category")
	return cmd
}

func renderScriptsTable(out io.Writer, entries []scriptListEntry) error {
	const tabPadding = 2
	w := tabwriter.NewWriter(out, 0, 0, tabPadding, ' ', 0)

	fmt.Fprintln(w, "Name\tCategory\tPath\tLast Run\tStatus")
	fmt.Fprintln(w, "----\t--------\t----\t--------\t------")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Name, e.Category, e.Path, e.LastRun, e.Status)
	}
	return w.Flush()
}

// scriptDetail is the show command's JSON shape.
type scriptDetail struct {
	registry.Script

	Settings map[string]any  `json:"settings,omitempty"`
	LastRun  *history.Record `json:"last_run,omitempty"`
	Stats    *history.Stats  `json:"stats,omitempty"`
}

func newScriptsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <script>",
		Short: "Show one script's registration and run statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New()
			reg, err := loadRegistry(cfg)
			if err != nil {
				return err
			}
			script, err := reg.Get(args[0])
			if err != nil {
				return err
			}

			store := historyStore(cfg)
			detail := scriptDetail{Script: script}
			if settings, sErr := settingsStore(cfg).Get(script.Name); sErr == nil {
				detail.Settings = settings
			}
			if last, lrErr := store.LastRun(script.Name); lrErr == nil {
				detail.LastRun = &last
			}
			if stats, stErr := store.ScriptStats(script.Name); stErr == nil && stats.TotalRuns > 0 {
				detail.Stats = &stats
			}

			out := cmd.OutOrStdout()
			switch outputFlag(cmd, cfg) {
			case outputFormatJSON:
				return renderJSON(out, detail)
			case outputFormatNDJSON:
				return renderNDJSON(out, []scriptDetail{detail})
			default:
				renderScriptDetail(cmd, detail)
				return nil
			}
		},
	}
	return cmd
}

func renderScriptDetail(cmd *cobra.Command, detail scriptDetail) {
	path := detail.Path
	if path == "" {
		path = builtinPathLabel
	}

	cmd.Printf("Name:        %s\n", detail.Name)
	cmd.Printf("Path:        %s\n", path)
	if detail.Category != "" {
		cmd.Printf("Category:    %s\n", detail.Category)
	}
	if detail.Description != "" {
		cmd.Printf("Description: %s\n", detail.Description)
	}
	if detail.Requires != "" {
		cmd.Printf("Requires:    %s\n", detail.Requires)
	}
	if len(detail.Parameters) > 0 {
		cmd.Println("Parameters:")
		for _, k := range sortedKeys(detail.Parameters) {
			cmd.Printf("  %s: %v\n", k, detail.Parameters[k])
		}
	}
	if len(detail.Settings) > 0 {
		cmd.Println("Settings:")
		for _, k := range sortedKeys(detail.Settings) {
			cmd.Printf("  %s: %v\n", k, detail.Settings[k])
		}
	}

	if detail.Stats == nil {
		cmd.Println("Runs:        none recorded")
		return
	}
	cmd.Printf("Runs:        %d (%.1f%% success, avg %s)\n",
		detail.Stats.TotalRuns,
		detail.Stats.SuccessRate,
		history.FormatDuration(detail.Stats.AvgDurationSecs))
	if detail.LastRun != nil {
		cmd.Printf("Last run:    %s, exit %d\n", detail.LastRun.Status, detail.LastRun.ExitCode)
	}
}

func newScriptsAddCmd() *cobra.Command {
	var script registry.Script

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a script",
		Example: `  # Register a script relative to the scripts directory
  autobear scripts add backup.py --path backup.py --category Maintenance

  # Pin a minimum app version
  autobear scripts add reporting.py --path reports/run.py --requires ">=1.2.0"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New()
			reg, err := loadRegistry(cfg)
			if err != nil {
				return err
			}

			script.Name = args[0]
			if strings.TrimSpace(script.Path) == "" {
				return fmt.Errorf("--path is required: only the built-in simulation runs without one")
			}
			if err := reg.Add(script); err != nil {
				return err
			}
			if err := reg.Save(cfg.Scripts.Registry); err != nil {
				return err
			}

			logger.Info().Str("script", script.Name).Msg("script registered")
			cmd.Printf("Registered %q (%s)\n", script.Name, script.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&script.Path, "path", "", "script path, absolute or relative to the scripts directory")
	cmd.Flags().StringVar(&script.Description, "description", "", "short description")
	cmd.Flags().StringVar(&script.Category, "category", "", "category name")
	cmd.Flags().StringVar(&script.Requires, "requires", "", "minimum app version constraint, e.g. \">=1.2.0\"")

	return cmd
}

func newScriptsRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <script>",
		Short: "Remove a script from the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New()
			reg, err := loadRegistry(cfg)
			if err != nil {
				return err
			}

			if err := reg.Remove(args[0]); err != nil {
				return err
			}
			if err := reg.Save(cfg.Scripts.Registry); err != nil {
				return err
			}

			logger.Info().Str("script", args[0]).Msg("script removed")
			cmd.Printf("Removed %q\n", args[0])
			return nil
		},
	}
	return cmd
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseSettingValue interprets a raw CLI argument: anything that parses as
// JSON (numbers, booleans, null, arrays, objects) keeps that type, everything
// else is stored as a plain string.
func parseSettingValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

func newScriptsSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <script> <key> <value>",
		Short: "Store a per-script setting",
		Long: `Stores one key in the script's settings file under script_settings/. Scripts
read their own settings file at run time. The value is parsed as JSON when
possible (3, true, ["a","b"]) and kept as a string otherwise.`,
		Example: `  autobear scripts set backup.py target_dir /srv/backups
  autobear scripts set backup.py retries 3
  autobear scripts set backup.py compress true`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New()
			reg, err := loadRegistry(cfg)
			if err != nil {
				return err
			}
			script, err := reg.Get(args[0])
			if err != nil {
				return err
			}

			value := parseSettingValue(args[2])
			if err := settingsStore(cfg).Set(script.Name, args[1], value); err != nil {
				return err
			}

			logger.Info().Str("script", script.Name).Str("key", args[1]).Msg("setting stored")
			cmd.Printf("Set %s = %v for %q\n", args[1], value, script.Name)
			return nil
		},
	}
	return cmd
}

func newScriptsUnsetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unset <script> [key]",
		Short: "Remove one per-script setting, or all of them",
		Long: `Removes one stored setting, or the script's whole settings file when no key
is given. Works for scripts no longer in the registry, so stale settings can
always be cleaned up.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New()
			store := settingsStore(cfg)
			name := args[0]

			if len(args) == 1 {
				if err := store.Delete(name); err != nil {
					return err
				}
				logger.Info().Str("script", name).Msg("settings cleared")
				cmd.Printf("Cleared settings for %q\n", name)
				return nil
			}

			key := args[1]
			settings, err := store.Get(name)
			if errors.Is(err, registry.ErrSettingsNotFound) {
				return fmt.Errorf("no settings recorded for %q", name)
			}
			if err != nil {
				return err
			}
			if _, ok := settings[key]; !ok {
				return fmt.Errorf("setting %q not found for %q", key, name)
			}
			delete(settings, key)

			// Dropping the last key removes the file so Has() turns false.
			if len(settings) == 0 {
				err = store.Delete(name)
			} else {
				err = store.Write(name, settings)
			}
			if err != nil {
				return err
			}

			logger.Info().Str("script", name).Str("key", key).Msg("setting removed")
			cmd.Printf("Unset %s for %q\n", key, name)
			return nil
		},
	}
	return cmd
}
