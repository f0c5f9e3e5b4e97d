package cli

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/autobear/autobear/internal/config"
	"github.com/autobear/autobear/internal/history"
)

// newHistoryCmd creates the history command group for inspecting and
// pruning recorded script runs.
func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "history", Short: "Script execution history"}
	cmd.AddCommand(newHistoryListCmd(), newHistoryStatsCmd(), newHistoryClearCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	var scriptName string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Example: `  # Most recent runs across all scripts
  autobear history list

  # One script's last five runs, as NDJSON
  autobear history list --script backup.py --limit 5 --output ndjson`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.New()
			store := historyStore(cfg)

			records, err := collectRecords(store, scriptName)
			if err != nil {
				return err
			}
			if limit > 0 && len(records) > limit {
				records = records[:limit]
			}
			if len(records) == 0 {
				cmd.Println("No runs recorded.")
				return nil
			}

			out := cmd.OutOrStdout()
			switch outputFlag(cmd, cfg) {
			case outputFormatJSON:
				return renderJSON(out, records)
			case outputFormatNDJSON:
				return renderNDJSON(out, records)
			default:
				return renderHistoryTable(out, records)
			}
		},
	}

	cmd.Flags().StringVar(&scriptName, "script", "", "only runs of this script")
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many runs (0 = all)")
	return cmd
}

// collectRecords gathers runs for one script or all of them, newest first.
func collectRecords(store *history.Store, scriptName string) ([]history.Record, error) {
	var records []history.Record
	if scriptName != "" {
		runs, err := store.ForScript(scriptName)
		if err != nil {
			return nil, err
		}
		records = runs
	} else {
		all, err := store.All()
		if err != nil {
			return nil, err
		}
		for _, runs := range all {
			records = append(records, runs...)
		}
	}

	// Stored order is oldest first per script; the listing wants the most
	// recent runs on top regardless of script.
	sort.Slice(records, func(i, j int) bool {
		return records[i].StartTime.After(records[j].StartTime)
	})
	return records, nil
}

func renderHistoryTable(out io.Writer, records []history.Record) error {
	const tabPadding = 2
	w := tabwriter.NewWriter(out, 0, 0, tabPadding, ' ', 0)

	fmt.Fprintln(w, "Started\tScript\tStatus\tDuration\tExit")
	fmt.Fprintln(w, "-------\t------\t------\t--------\t----")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
			rec.StartTime.Format("2006-01-02 15:04:05"),
			rec.ScriptName,
			rec.Status,
			history.FormatDuration(rec.DurationSecs),
			rec.ExitCode)
	}
	return w.Flush()
}

// scriptStats pairs a script name with its aggregate statistics for the
// stats listing.
type scriptStats struct {
	Script string `json:"script"`
	history.Stats
}

func newHistoryStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [script]",
		Short: "Aggregate run statistics, per script",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New()
			store := historyStore(cfg)

			names := args
			if len(names) == 0 {
				all, err := store.ScriptNames()
				if err != nil {
					return err
				}
				names = all
			}

			rows := make([]scriptStats, 0, len(names))
			for _, name := range names {
				stats, err := store.ScriptStats(name)
				if err != nil {
					return err
				}
				rows = append(rows, scriptStats{Script: name, Stats: stats})
			}
			if len(rows) == 0 {
				cmd.Println("No runs recorded.")
				return nil
			}

			out := cmd.OutOrStdout()
			switch outputFlag(cmd, cfg) {
			case outputFormatJSON:
				return renderJSON(out, rows)
			case outputFormatNDJSON:
				return renderNDJSON(out, rows)
			default:
				return renderStatsTable(out, rows)
			}
		},
	}
	return cmd
}

func renderStatsTable(out io.Writer, rows []scriptStats) error {
	const tabPadding = 2
	w := tabwriter.NewWriter(out, 0, 0, tabPadding, ' ', 0)

	fmt.Fprintln(w, "Script\tRuns\tSuccess\tAvg Duration\tLast Success")
	fmt.Fprintln(w, "------\t----\t-------\t------------\t------------")
	for _, row := range rows {
		lastSuccess := "never"
		if row.LastSuccess != nil {
			lastSuccess = row.LastSuccess.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "%s\t%d\t%.1f%%\t%s\t%s\n",
			row.Script,
			row.TotalRuns,
			row.SuccessRate,
			history.FormatDuration(row.AvgDurationSecs),
			lastSuccess)
	}
	return w.Flush()
}

func newHistoryClearCmd() *cobra.Command {
	var all bool
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear [script]",
		Short: "Delete recorded runs",
		Long:  "Deletes one script's recorded runs, or every script's with --all.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return fmt.Errorf("specify a script name or --all")
			}
			if len(args) > 0 && all {
				return fmt.Errorf("--all cannot be combined with a script name")
			}

			cfg := config.New()
			store := historyStore(cfg)

			question := "Delete ALL recorded runs?"
			if len(args) > 0 {
				question = fmt.Sprintf("Delete recorded runs for %q?", args[0])
			}
			if !yes {
				result := Confirm(cmd.OutOrStdout(), cmd.InOrStdin(), question)
				if result.Cancelled {
					return fmt.Errorf("reading confirmation: input closed")
				}
				if !result.Accepted {
					cmd.Println("Aborted.")
					return nil
				}
			}

			if all {
				if err := store.ClearAll(); err != nil {
					return err
				}
				logger.Info().Msg("history cleared")
				cmd.Println("History cleared.")
				return nil
			}

			if err := store.Clear(args[0]); err != nil {
				return err
			}
			logger.Info().Str("script", args[0]).Msg("history cleared")
			cmd.Printf("History cleared for %q.\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "clear every script's history")
	cmd.Flags().BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	return cmd
}
