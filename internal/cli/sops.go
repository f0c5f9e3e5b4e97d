package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/autobear/autobear/internal/config"
	"github.com/autobear/autobear/internal/sops"
)

// newSOPsCmd creates the sops command group for the standard operating
// procedure catalog.
func newSOPsCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "sops", Short: "Standard operating procedures"}
	cmd.AddCommand(
		newSOPsListCmd(), newSOPsShowCmd(),
		newSOPsAddCmd(), newSOPsRemoveCmd(), newSOPsImportCmd(),
	)
	return cmd
}

func newSOPsListCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		Example: `  # Every procedure
  autobear sops list

  # One category, as JSON
  autobear sops list --category "Data Processing" --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.New()
			catalog := sopCatalog(cfg)

			var entries []sops.SOP
			var err error
			if category != "" {
				entries, err = catalog.ByCategory(category)
			} else {
				entries, err = catalog.All()
			}
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				cmd.Println("No procedures in the catalog.")
				return nil
			}

			out := cmd.OutOrStdout()
			switch outputFlag(cmd, cfg) {
			case outputFormatJSON:
				return renderJSON(out, entries)
			case outputFormatNDJSON:
				return renderNDJSON(out, entries)
			default:
				return renderSOPsTable(out, entries)
			}
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only entries in this category")
	return cmd
}

func renderSOPsTable(out io.Writer, entries []sops.SOP) error {
	const tabPadding = 2
	w := tabwriter.NewWriter(out, 0, 0, tabPadding, ' ', 0)

	fmt.Fprintln(w, "ID\tTitle\tCategory\tDifficulty\tDuration")
	fmt.Fprintln(w, "--\t-----\t--------\t----------\t--------")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			entry.ID, entry.Title, entry.Category, entry.Difficulty, entry.Duration)
	}
	return w.Flush()
}

func newSOPsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New()
			catalog := sopCatalog(cfg)

			entry, err := catalog.Get(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch outputFlag(cmd, cfg) {
			case outputFormatJSON:
				return renderJSON(out, entry)
			case outputFormatNDJSON:
				return renderNDJSON(out, []sops.SOP{entry})
			default:
				renderSOPDetail(cmd, entry)
				return nil
			}
		},
	}
	return cmd
}

func renderSOPDetail(cmd *cobra.Command, entry sops.SOP) {
	cmd.Printf("%s %s\n", entry.Icon, entry.Title)
	cmd.Printf("ID:          %s\n", entry.ID)
	cmd.Printf("Category:    %s\n", entry.Category)
	cmd.Printf("Difficulty:  %s\n", entry.Difficulty)
	cmd.Printf("Duration:    %s\n", entry.Duration)
	cmd.Printf("Link:        %s\n", entry.Link)
	if len(entry.Tags) > 0 {
		cmd.Printf("Tags:        %s\n", strings.Join(entry.Tags, ", "))
	}
	cmd.Printf("\n%s\n", entry.Description)
}

func newSOPsAddCmd() *cobra.Command {
	var entry sops.SOP
	var tags []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a catalog entry",
		Example: `  autobear sops add --id db_restore --title "Database Restore" \
    --description "Restore the reporting database from the nightly snapshot" \
    --category Maintenance --link https://wiki.example.com/sop/db-restore \
    --difficulty Advanced --duration "45 min" --tags db,restore`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.New()
			catalog := sopCatalog(cfg)

			if entry.ID == "" && entry.Title != "" {
				entry.ID = sops.NormalizeID(entry.Title)
			}
			entry.Tags = tags
			if err := catalog.Add(entry); err != nil {
				return err
			}

			logger.Info().Str("sop", entry.ID).Msg("procedure added")
			cmd.Printf("Added %q to the catalog\n", entry.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&entry.ID, "id", "", "entry ID (derived from the title when omitted)")
	cmd.Flags().StringVar(&entry.Title, "title", "", "display title")
	cmd.Flags().StringVar(&entry.Description, "description", "", "what the procedure covers")
	cmd.Flags().StringVar(&entry.Category, "category", "", "category name")
	cmd.Flags().StringVar(&entry.Difficulty, "difficulty", "", "difficulty label (default "+sops.DefaultDifficulty+")")
	cmd.Flags().StringVar(&entry.Duration, "duration", "", "estimated duration (default "+sops.DefaultDuration+")")
	cmd.Flags().StringVar(&entry.Link, "link", "", "URL of the full procedure document")
	cmd.Flags().StringVar(&entry.Icon, "icon", "", "icon shown in listings")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "comma-separated tags")

	return cmd
}

func newSOPsRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New()
			catalog := sopCatalog(cfg)

			if err := catalog.Remove(args[0]); err != nil {
				return err
			}

			logger.Info().Str("sop", args[0]).Msg("procedure removed")
			cmd.Printf("Removed %q from the catalog\n", args[0])
			return nil
		},
	}
	return cmd
}

func newSOPsImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <csv-file>",
		Short: "Import catalog entries from a CSV file",
		Long: `Imports procedures from a CSV file with a header row. Recognized columns:
id, title, description, category, difficulty, duration, link, icon, tags
(tags are comma-separated inside a quoted cell). Rows with an existing ID or
missing required fields are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.New()
			catalog := sopCatalog(cfg)

			imported, err := catalog.ImportCSV(args[0])
			if err != nil {
				return err
			}

			logger.Info().Int("imported", imported).Str("file", args[0]).Msg("procedures imported")
			cmd.Printf("Imported %d procedure(s) from %s\n", imported, args[0])
			return nil
		},
	}
	return cmd
}
