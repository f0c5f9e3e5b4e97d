package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/autobear/autobear/internal/config"
	"github.com/autobear/autobear/internal/migration"
)

// newConfigCmd creates the config command group.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management"}
	cmd.AddCommand(
		newConfigInitCmd(), newConfigPathCmd(),
		newConfigShowCmd(), newConfigMigrateCmd(),
	)
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the configuration file with default values",
		Long: `Creates ~/.autobear/config.yaml (or $AUTOBEAR_HOME/config.yaml) populated
with the default settings, plus the data directories the stores write into.`,
		Example: `  # Create the configuration
  autobear config init

  # Overwrite an existing configuration
  autobear config init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := config.ConfigPath()

			if !force {
				_, err := os.Stat(path)
				if err == nil {
					return errors.New("configuration file already exists, use --force to overwrite")
				}
				if !os.IsNotExist(err) {
					return fmt.Errorf("cannot access config path %s: %w", path, err)
				}
			}

			cfg := config.DefaultConfig()
			if err := cfg.Save(); err != nil {
				return fmt.Errorf("saving configuration: %w", err)
			}
			if err := cfg.EnsureDataDirs(); err != nil {
				return err
			}

			logger.Info().Str("path", path).Msg("configuration initialized")
			cmd.Printf("Configuration created at %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the active configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Println(config.ConfigPath())
			return nil
		},
	}
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long:  "Shows the configuration after applying defaults and the config file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.New()
			out := cmd.OutOrStdout()

			switch outputFlag(cmd, cfg) {
			case outputFormatJSON:
				return renderJSON(out, cfg)
			case outputFormatNDJSON:
				return renderNDJSON(out, []*config.Config{cfg})
			default:
				data, err := yaml.Marshal(cfg)
				if err != nil {
					return fmt.Errorf("marshalling config: %w", err)
				}
				_, err = out.Write(data)
				return err
			}
		},
	}
}

func newConfigMigrateCmd() *cobra.Command {
	var from string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Import state from an old installation",
		Long: `Copies execution history, the SOP catalog, and per-script settings from an
old installation layout (config/ and data/ directories beside the executable)
into the autobear home. Existing files are never overwritten and the originals
are left in place.`,
		Example: `  # See what would be imported
  autobear config migrate --from /opt/autobear --dry-run

  # Import it
  autobear config migrate --from /opt/autobear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root := from
			if root == "" {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("resolving working directory: %w", err)
				}
				root = wd
			}

			items := migration.DetectLegacy(root, config.HomeDir())
			if len(items) == 0 {
				cmd.Printf("No legacy state found under %s\n", root)
				return nil
			}

			result, err := migration.Migrate(items, dryRun)
			if err != nil {
				return err
			}

			verb := "Imported"
			if result.DryRun {
				verb = "Would import"
			}
			for _, item := range result.Items {
				cmd.Printf("%s %s: %d file(s), %d already present\n",
					verb, item.Name, item.Copied, item.Skipped)
			}
			logger.Info().
				Bool("dry_run", result.DryRun).
				Int("copied", result.TotalCopied()).
				Int("skipped", result.TotalSkipped()).
				Msg("legacy state migration finished")
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "old installation directory (default: current directory)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be copied without writing")
	return cmd
}
