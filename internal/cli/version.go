package cli

import (
	"github.com/spf13/cobra"

	"github.com/autobear/autobear/internal/config"
	"github.com/autobear/autobear/pkg/version"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetInfo()

			switch outputFlag(cmd, config.New()) {
			case outputFormatJSON:
				return renderJSON(cmd.OutOrStdout(), info)
			case outputFormatNDJSON:
				return renderNDJSON(cmd.OutOrStdout(), []version.Info{info})
			default:
				cmd.Println(info.String())
				return nil
			}
		},
	}
}
