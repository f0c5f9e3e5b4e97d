package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/autobear/autobear/internal/config"
	"github.com/autobear/autobear/internal/notify"
)

// newNotifyCmd creates the notify command group for desktop notifications.
func newNotifyCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "notify", Short: "Desktop notifications"}
	cmd.AddCommand(newNotifyTestCmd(), newNotifySettingsCmd())
	return cmd
}

func newNotifyTestCmd() *cobra.Command {
	var kindName string

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Send a test notification",
		Long:  "Sends a canned notification through the detected desktop backend.",
		Example: `  # Default info notification
  autobear notify test

  # Exercise the error styling
  autobear notify test --kind error`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind := notify.Kind(kindName)
			if !validKind(kind) {
				return fmt.Errorf("invalid notification kind %q: must be one of %s", kindName, kindList())
			}

			cfg := config.New()
			mgr := notify.NewManager(notifySettings(cfg), logger)
			if !mgr.Enabled() {
				cmd.Println("Notifications are disabled; enable them in the config file first.")
				return nil
			}

			if err := mgr.Test(kind); err != nil {
				return fmt.Errorf("sending test notification: %w", err)
			}
			cmd.Printf("Sent a %s notification via %s\n", kind, mgr.Backend())
			return nil
		},
	}

	cmd.Flags().StringVar(&kindName, "kind", string(notify.KindInfo), "notification kind: "+kindList())
	return cmd
}

func validKind(kind notify.Kind) bool {
	for _, k := range notify.Kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

func kindList() string {
	kinds := notify.Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func newNotifySettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show the effective notification settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.New()
			mgr := notify.NewManager(notifySettings(cfg), logger)

			out := cmd.OutOrStdout()
			switch outputFlag(cmd, cfg) {
			case outputFormatJSON:
				return renderJSON(out, notifySettingsView(mgr))
			case outputFormatNDJSON:
				return renderNDJSON(out, []notifySettingsJSON{notifySettingsView(mgr)})
			default:
				return renderNotifySettings(out, mgr)
			}
		},
	}
	return cmd
}

// notifySettingsJSON is the settings command's JSON shape.
type notifySettingsJSON struct {
	Enabled         bool   `json:"enabled"`
	Backend         string `json:"backend"`
	Silent          bool   `json:"silent"`
	DurationSeconds int    `json:"duration_seconds"`
	OnStart         bool   `json:"on_start"`
	OnSuccess       bool   `json:"on_success"`
	OnError         bool   `json:"on_error"`
	OnStopped       bool   `json:"on_stopped"`
}

func notifySettingsView(mgr *notify.Manager) notifySettingsJSON {
	s := mgr.Settings()
	return notifySettingsJSON{
		Enabled:         s.Enabled,
		Backend:         mgr.Backend(),
		Silent:          s.Silent,
		DurationSeconds: s.DurationSeconds,
		OnStart:         s.OnStart,
		OnSuccess:       s.OnSuccess,
		OnError:         s.OnError,
		OnStopped:       s.OnStopped,
	}
}

func renderNotifySettings(out io.Writer, mgr *notify.Manager) error {
	const tabPadding = 2
	w := tabwriter.NewWriter(out, 0, 0, tabPadding, ' ', 0)

	s := mgr.Settings()
	fmt.Fprintln(w, "Setting\tValue")
	fmt.Fprintln(w, "-------\t-----")
	fmt.Fprintf(w, "Enabled\t%t\n", s.Enabled)
	fmt.Fprintf(w, "Backend\t%s\n", mgr.Backend())
	fmt.Fprintf(w, "Silent\t%t\n", s.Silent)
	fmt.Fprintf(w, "Duration\t%ds\n", s.DurationSeconds)
	fmt.Fprintf(w, "On start\t%t\n", s.OnStart)
	fmt.Fprintf(w, "On success\t%t\n", s.OnSuccess)
	fmt.Fprintf(w, "On error\t%t\n", s.OnError)
	fmt.Fprintf(w, "On stopped\t%t\n", s.OnStopped)
	return w.Flush()
}
