package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strconv"

	"github.com/rs/zerolog"
)

// Backend delivers notifications through one platform mechanism.
type Backend interface {
	Name() string
	Send(n Notification) error
}

// DetectBackend returns the best backend available on this machine. macOS
// gets osascript, Linux and friends get notify-send, and anything else falls
// back to logging the notification.
func DetectBackend(logger zerolog.Logger) Backend {
	if runtime.GOOS == "darwin" {
		if path, err := exec.LookPath("osascript"); err == nil {
			return &osascriptBackend{path: path}
		}
		return &logBackend{log: logger}
	}
	if path, err := exec.LookPath("notify-send"); err == nil {
		return &notifySendBackend{path: path}
	}
	return &logBackend{log: logger}
}

// notifySendBackend shells out to the freedesktop notify-send tool.
type notifySendBackend struct {
	path string
}

func (b *notifySendBackend) Name() string { return "notify-send" }

func (b *notifySendBackend) Send(n Notification) error {
	//nolint:gosec // Arguments are data, not shell text.
	cmd := exec.Command(b.path, b.args(n)...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("notify-send: %w", err)
	}
	return nil
}

// args builds the notify-send argument list for a notification.
func (b *notifySendBackend) args(n Notification) []string {
	args := []string{
		"--app-name", n.AppName,
		"--urgency", n.Kind.Urgency(),
		"--expire-time", strconv.Itoa(n.DurationSeconds * 1000),
	}
	if n.Silent {
		// An empty sound name suppresses the notification sound.
		args = append(args, "--hint", "string:sound-name:")
	}
	return append(args, n.Title, n.Message)
}

// osascriptBackend uses the macOS notification center via AppleScript.
type osascriptBackend struct {
	path string
}

func (b *osascriptBackend) Name() string { return "osascript" }

func (b *osascriptBackend) Send(n Notification) error {
	//nolint:gosec // Arguments are data, not shell text.
	cmd := exec.Command(b.path, "-e", b.script(n))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("osascript: %w", err)
	}
	return nil
}

// script builds the AppleScript notification statement.
func (b *osascriptBackend) script(n Notification) string {
	s := fmt.Sprintf("display notification %q with title %q", n.Message, n.Title)
	if !n.Silent {
		s += ` sound name "Default"`
	}
	return s
}

// logBackend records notifications in the application log when no desktop
// mechanism exists, mirroring what a headless session can actually show.
type logBackend struct {
	log zerolog.Logger
}

func (b *logBackend) Name() string { return "log" }

func (b *logBackend) Send(n Notification) error {
	b.log.Warn().
		Str("kind", string(n.Kind)).
		Str("title", n.Title).
		Msg(n.Message)
	return nil
}
