// Package notify raises desktop notifications around script runs. It picks a
// platform backend at startup (notify-send on Linux, osascript on macOS) and
// degrades to structured log output when neither is available.
package notify

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// AppName is the product name shown by notification backends.
const AppName = "AutoBear Script Runner"

const (
	// DefaultDurationSeconds is how long a notification stays visible.
	DefaultDurationSeconds = 5

	minDurationSeconds = 1
	maxDurationSeconds = 30

	// maxErrorLength truncates error text so it fits a notification body.
	maxErrorLength = 100
)

// Kind classifies a notification and drives its urgency.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
	KindStart   Kind = "start"
)

// Kinds lists every notification kind in display order.
func Kinds() []Kind {
	return []Kind{KindSuccess, KindError, KindWarning, KindInfo, KindStart}
}

// Describe returns a short explanation of when a kind fires.
func (k Kind) Describe() string {
	switch k {
	case KindSuccess:
		return "Script completed successfully"
	case KindError:
		return "Script failed or encountered an error"
	case KindWarning:
		return "Script stopped or warning occurred"
	case KindInfo:
		return "General information notification"
	case KindStart:
		return "Script execution started"
	default:
		return "Unknown notification type"
	}
}

// Urgency maps a kind to the freedesktop urgency level used by notify-send.
func (k Kind) Urgency() string {
	switch k {
	case KindError:
		return "critical"
	case KindWarning:
		return "normal"
	default:
		return "low"
	}
}

// Settings controls whether and how notifications are shown.
type Settings struct {
	Enabled         bool
	Silent          bool
	DurationSeconds int
	OnStart         bool
	OnSuccess       bool
	OnError         bool
	OnStopped       bool
}

// DefaultSettings enables every notification, silently, for five seconds.
func DefaultSettings() Settings {
	return Settings{
		Enabled:         true,
		Silent:          true,
		DurationSeconds: DefaultDurationSeconds,
		OnStart:         true,
		OnSuccess:       true,
		OnError:         true,
		OnStopped:       true,
	}
}

// clampDuration keeps the display duration inside the range backends accept.
func clampDuration(seconds int) int {
	if seconds < minDurationSeconds {
		return minDurationSeconds
	}
	if seconds > maxDurationSeconds {
		return maxDurationSeconds
	}
	return seconds
}

// Notification is one message handed to a backend.
type Notification struct {
	Title           string
	Message         string
	Kind            Kind
	AppName         string
	DurationSeconds int
	Silent          bool
}

// Manager sends notifications through the detected backend.
type Manager struct {
	settings Settings
	backend  Backend
	log      zerolog.Logger
}

// NewManager creates a manager using the best backend for this platform.
func NewManager(settings Settings, logger zerolog.Logger) *Manager {
	log := logger.With().Str("component", "notify").Logger()
	return NewManagerWithBackend(settings, DetectBackend(log), logger)
}

// NewManagerWithBackend creates a manager with an explicit backend.
func NewManagerWithBackend(settings Settings, backend Backend, logger zerolog.Logger) *Manager {
	log := logger.With().Str("component", "notify").Logger()
	settings.DurationSeconds = clampDuration(settings.DurationSeconds)
	log.Debug().
		Str("backend", backend.Name()).
		Bool("silent", settings.Silent).
		Msg("notification manager initialized")
	return &Manager{settings: settings, backend: backend, log: log}
}

// Backend returns the name of the active backend.
func (m *Manager) Backend() string {
	return m.backend.Name()
}

// Enabled reports whether notifications are globally on.
func (m *Manager) Enabled() bool {
	return m.settings.Enabled
}

// Settings returns the manager's effective settings.
func (m *Manager) Settings() Settings {
	return m.settings
}

// Send shows one notification. It is a no-op when notifications are
// disabled.
func (m *Manager) Send(kind Kind, title, message string) error {
	if !m.settings.Enabled {
		return nil
	}

	n := Notification{
		Title:           title,
		Message:         message,
		Kind:            kind,
		AppName:         AppName,
		DurationSeconds: m.settings.DurationSeconds,
		Silent:          m.settings.Silent,
	}
	if err := m.backend.Send(n); err != nil {
		m.log.Warn().Err(err).
			Str("backend", m.backend.Name()).
			Str("kind", string(kind)).
			Msg("notification delivery failed")
		return fmt.Errorf("sending notification: %w", err)
	}
	return nil
}

// Test sends the canned demonstration notification for a kind.
func (m *Manager) Test(kind Kind) error {
	title, message := testMessage(kind)
	return m.Send(kind, title, message)
}

func testMessage(kind Kind) (string, string) {
	switch kind {
	case KindSuccess:
		return "Script Completed", "Your script executed successfully!"
	case KindError:
		return "Script Failed", "Your script encountered an error."
	case KindWarning:
		return "Script Warning", "Your script completed with warnings."
	case KindStart:
		return "Script Started", "Your script has begun execution."
	default:
		return "Test Notification", "This is a test notification."
	}
}

var scriptExtensions = []string{".py", ".pyw", ".bat", ".sh"}

var titleCaser = cases.Title(language.English)

// FormatScriptName cleans a script name for notification display: known
// extensions are stripped, underscores become spaces, and words are title
// cased. An empty name becomes "Script".
func FormatScriptName(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range scriptExtensions {
		if strings.HasSuffix(lower, ext) {
			name = name[:len(name)-len(ext)]
			break
		}
	}
	name = strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
	if name == "" {
		return "Script"
	}
	return titleCaser.String(name)
}
