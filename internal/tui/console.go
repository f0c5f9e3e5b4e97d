package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/autobear/autobear/internal/events"
	"github.com/autobear/autobear/internal/history"
	"github.com/autobear/autobear/internal/logline"
	"github.com/autobear/autobear/internal/registry"
	"github.com/autobear/autobear/internal/runner"
)

const (
	// consoleChromeRows is the rows taken by the title, status bar, and help
	// line around the output area.
	consoleChromeRows = 3

	// defaultConsoleHeight sizes the output area until the first
	// WindowSizeMsg arrives.
	defaultConsoleHeight = 20

	// exportTimeLayout names export files down to the second.
	exportTimeLayout = "20060102_150405"

	// displayTimeLayout is the short per-line timestamp shown on screen.
	// Exports keep the full canonical form.
	displayTimeLayout = "15:04:05"

	// defaultBufferCap matches the config default for console.buffer.
	defaultBufferCap = 5000
)

type consoleState int

const (
	consoleIdle consoleState = iota
	consoleRunning
)

// Messages delivered by the background run.
type consoleOutputMsg struct {
	output runner.Output
}

type consoleClosedMsg struct{}

type consoleFinishedMsg struct {
	result runner.RunResult
}

// ConsoleOptions configures a console session.
type ConsoleOptions struct {
	Script    registry.Script
	Runner    *runner.Runner
	Bus       *events.Bus
	Theme     string
	BufferCap int
	ExportDir string

	// DevMode controls whether incoming DEBUG lines are shown. The runner
	// backing the console must be created with DeveloperMode enabled so the
	// toggle has lines to show.
	DevMode bool

	// AutoStart launches the script as soon as the console opens.
	AutoStart bool
}

// ConsoleModel streams one run at a time into a capped scrollback and drives
// start, stop, clear, and export from the keyboard.
type ConsoleModel struct {
	styles    Styles
	script    registry.Script
	runner    *runner.Runner
	bus       *events.Bus
	buffer    *Scrollback[runner.Output]
	exportDir string

	state      consoleState
	run        *runner.Run
	lastResult *runner.RunResult

	width     int
	height    int
	processed int
	devMode   bool
	stopping  bool
	quitting  bool
	autoStart bool
}

// NewConsoleModel builds a console for one script. The zero BufferCap falls
// back to the application default.
func NewConsoleModel(opts ConsoleOptions) *ConsoleModel {
	bufCap := opts.BufferCap
	if bufCap <= 0 {
		bufCap = defaultBufferCap
	}

	m := &ConsoleModel{
		styles:    NewStyles(opts.Theme),
		script:    opts.Script,
		runner:    opts.Runner,
		bus:       opts.Bus,
		exportDir: opts.ExportDir,
		devMode:   opts.DevMode,
		autoStart: opts.AutoStart,
	}
	m.buffer = NewScrollback(bufCap, defaultConsoleHeight, m.renderOutput)
	return m
}

// Init starts the script immediately when AutoStart is set.
func (m *ConsoleModel) Init() tea.Cmd {
	if m.autoStart {
		return m.startRun()
	}
	return nil
}

// Update handles key, resize, and run lifecycle messages.
func (m *ConsoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		rows := msg.Height - consoleChromeRows
		if rows < 1 {
			rows = 1
		}
		m.buffer.Resize(rows)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case consoleOutputMsg:
		if msg.output.Level != logline.LevelDebug || m.devMode {
			m.buffer.Append(msg.output)
		}
		m.processed++
		if m.run == nil {
			return m, nil
		}
		return m, waitForRunOutput(m.run.Output())

	case consoleClosedMsg:
		if m.run == nil {
			return m, nil
		}
		return m, waitForRunResult(m.run)

	case consoleFinishedMsg:
		result := msg.result
		m.lastResult = &result
		m.state = consoleIdle
		m.stopping = false
		m.run = nil
		if m.quitting {
			return m, tea.Quit
		}
		return m, nil
	}

	return m, nil
}

//nolint:exhaustive // Only the console's bound keys are handled.
func (m *ConsoleModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, m.quit()

	case tea.KeyUp:
		m.buffer.ScrollUp(1)
	case tea.KeyDown:
		m.buffer.ScrollDown(1)
	case tea.KeyPgUp:
		m.buffer.PageUp()
	case tea.KeyPgDown:
		m.buffer.PageDown()
	case tea.KeyHome:
		m.buffer.Top()
	case tea.KeyEnd:
		m.buffer.Bottom()

	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			break
		}
		switch msg.Runes[0] {
		case 'q':
			return m, m.quit()
		case 's':
			return m, m.toggleRun()
		case 'c':
			m.clearBuffer()
		case 'e':
			m.exportBuffer()
		case 'd':
			m.toggleDevMode()
		case 'k':
			m.buffer.ScrollUp(1)
		case 'j':
			m.buffer.ScrollDown(1)
		case 'g':
			m.buffer.Top()
		case 'G':
			m.buffer.Bottom()
		}
	}

	return m, nil
}

// View renders the title, the output window, the status bar, and the help
// line.
func (m *ConsoleModel) View() string {
	title := m.styles.Title.Render("AutoBear Console") +
		m.styles.Subtle.Render(" · "+m.script.Name)

	body := m.buffer.View()
	// Pad the output area so the status bar stays anchored to the bottom.
	rows := 0
	if body != "" {
		rows = strings.Count(body, "\n") + 1
	}
	pad := m.bufferHeight() - rows
	if pad > 0 {
		body += strings.Repeat("\n", pad)
	}

	help := m.styles.Help.Render(
		"s start/stop · c clear · e export · d dev · up/down scroll · q quit")

	return title + "\n" + body + "\n" + m.statusLine() + "\n" + help
}

// startRun kicks off the script and begins draining its output.
func (m *ConsoleModel) startRun() tea.Cmd {
	run, err := m.runner.Start(context.Background(), m.script)
	if err != nil {
		m.appendLocal(logline.LevelError, "Cannot start script: "+err.Error())
		return nil
	}

	m.run = run
	m.state = consoleRunning
	m.stopping = false
	m.processed = 0
	m.lastResult = nil
	return waitForRunOutput(run.Output())
}

func (m *ConsoleModel) toggleRun() tea.Cmd {
	if m.state == consoleRunning {
		m.stopping = true
		m.run.Stop()
		return nil
	}
	return m.startRun()
}

// quit stops an active run first and leaves once it winds down.
func (m *ConsoleModel) quit() tea.Cmd {
	if m.state == consoleRunning {
		m.quitting = true
		m.stopping = true
		m.run.Stop()
		return nil
	}
	return tea.Quit
}

func (m *ConsoleModel) clearBuffer() {
	m.buffer.Clear()
	if m.bus != nil {
		m.bus.Publish(events.OutputCleared, m.script.Name)
	}
}

func (m *ConsoleModel) toggleDevMode() {
	m.devMode = !m.devMode
	if m.devMode {
		m.appendLocal(logline.LevelSystem, "Developer mode enabled")
	} else {
		m.appendLocal(logline.LevelSystem, "Developer mode disabled")
	}
}

// exportBuffer writes the visible buffer to a timestamped file in the export
// directory and reports the result as a console line.
func (m *ConsoleModel) exportBuffer() {
	if m.buffer.Len() == 0 {
		m.appendLocal(logline.LevelSystem, "Nothing to export")
		return
	}

	var b strings.Builder
	for _, out := range m.buffer.Items() {
		b.WriteString(logline.Format(out.Time, out.Level, out.Message))
		b.WriteByte('\n')
	}

	path := filepath.Join(m.exportDir,
		"console_"+time.Now().Format(exportTimeLayout)+".txt")
	if err := os.MkdirAll(m.exportDir, 0o750); err != nil {
		m.appendLocal(logline.LevelError, "Export failed: "+err.Error())
		return
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		m.appendLocal(logline.LevelError, "Export failed: "+err.Error())
		return
	}

	m.appendLocal(logline.LevelSuccess, "Output exported to: "+path)
	if m.bus != nil {
		m.bus.Publish(events.OutputExported, path)
	}
}

// appendLocal adds a console-originated line, outside any run's output.
func (m *ConsoleModel) appendLocal(level logline.Level, msg string) {
	m.buffer.Append(runner.Output{Time: time.Now(), Level: level, Message: msg})
}

func (m *ConsoleModel) renderOutput(out runner.Output) string {
	ts := m.styles.Timestamp.Render(out.Time.Format(displayTimeLayout))
	return ts + " " + m.styles.ForLevel(out.Level).Render(out.Message)
}

func (m *ConsoleModel) statusLine() string {
	state := "idle"
	switch {
	case m.stopping:
		state = "stopping"
	case m.state == consoleRunning:
		state = "running"
	}

	parts := []string{m.script.Name, state}
	if m.state == consoleRunning {
		parts = append(parts, fmt.Sprintf("%d lines", m.processed))
	} else if m.lastResult != nil {
		parts = append(parts, fmt.Sprintf("last run %s in %s",
			m.lastResult.Status, history.FormatDuration(m.lastResult.Duration().Seconds())))
	}
	if m.devMode {
		parts = append(parts, "dev")
	}
	if !m.buffer.Following() {
		parts = append(parts, "scroll")
	}

	bar := m.styles.StatusBar
	if m.width > 0 {
		bar = bar.Width(m.width)
	}
	return bar.Render(strings.Join(parts, " · "))
}

func (m *ConsoleModel) bufferHeight() int {
	if m.height > consoleChromeRows {
		return m.height - consoleChromeRows
	}
	return defaultConsoleHeight
}

func waitForRunOutput(ch <-chan runner.Output) tea.Cmd {
	return func() tea.Msg {
		out, ok := <-ch
		if !ok {
			return consoleClosedMsg{}
		}
		return consoleOutputMsg{output: out}
	}
}

func waitForRunResult(run *runner.Run) tea.Cmd {
	return func() tea.Msg {
		return consoleFinishedMsg{result: run.Wait()}
	}
}
