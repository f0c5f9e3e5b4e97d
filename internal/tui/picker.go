package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/autobear/autobear/internal/history"
	"github.com/autobear/autobear/internal/registry"
)

// pickerTableHeight caps the visible rows in either table.
const pickerTableHeight = 12

type pickerState int

const (
	pickerSelecting pickerState = iota
	pickerHistory
)

// PickerModel lets the user choose a registered script. Enter confirms the
// choice, h opens the run history for the highlighted script, q leaves
// without choosing.
type PickerModel struct {
	styles  Styles
	state   pickerState
	scripts []registry.Script
	store   *history.Store
	table   table.Model

	histTable  table.Model
	histScript string
	histStats  history.Stats

	chosen *registry.Script
}

// NewPickerModel builds a picker over the given scripts. The store supplies
// the last-run column and the history dialog; it may be nil.
func NewPickerModel(scripts []registry.Script, store *history.Store, theme string) *PickerModel {
	styles := NewStyles(theme)

	m := &PickerModel{
		styles:  styles,
		scripts: scripts,
		store:   store,
	}
	m.table = m.newScriptTable()
	return m
}

// Selected returns the chosen script once the picker has quit.
func (m *PickerModel) Selected() (registry.Script, bool) {
	if m.chosen == nil {
		return registry.Script{}, false
	}
	return *m.chosen, true
}

// Init implements tea.Model.
func (m *PickerModel) Init() tea.Cmd {
	return nil
}

// Update handles navigation and the history dialog.
func (m *PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.state == pickerHistory {
		return m.updateHistory(keyMsg)
	}
	return m.updateSelecting(keyMsg)
}

//nolint:exhaustive // Only the picker's bound keys are handled.
func (m *PickerModel) updateSelecting(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyEnter:
		if i := m.table.Cursor(); i >= 0 && i < len(m.scripts) {
			chosen := m.scripts[i]
			m.chosen = &chosen
		}
		return m, tea.Quit

	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			break
		}
		switch msg.Runes[0] {
		case 'q':
			return m, tea.Quit
		case 'h':
			m.openHistory()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

//nolint:exhaustive // Only the dialog's bound keys are handled.
func (m *PickerModel) updateHistory(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc, tea.KeyBackspace:
		m.state = pickerSelecting
		return m, nil
	case tea.KeyRunes:
		if len(msg.Runes) > 0 {
			switch msg.Runes[0] {
			case 'q':
				return m, tea.Quit
			case 'h':
				m.state = pickerSelecting
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	m.histTable, cmd = m.histTable.Update(msg)
	return m, cmd
}

// View renders either the script table or the history dialog.
func (m *PickerModel) View() string {
	if m.state == pickerHistory {
		return m.historyView()
	}

	title := m.styles.Title.Render("AutoBear Scripts")
	help := m.styles.Help.Render("enter run · h history · q quit")
	return title + "\n" + m.styles.Box.Render(m.table.View()) + "\n" + help
}

func (m *PickerModel) historyView() string {
	title := m.styles.Title.Render("Run History") +
		m.styles.Subtle.Render(" · "+m.histScript)

	stats := m.styles.Subtle.Render("No runs recorded")
	if m.histStats.TotalRuns > 0 {
		stats = strings.Join([]string{
			m.styles.Label.Render("Total runs: ") +
				m.styles.Value.Render(fmt.Sprintf("%d", m.histStats.TotalRuns)),
			m.styles.Label.Render("Success rate: ") +
				m.styles.Value.Render(fmt.Sprintf("%.1f%%", m.histStats.SuccessRate)),
			m.styles.Label.Render("Avg duration: ") +
				m.styles.Value.Render(history.FormatDuration(m.histStats.AvgDurationSecs)),
		}, "  ")
	}

	help := m.styles.Help.Render("esc back · q quit")
	return title + "\n" + stats + "\n" +
		m.styles.Box.Render(m.histTable.View()) + "\n" + help
}

// openHistory loads the highlighted script's records into the dialog.
func (m *PickerModel) openHistory() {
	if m.store == nil {
		return
	}
	i := m.table.Cursor()
	if i < 0 || i >= len(m.scripts) {
		return
	}

	name := m.scripts[i].Name
	records, err := m.store.ForScript(name)
	if err != nil {
		return
	}
	stats, err := m.store.ScriptStats(name)
	if err != nil {
		return
	}

	m.histScript = name
	m.histStats = stats
	m.histTable = NewHistoryTable(records, tableHeight(len(records)))
	m.histTable.SetStyles(m.tableStyles())
	m.state = pickerHistory
}

func (m *PickerModel) newScriptTable() table.Model {
	columns := []table.Column{
		{Title: "Name", Width: 24},     //nolint:mnd // Column width.
		{Title: "Category", Width: 16}, //nolint:mnd // Column width.
		{Title: "Last Run", Width: 24}, //nolint:mnd // Column width.
		{Title: "Status", Width: 10},   //nolint:mnd // Column width.
	}

	rows := make([]table.Row, len(m.scripts))
	for i, script := range m.scripts {
		lastRun := "Never"
		status := ""
		if m.store != nil {
			if display, st, err := m.store.LastRunDisplay(script.Name); err == nil {
				lastRun = display
				status = string(st)
			}
		}

		category := script.Category
		if category == "" {
			category = "General"
		}

		rows[i] = table.Row{script.Name, category, lastRun, status}
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(tableHeight(len(rows))),
	)
	t.SetStyles(m.tableStyles())
	return t
}

func (m *PickerModel) tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = m.styles.TableHeader
	s.Selected = m.styles.TableSelected
	return s
}

// NewHistoryTable builds the record table shared by the picker dialog and
// the history command.
func NewHistoryTable(records []history.Record, height int) table.Model {
	columns := []table.Column{
		{Title: "Started", Width: 19},  //nolint:mnd // Column width.
		{Title: "Status", Width: 10},   //nolint:mnd // Column width.
		{Title: "Duration", Width: 10}, //nolint:mnd // Column width.
		{Title: "Exit", Width: 5},      //nolint:mnd // Column width.
	}

	// Newest first.
	rows := make([]table.Row, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		rows = append(rows, table.Row{
			rec.StartTime.Format("2006-01-02 15:04:05"),
			string(rec.Status),
			history.FormatDuration(rec.DurationSecs),
			fmt.Sprintf("%d", rec.ExitCode),
		})
	}

	return table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
}

func tableHeight(rows int) int {
	if rows < 1 {
		return 1
	}
	if rows > pickerTableHeight {
		return pickerTableHeight
	}
	return rows
}
