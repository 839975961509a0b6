package tui

import (
	"fmt"
	"strings"
	"time"

	"macd-scan-go/src/scanner"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	tabFresh = iota
	tabAll
	tabSkipped
)

var tabNames = []string{"New signals", "All events", "Skipped"}

// Model is the bubbletea viewer over one finished scan.
type Model struct {
	tabs    [][][]string
	headers [][]string
	summary string
	active  int
	offset  int
	height  int
}

// NewModel builds the viewer from a scan report and its fresh transitions.
func NewModel(report scanner.Report, fresh [][]string, all [][]string) Model {
	skipped := make([][]string, len(report.Skipped))
	for i, s := range report.Skipped {
		skipped[i] = []string{s.Ticker.Symbol, string(s.Ticker.Market), s.Reason}
	}

	summary := fmt.Sprintf("run %s | %d tickers | %d events | %d skipped | %s",
		report.RunID, report.Scanned, len(report.Events), len(report.Skipped), report.Elapsed.Round(time.Millisecond))
	if report.NoData() {
		summary += " | no data available"
	}

	return Model{
		tabs:    [][][]string{fresh, all, skipped},
		headers: [][]string{TransitionHeader, EventHeader, {"Ticker", "Country", "Reason"}},
		summary: summary,
		height:  20,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height - 6
		if m.height < 1 {
			m.height = 1
		}
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "right", "l":
			m.active = (m.active + 1) % len(m.tabs)
			m.offset = 0
		case "shift+tab", "left", "h":
			m.active = (m.active + len(m.tabs) - 1) % len(m.tabs)
			m.offset = 0
		case "down", "j":
			if m.offset < len(m.tabs[m.active])-1 {
				m.offset++
			}
		case "up", "k":
			if m.offset > 0 {
				m.offset--
			}
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var sb strings.Builder
	for i, name := range tabNames {
		label := fmt.Sprintf(" %s (%d) ", name, len(m.tabs[i]))
		if i == m.active {
			sb.WriteString(titleStyle.Render(label))
		} else {
			sb.WriteString(dimStyle.Render(label))
		}
	}
	sb.WriteString("\n\n")

	rows := m.tabs[m.active]
	if len(rows) == 0 {
		sb.WriteString(dimStyle.Render("no signals found"))
		sb.WriteString("\n")
	} else {
		end := m.offset + m.height
		if end > len(rows) {
			end = len(rows)
		}
		sb.WriteString(RenderTable(m.headers[m.active], rows[m.offset:end]))
	}

	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(m.summary))
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render("tab: switch view  j/k: scroll  q: quit"))
	return sb.String()
}
