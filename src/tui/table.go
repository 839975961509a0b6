// Package tui renders scan results: a plain styled table for stdout and an
// interactive bubbletea viewer.
package tui

import (
	"fmt"
	"strings"

	"macd-scan-go/src/models"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	buyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	sellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mixedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
	titleStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1).Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230"))
)

// EventHeader is the column layout of event tables.
var EventHeader = []string{"Date", "Country", "Ticker", "Name", "Price", "Signals"}

// TransitionHeader extends EventHeader with the classification.
var TransitionHeader = append(append([]string(nil), EventHeader...), "Status")

// EventRows flattens events into table cells.
func EventRows(events []models.SignalEvent, name func(string) string) [][]string {
	rows := make([][]string, len(events))
	for i, ev := range events {
		rows[i] = eventCells(ev, name)
	}
	return rows
}

// TransitionRows flattens transitions into table cells.
func TransitionRows(transitions []models.Transition, name func(string) string) [][]string {
	rows := make([][]string, len(transitions))
	for i, t := range transitions {
		status := string(t.Classification)
		if t.Classification == models.ClassReversal {
			status = fmt.Sprintf("%s (was %s)", status, t.Prior)
		}
		rows[i] = append(eventCells(t.Event, name), status)
	}
	return rows
}

func eventCells(ev models.SignalEvent, name func(string) string) []string {
	display := ev.Ticker
	if name != nil {
		display = name(ev.Ticker)
	}
	return []string{ev.Day(), string(ev.Market), ev.Ticker, display, fmt.Sprintf("%.2f", ev.Price), ev.SignalText()}
}

// RenderTable lays out rows in padded columns, colouring each row by the
// direction of its Signals cell.
func RenderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var sb strings.Builder
	sb.WriteString(headerStyle.Render(formatRow(header, widths)))
	sb.WriteString("\n")
	for _, row := range rows {
		sb.WriteString(rowStyle(row).Render(formatRow(row, widths)))
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatRow(cells []string, widths []int) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		pad := 0
		if i < len(widths) {
			pad = widths[i] - lipgloss.Width(cell)
		}
		parts[i] = cell + strings.Repeat(" ", pad)
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

func rowStyle(row []string) lipgloss.Style {
	if len(row) < len(EventHeader) {
		return dimStyle
	}
	dirs := models.DirectionsOf([]string{row[len(EventHeader)-1]})
	switch {
	case dirs.Buy && dirs.Sell:
		return mixedStyle
	case dirs.Buy:
		return buyStyle
	case dirs.Sell:
		return sellStyle
	}
	return dimStyle
}
