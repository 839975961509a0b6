// Package export writes scan results as spreadsheet-friendly CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"macd-scan-go/src/models"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NameFunc resolves a display name for a symbol.
type NameFunc func(symbol string) string

var eventHeader = []string{"Date", "Country", "Ticker", "Name", "Price", "Signals"}

// WriteEvents writes the event table as UTF-8 CSV with a byte order mark so
// spreadsheet apps detect the encoding of Japanese names.
func WriteEvents(w io.Writer, events []models.SignalEvent, name NameFunc) error {
	return writeCSV(w, eventHeader, len(events), func(i int) []string {
		return eventRow(events[i], name)
	})
}

// WriteTransitions writes the fresh latest-day rows with their classification.
func WriteTransitions(w io.Writer, transitions []models.Transition, name NameFunc) error {
	header := append(append([]string(nil), eventHeader...), "Status", "Prior")
	return writeCSV(w, header, len(transitions), func(i int) []string {
		t := transitions[i]
		return append(eventRow(t.Event, name), string(t.Classification), string(t.Prior))
	})
}

func eventRow(ev models.SignalEvent, name NameFunc) []string {
	display := ev.Ticker
	if name != nil {
		display = name(ev.Ticker)
	}
	return []string{
		ev.Day(),
		string(ev.Market),
		ev.Ticker,
		display,
		decimal.NewFromFloat(ev.Price).StringFixed(2),
		ev.SignalText(),
	}
}

func writeCSV(w io.Writer, header []string, n int, row func(int) []string) error {
	bom := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	writer := csv.NewWriter(bom)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < n; i++ {
		if err := writer.Write(row(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return bom.Close()
}
