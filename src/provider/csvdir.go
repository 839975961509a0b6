package provider

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"macd-scan-go/src/models"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CSVDir serves histories from <dir>/<symbol>.csv files laid out like Yahoo
// downloads: Date,Open,High,Low,Close[,Adj Close],Volume.
type CSVDir struct {
	dir string
}

// NewCSVDir creates a provider reading from dir
func NewCSVDir(dir string) *CSVDir {
	return &CSVDir{dir: dir}
}

// History reads the symbol's file and keeps the bars within lookback of its last date.
func (p *CSVDir) History(ctx context.Context, symbol, lookback string) ([]models.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	days, err := lookbackDays(lookback)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(p.dir, symbol+".csv"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: no file for %s", ErrNoData, symbol)
		}
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	bars, err := ReadBars(file)
	if err != nil {
		return nil, err
	}
	bars, err = Normalize(bars)
	if err != nil {
		return nil, err
	}

	cutoff := bars[len(bars)-1].Date.AddDate(0, 0, -days)
	for i, bar := range bars {
		if bar.Date.After(cutoff) {
			return bars[i:], nil
		}
	}
	return bars, nil
}

// ReadBars parses a daily OHLCV CSV. A UTF-8 byte order mark is tolerated,
// columns are located by header name, and "null" cells are skipped rows.
func ReadBars(r io.Reader) ([]models.Bar, error) {
	decoder := unicode.UTF8BOM.NewDecoder()
	reader := csv.NewReader(transform.NewReader(r, decoder))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoData
		}
		return nil, fmt.Errorf("%w: read header: %v", ErrMalformedSeries, err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	dateCol, ok := cols["date"]
	if !ok {
		return nil, fmt.Errorf("%w: missing Date column", ErrMalformedSeries)
	}
	closeCol, ok := cols["close"]
	if !ok {
		return nil, fmt.Errorf("%w: missing Close column", ErrMalformedSeries)
	}

	var bars []models.Bar
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSeries, err)
		}
		if closeCol >= len(record) || dateCol >= len(record) {
			return nil, fmt.Errorf("%w: short row %v", ErrMalformedSeries, record)
		}

		closeStr := strings.TrimSpace(record[closeCol])
		if closeStr == "" || strings.EqualFold(closeStr, "null") {
			continue
		}
		closePrice, err := strconv.ParseFloat(closeStr, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: close %q: %v", ErrMalformedSeries, closeStr, err)
		}
		date, err := parseDate(strings.TrimSpace(record[dateCol]))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSeries, err)
		}

		bars = append(bars, models.Bar{
			Date:   date,
			Open:   column(record, cols, "open"),
			High:   column(record, cols, "high"),
			Low:    column(record, cols, "low"),
			Close:  closePrice,
			Volume: column(record, cols, "volume"),
		})
	}
	return bars, nil
}

func parseDate(s string) (time.Time, error) {
	layouts := []string{
		models.DateLayout,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006/01/02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", s)
}

func column(record []string, cols map[string]int, name string) float64 {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return 0
	}
	v, _ := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
	return v
}
