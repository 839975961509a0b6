// Package provider fetches daily price histories and normalizes them into
// strictly date-ordered bars before any indicator sees them.
package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"macd-scan-go/src/models"
)

var (
	// ErrNoData means the source was unreachable or returned nothing usable.
	ErrNoData = errors.New("no price data")
	// ErrMalformedSeries means the payload had a shape that could not be normalized.
	ErrMalformedSeries = errors.New("malformed price series")
)

// HistoryProvider returns the daily bars of a symbol over a lookback range such as "6mo".
type HistoryProvider interface {
	History(ctx context.Context, symbol, lookback string) ([]models.Bar, error)
}

// Normalize drops bars without a finite positive close, truncates dates to the
// day, sorts ascending, and keeps the last bar for any duplicated day.
func Normalize(bars []models.Bar) ([]models.Bar, error) {
	out := make([]models.Bar, 0, len(bars))
	for _, bar := range bars {
		if math.IsNaN(bar.Close) || math.IsInf(bar.Close, 0) || bar.Close <= 0 {
			continue
		}
		if bar.Date.IsZero() {
			return nil, fmt.Errorf("%w: bar without date", ErrMalformedSeries)
		}
		y, m, d := bar.Date.Date()
		bar.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		out = append(out, bar)
	}
	if len(out) == 0 {
		return nil, ErrNoData
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})

	deduped := out[:1]
	for _, bar := range out[1:] {
		last := &deduped[len(deduped)-1]
		if bar.Date.Equal(last.Date) {
			*last = bar
			continue
		}
		deduped = append(deduped, bar)
	}
	return deduped, nil
}

// lookbackDays converts a range like "6mo", "1y", "90d" or "2wk" to calendar days.
func lookbackDays(lookback string) (int, error) {
	var n int
	var unit string
	if _, err := fmt.Sscanf(lookback, "%d%s", &n, &unit); err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid lookback %q", lookback)
	}
	switch unit {
	case "d":
		return n, nil
	case "wk":
		return n * 7, nil
	case "mo":
		return n * 31, nil
	case "y":
		return n * 366, nil
	}
	return 0, fmt.Errorf("invalid lookback unit %q", unit)
}
