package scanner

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"macd-scan-go/src/models"
	"macd-scan-go/src/provider"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	bars   map[string][]models.Bar
	errs   map[string]error
	panics map[string]bool
}

func (f fakeProvider) History(ctx context.Context, symbol, lookback string) ([]models.Bar, error) {
	if f.panics[symbol] {
		panic("boom")
	}
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	bars, ok := f.bars[symbol]
	if !ok {
		return nil, provider.ErrNoData
	}
	return bars, nil
}

func barsFrom(closes []float64, start time.Time) []models.Bar {
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{Date: start.AddDate(0, 0, i), Close: c}
	}
	return bars
}

// doubleDip is flat for 38 bars, falls to a first trough, bounces, falls to a
// deeper second trough and turns up again. The histogram crosses back above
// zero on the last bar (69) while MACD is still negative.
func doubleDip() []float64 {
	closes := make([]float64, 0, 70)
	for i := 0; i < 38; i++ {
		closes = append(closes, 100)
	}
	step := func(n int, delta float64) {
		for i := 0; i < n; i++ {
			closes = append(closes, closes[len(closes)-1]+delta)
		}
	}
	step(10, -1)
	step(6, 1.5)
	step(10, -2)
	step(6, 1)
	return closes
}

var jan1 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestScanner(p provider.HistoryProvider) *Scanner {
	return NewScanner(p, Config{LookbackDays: 10, Workers: 3}, zerolog.New(io.Discard))
}

func TestAnalyzeSecondAttemptAtCrossoverOnly(t *testing.T) {
	closes := doubleDip()
	require.Len(t, closes, 70)
	ticker := models.Ticker{Symbol: "7203.T", Market: models.MarketJP}

	events, price, err := newTestScanner(fakeProvider{}).Analyze(ticker, barsFrom(closes, jan1))
	require.NoError(t, err)
	assert.Equal(t, 85.0, price)
	require.Len(t, events, 1)
	assert.Equal(t, jan1.AddDate(0, 0, 69), events[0].Date)
	assert.Equal(t, []string{models.LabelSecondAttempt}, events[0].Labels)
	assert.Equal(t, "7203.T", events[0].Ticker)
	assert.Equal(t, models.MarketJP, events[0].Market)
}

func TestAnalyzeInsufficientHistory(t *testing.T) {
	closes := doubleDip()[:40]
	events, price, err := newTestScanner(fakeProvider{}).Analyze(models.Ticker{Symbol: "X"}, barsFrom(closes, jan1))
	assert.ErrorIs(t, err, ErrInsufficientHistory)
	assert.Empty(t, events)
	assert.Zero(t, price)
}

func TestScanSeriesWindow(t *testing.T) {
	s := newTestScanner(fakeProvider{})
	series := s.calculator.Series(barsFrom(doubleDip(), jan1))
	ticker := models.Ticker{Symbol: "T", Market: models.MarketUS}

	// a 35-day window reaches back to the first dead cross at bar 38
	wide := ScanSeries(series, ticker, 35, s.detectors)
	require.NotEmpty(t, wide)
	assert.Equal(t, jan1.AddDate(0, 0, 38), wide[0].Date)
	assert.Equal(t, []string{models.LabelDeadCross}, wide[0].Labels)

	// lookback larger than the series is clamped
	all := ScanSeries(series, ticker, 500, s.detectors)
	assert.Equal(t, wide[0], all[0])
}

func TestRoundPrice(t *testing.T) {
	assert.Equal(t, 1234.57, RoundPrice(1234.567))
	assert.Equal(t, 99.99, RoundPrice(99.994))
	assert.Equal(t, 100.0, RoundPrice(99.999))
}

func TestRunContainsFailures(t *testing.T) {
	closes := doubleDip()
	p := fakeProvider{
		bars: map[string][]models.Bar{
			"7203.T": barsFrom(closes, jan1),
			"6758.T": barsFrom(closes, jan1),
			"AAPL":   barsFrom(closes, jan1.AddDate(0, 0, 1)),
			"SHORT":  barsFrom(closes[:30], jan1),
		},
		errs:   map[string]error{"BROKEN": errors.New("connection reset")},
		panics: map[string]bool{"PANIC": true},
	}
	tickers := []models.Ticker{
		{Symbol: "7203.T", Market: models.MarketJP},
		{Symbol: "BROKEN", Market: models.MarketUS},
		{Symbol: "AAPL", Market: models.MarketUS},
		{Symbol: "PANIC", Market: models.MarketUS},
		{Symbol: "6758.T", Market: models.MarketJP},
		{Symbol: "SHORT", Market: models.MarketJP},
		{Symbol: "MISSING", Market: models.MarketUS},
	}

	report, err := newTestScanner(p).Run(context.Background(), tickers)
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 7, report.Scanned)
	assert.False(t, report.NoData())

	var order []string
	for _, ev := range report.Events {
		order = append(order, ev.Ticker)
	}
	assert.Equal(t, []string{"AAPL", "6758.T", "7203.T"}, order)

	var skipped []string
	for _, sk := range report.Skipped {
		skipped = append(skipped, sk.Ticker.Symbol)
	}
	assert.Equal(t, []string{"BROKEN", "PANIC", "SHORT", "MISSING"}, skipped)

	assert.Equal(t, map[string]float64{"7203.T": 85, "6758.T": 85, "AAPL": 85}, report.LatestPrices)
}

func TestRunAllSkippedIsNoData(t *testing.T) {
	report, err := newTestScanner(fakeProvider{}).Run(context.Background(), []models.Ticker{{Symbol: "A"}, {Symbol: "B"}})
	require.NoError(t, err)
	assert.Empty(t, report.Events)
	assert.True(t, report.NoData())

	empty, err := newTestScanner(fakeProvider{}).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, empty.NoData())
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestScanner(fakeProvider{}).Run(ctx, []models.Ticker{{Symbol: "A"}})
	assert.ErrorIs(t, err, context.Canceled)
}
