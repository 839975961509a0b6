// Package scanner applies the signal detectors over the trailing window of
// each ticker's history and fans a universe scan out over a bounded pool.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"macd-scan-go/src/indicators"
	"macd-scan-go/src/metrics"
	"macd-scan-go/src/models"
	"macd-scan-go/src/provider"
	"macd-scan-go/src/strategy"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// MinBars is the shortest history the indicators are considered stable on.
const MinBars = 60

// ErrInsufficientHistory is returned for histories shorter than MinBars.
var ErrInsufficientHistory = errors.New("insufficient price history")

// Config holds scanner configuration
type Config struct {
	LookbackDays int    // evaluated days; one extra day is scanned for transition comparison
	HistoryRange string // provider lookback such as "6mo"
	Workers      int    // concurrent tickers
}

// DefaultConfig mirrors the daily scan defaults.
func DefaultConfig() Config {
	return Config{
		LookbackDays: 10,
		HistoryRange: "6mo",
		Workers:      8,
	}
}

// Scanner runs the detection pipeline for tickers fetched from a provider.
type Scanner struct {
	provider   provider.HistoryProvider
	calculator *indicators.Calculator
	detectors  []strategy.Detector
	config     Config
	log        zerolog.Logger
}

// NewScanner creates a scanner over p with the default detectors.
func NewScanner(p provider.HistoryProvider, config Config, log zerolog.Logger) *Scanner {
	defaults := DefaultConfig()
	if config.LookbackDays <= 0 {
		config.LookbackDays = defaults.LookbackDays
	}
	if config.HistoryRange == "" {
		config.HistoryRange = defaults.HistoryRange
	}
	if config.Workers <= 0 {
		config.Workers = defaults.Workers
	}
	return &Scanner{
		provider:   p,
		calculator: indicators.NewCalculator(),
		detectors:  strategy.DefaultDetectors(),
		config:     config,
		log:        log,
	}
}

// ScanSeries evaluates the detectors over the bars [n-lookback-1, n-1] of an
// already computed series and returns one event per bar that fired.
func ScanSeries(series models.Series, ticker models.Ticker, lookback int, detectors []strategy.Detector) []models.SignalEvent {
	n := series.Len()
	start := n - lookback - 1
	if start < 0 {
		start = 0
	}

	var events []models.SignalEvent
	for i := start; i < n; i++ {
		labels := strategy.Evaluate(detectors, series, i)
		if len(labels) == 0 {
			continue
		}
		events = append(events, models.SignalEvent{
			Date:   series.Bars[i].Date,
			Ticker: ticker.Symbol,
			Market: ticker.Market,
			Price:  RoundPrice(series.Bars[i].Close),
			Labels: labels,
		})
	}
	return events
}

// RoundPrice rounds a close to 2 decimals.
func RoundPrice(price float64) float64 {
	return decimal.NewFromFloat(price).Round(2).InexactFloat64()
}

// Analyze runs the pipeline on bars already fetched for a ticker. It returns
// the events and the latest close, or ErrInsufficientHistory.
func (s *Scanner) Analyze(ticker models.Ticker, bars []models.Bar) ([]models.SignalEvent, float64, error) {
	if len(bars) < MinBars {
		return nil, 0, fmt.Errorf("%w: %d bars", ErrInsufficientHistory, len(bars))
	}
	series := s.calculator.Series(bars)
	events := ScanSeries(series, ticker, s.config.LookbackDays, s.detectors)
	return events, RoundPrice(bars[len(bars)-1].Close), nil
}

// Scan fetches and analyzes a single ticker. Any error means no events and no price.
func (s *Scanner) Scan(ctx context.Context, ticker models.Ticker) ([]models.SignalEvent, float64, error) {
	bars, err := s.provider.History(ctx, ticker.Symbol, s.config.HistoryRange)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch %s: %w", ticker.Symbol, err)
	}
	return s.Analyze(ticker, bars)
}

// Skip records a ticker that produced no result.
type Skip struct {
	Ticker models.Ticker
	Reason string
}

// Report is the outcome of one universe scan.
type Report struct {
	RunID        string
	Started      time.Time
	Elapsed      time.Duration
	Events       []models.SignalEvent // date desc, market, ticker
	LatestPrices map[string]float64
	Scanned      int
	Skipped      []Skip
}

// NoData reports whether every ticker was skipped, as opposed to the
// tickers scanning fine with no rule firing.
func (r Report) NoData() bool {
	return r.Scanned > 0 && len(r.Skipped) == r.Scanned
}

type tickerOutcome struct {
	events []models.SignalEvent
	price  float64
	err    error
}

// Run scans every ticker on a bounded worker pool. Per-ticker failures,
// including panics, become Skips and never abort the batch. Only a cancelled
// context stops the run early.
func (s *Scanner) Run(ctx context.Context, tickers []models.Ticker) (Report, error) {
	report := Report{
		RunID:        uuid.NewString(),
		Started:      time.Now(),
		LatestPrices: make(map[string]float64),
		Scanned:      len(tickers),
	}
	log := s.log.With().Str("run_id", report.RunID).Logger()
	log.Info().Int("tickers", len(tickers)).Int("workers", s.config.Workers).Msg("scan started")

	outcomes := make([]tickerOutcome, len(tickers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)

	var mu sync.Mutex
	done := 0
	for idx, ticker := range tickers {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcomes[idx] = s.scanSafely(gctx, ticker)
			mu.Lock()
			done++
			log.Debug().Int("done", done).Int("total", len(tickers)).Str("ticker", ticker.Symbol).Msg("progress")
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("scan cancelled: %w", err)
	}

	for idx, outcome := range outcomes {
		ticker := tickers[idx]
		if outcome.err != nil {
			report.Skipped = append(report.Skipped, Skip{Ticker: ticker, Reason: outcome.err.Error()})
			metrics.TickersTotal.WithLabelValues(string(ticker.Market), "skipped").Inc()
			log.Debug().Str("ticker", ticker.Symbol).Str("market", string(ticker.Market)).Str("reason", outcome.err.Error()).Msg("ticker skipped")
			continue
		}
		metrics.TickersTotal.WithLabelValues(string(ticker.Market), "ok").Inc()
		report.LatestPrices[ticker.Symbol] = outcome.price
		for _, ev := range outcome.events {
			for _, label := range ev.Labels {
				metrics.EventsTotal.WithLabelValues(label).Inc()
			}
		}
		report.Events = append(report.Events, outcome.events...)
	}
	models.SortEvents(report.Events)

	report.Elapsed = time.Since(report.Started)
	metrics.ScanDuration.Observe(report.Elapsed.Seconds())
	log.Info().
		Int("events", len(report.Events)).
		Int("skipped", len(report.Skipped)).
		Dur("elapsed", report.Elapsed).
		Msg("scan finished")
	return report, nil
}

func (s *Scanner) scanSafely(ctx context.Context, ticker models.Ticker) (outcome tickerOutcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = tickerOutcome{err: fmt.Errorf("panic scanning %s: %v", ticker.Symbol, r)}
		}
	}()
	events, price, err := s.Scan(ctx, ticker)
	return tickerOutcome{events: events, price: price, err: err}
}
