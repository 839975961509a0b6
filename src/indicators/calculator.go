package indicators

import (
	"math"

	"macd-scan-go/src/models"

	"github.com/markcheno/go-talib"
)

// Default periods for the MACD (12, 26, 9) and RSI (14) indicators.
const (
	DefaultFastPeriod   = 12
	DefaultSlowPeriod   = 26
	DefaultSignalPeriod = 9
	DefaultRSIPeriod    = 14
)

// WarmupBars is the number of leading bars whose signal/hist/rsi values are
// not yet reliable.
const WarmupBars = DefaultSlowPeriod - 1

// Calculator handles technical indicator calculations
type Calculator struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
	rsiPeriod    int
}

// NewCalculator creates a calculator with the default MACD(12,26,9) and RSI(14) periods
func NewCalculator() *Calculator {
	return &Calculator{
		fastPeriod:   DefaultFastPeriod,
		slowPeriod:   DefaultSlowPeriod,
		signalPeriod: DefaultSignalPeriod,
		rsiPeriod:    DefaultRSIPeriod,
	}
}

// Calculate derives MACD, signal, histogram and RSI for every close.
// The output is aligned index for index with closes.
func (c *Calculator) Calculate(closes []float64) []models.IndicatorSnapshot {
	if len(closes) == 0 {
		return nil
	}

	fast := ema(closes, c.fastPeriod)
	slow := ema(closes, c.slowPeriod)

	macd := make([]float64, len(closes))
	for i := range closes {
		macd[i] = fast[i] - slow[i]
	}
	signal := ema(macd, c.signalPeriod)
	rsi := c.rsi(closes)

	snapshots := make([]models.IndicatorSnapshot, len(closes))
	for i := range closes {
		snapshots[i] = models.IndicatorSnapshot{
			MACD:   macd[i],
			Signal: signal[i],
			Hist:   macd[i] - signal[i],
			RSI:    rsi[i],
		}
	}
	return snapshots
}

// Series computes the indicators for bars and pairs them up.
func (c *Calculator) Series(bars []models.Bar) models.Series {
	series := models.Series{Bars: bars}
	series.Indicators = c.Calculate(series.Closes())
	return series
}

// ema is the recursive exponential moving average seeded with the first
// observation, alpha = 2/(span+1).
func ema(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// rsi uses a rolling simple mean of gains and losses, not Wilder smoothing.
// Entries before the first full window are NaN; a zero loss mean yields 100.
func (c *Calculator) rsi(closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(closes) < c.rsiPeriod {
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		diff := closes[i] - closes[i-1]
		if diff > 0 {
			gains[i] = diff
		} else if diff < 0 {
			losses[i] = -diff
		}
	}

	avgGain := talib.Sma(gains, c.rsiPeriod)
	avgLoss := talib.Sma(losses, c.rsiPeriod)
	// talib keeps a running sum, so a window that is all zeros can carry a
	// rounding residue. Count nonzero entries to detect it exactly.
	gainCount, lossCount := 0, 0
	for i := 0; i < len(closes); i++ {
		gainCount += nonzero(gains[i])
		lossCount += nonzero(losses[i])
		if i >= c.rsiPeriod {
			gainCount -= nonzero(gains[i-c.rsiPeriod])
			lossCount -= nonzero(losses[i-c.rsiPeriod])
		}
		if i < c.rsiPeriod-1 {
			continue
		}
		switch {
		case lossCount == 0 && gainCount == 0:
			// flat window: 0/0 stays undefined
		case lossCount == 0:
			out[i] = 100
		case gainCount == 0:
			out[i] = 0
		default:
			rs := avgGain[i] / avgLoss[i]
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}

func nonzero(v float64) int {
	if v != 0 {
		return 1
	}
	return 0
}
