package models

import (
	"time"
)

// Bar is one trading day of a ticker's price history. Only Close feeds the
// indicators; the other fields are kept so providers don't have to drop them.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// IndicatorSnapshot holds the indicator values derived for a single bar.
type IndicatorSnapshot struct {
	MACD   float64 // EMA12 - EMA26
	Signal float64 // EMA9 of MACD
	Hist   float64 // MACD - Signal
	RSI    float64 // 14-period simple-mean RSI, NaN during warm-up
}

// Series pairs a bar sequence with its indicator snapshots, index for index.
type Series struct {
	Bars       []Bar
	Indicators []IndicatorSnapshot
}

// Len returns the number of bars in the series.
func (s Series) Len() int {
	return len(s.Bars)
}

// Closes extracts the closing prices.
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, bar := range s.Bars {
		closes[i] = bar.Close
	}
	return closes
}

// MACD extracts the MACD line.
func (s Series) MACD() []float64 {
	out := make([]float64, len(s.Indicators))
	for i, snap := range s.Indicators {
		out[i] = snap.MACD
	}
	return out
}

// Hist extracts the histogram.
func (s Series) Hist() []float64 {
	out := make([]float64, len(s.Indicators))
	for i, snap := range s.Indicators {
		out[i] = snap.Hist
	}
	return out
}

// Block is a maximal run of same-signed histogram values inside a window.
// Start and End are inclusive indices into that window.
type Block struct {
	Sign  int // +1, -1, or 0 for a leading run of zeros
	Start int
	End   int
	Len   int
}
