package strategy

import (
	"math"

	"macd-scan-go/src/indicators"
	"macd-scan-go/src/models"
)

// Detector evaluates one rule at a single bar of a computed series.
// Detectors only read the series.
type Detector interface {
	// Label is the event label emitted when the rule fires.
	Label() string
	// Lookback is the number of bars before i the rule reads.
	Lookback() int
	// Detect reports whether the rule fires at bar i.
	Detect(s models.Series, i int) bool
}

// squeezeRatio bounds a "small" histogram relative to |MACD|.
const squeezeRatio = 0.10

// DefaultDetectors returns the five rules in label order.
func DefaultDetectors() []Detector {
	return []Detector{
		NewSecondAttempt(),
		ReEntry{},
		RSIDivergence{},
		Squeeze{},
		DeadCross{},
	}
}

// Evaluate runs the detectors at bar i and returns the labels that fired,
// in detector order. Rules without enough history before i don't fire.
func Evaluate(detectors []Detector, s models.Series, i int) []string {
	if i < 0 || i >= len(s.Indicators) {
		return nil
	}
	var labels []string
	for _, d := range detectors {
		if i < d.Lookback() {
			continue
		}
		if d.Detect(s, i) {
			labels = append(labels, d.Label())
		}
	}
	return labels
}

// SecondAttempt is the double-bottom buy: the histogram turns positive while
// MACD is still negative, after two negative valleys split by a hill where the
// second valley's MACD low undercuts the first.
type SecondAttempt struct {
	ValleyRatio float64 // v2 low must be below v1 low * ValleyRatio
	MinBlockLen int     // minimum length of valley1, hill and valley2
	GuardFrom   int     // guard window [i-GuardFrom, i-GuardTo] must hold a negative hist
	GuardTo     int
}

// NewSecondAttempt creates the detector with its default thresholds
func NewSecondAttempt() SecondAttempt {
	return SecondAttempt{
		ValleyRatio: 0.95,
		MinBlockLen: 2,
		GuardFrom:   12,
		GuardTo:     2,
	}
}

func (d SecondAttempt) Label() string { return models.LabelSecondAttempt }
func (d SecondAttempt) Lookback() int { return d.GuardFrom }

func (d SecondAttempt) Detect(s models.Series, i int) bool {
	current := s.Indicators[i]
	if !(current.MACD < 0 && current.Hist > 0) {
		return false
	}

	hadNegative := false
	for k := i - d.GuardFrom; k <= i-d.GuardTo; k++ {
		if s.Indicators[k].Hist < 0 {
			hadNegative = true
			break
		}
	}
	if !hadNegative {
		return false
	}

	start := i - (indicators.BlockWindow - 1)
	if start < 0 {
		start = 0
	}
	window := s.Indicators[start : i+1]
	hist := make([]float64, len(window))
	macd := make([]float64, len(window))
	for k, snap := range window {
		hist[k] = snap.Hist
		macd[k] = snap.MACD
	}

	blocks := indicators.SegmentBlocks(hist)
	if len(blocks) < 4 {
		return false
	}
	// blocks[len-1] is the positive run in progress
	valley2 := blocks[len(blocks)-2]
	hill := blocks[len(blocks)-3]
	valley1 := blocks[len(blocks)-4]

	if !(valley2.Sign < 0 && hill.Sign > 0 && valley1.Sign < 0) {
		return false
	}
	if valley2.Len < d.MinBlockLen || hill.Len < d.MinBlockLen || valley1.Len < d.MinBlockLen {
		return false
	}

	v2Min := indicators.BlockMin(macd, valley2)
	v1Min := indicators.BlockMin(macd, valley1)
	return v2Min < v1Min*d.ValleyRatio
}

// ReEntry is the squeeze-bounce buy: a rising positive histogram after a
// recent bar (2 to 6 bars back) where the histogram was positive but small.
type ReEntry struct{}

func (ReEntry) Label() string { return models.LabelReEntry }
func (ReEntry) Lookback() int { return 6 }

func (ReEntry) Detect(s models.Series, i int) bool {
	current, previous := s.Indicators[i], s.Indicators[i-1]
	if !(current.Hist > 0 && current.Hist > previous.Hist) {
		return false
	}
	for k := 2; k <= 6; k++ {
		past := s.Indicators[i-k]
		if past.Hist > 0 && past.Hist < math.Abs(past.MACD)*squeezeRatio {
			return true
		}
	}
	return false
}

// RSIDivergence is the bearish divergence sell: a higher close than five bars
// ago with a lower, still overbought RSI.
type RSIDivergence struct{}

func (RSIDivergence) Label() string { return models.LabelRSIDivergence }
func (RSIDivergence) Lookback() int { return 5 }

func (RSIDivergence) Detect(s models.Series, i int) bool {
	rsi, pastRSI := s.Indicators[i].RSI, s.Indicators[i-5].RSI
	return s.Bars[i].Close > s.Bars[i-5].Close && rsi < pastRSI && rsi > 60
}

// Squeeze is the fading-momentum sell: a positive histogram that is small
// relative to MACD and already shrinking.
type Squeeze struct{}

func (Squeeze) Label() string { return models.LabelSqueeze }
func (Squeeze) Lookback() int { return 1 }

func (Squeeze) Detect(s models.Series, i int) bool {
	current, previous := s.Indicators[i], s.Indicators[i-1]
	return current.Hist > 0 &&
		current.Hist < math.Abs(current.MACD)*squeezeRatio &&
		previous.Hist > current.Hist
}

// DeadCross fires when MACD moves from at-or-above the signal line to below it.
type DeadCross struct{}

func (DeadCross) Label() string { return models.LabelDeadCross }
func (DeadCross) Lookback() int { return 1 }

func (DeadCross) Detect(s models.Series, i int) bool {
	current, previous := s.Indicators[i], s.Indicators[i-1]
	return current.MACD < current.Signal && previous.MACD >= previous.Signal
}
