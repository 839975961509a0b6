package models

import (
	"sort"
	"strings"
	"time"
)

// Market identifies the exchange group a ticker trades on.
type Market string

const (
	MarketJP Market = "JP"
	MarketUS Market = "US"
)

// Labels emitted by the detectors.
const (
	LabelSecondAttempt = "BUY: 2nd Attempt"
	LabelReEntry       = "BUY: Re-entry"
	LabelRSIDivergence = "SELL: RSI Div"
	LabelSqueeze       = "SELL: Squeeze"
	LabelDeadCross     = "SELL: Dead Cross"
)

// DateLayout is the day format used for event dates.
const DateLayout = "2006-01-02"

// SignalEvent is one ticker-day on which at least one detector fired.
type SignalEvent struct {
	Date   time.Time
	Ticker string
	Market Market
	Price  float64 // close rounded to 2 decimals
	Labels []string
}

// Day returns the event date formatted as YYYY-MM-DD.
func (e SignalEvent) Day() string {
	return e.Date.Format(DateLayout)
}

// SignalText joins the labels the way they are presented in tables.
func (e SignalEvent) SignalText() string {
	return strings.Join(e.Labels, ", ")
}

// Directions derives the aggregate direction set of the event's labels.
func (e SignalEvent) Directions() DirectionSet {
	return DirectionsOf(e.Labels)
}

// Direction is a directional call carried by a label.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
)

// DirectionSet records which directions are present. Both may be set.
type DirectionSet struct {
	Buy  bool
	Sell bool
}

// DirectionsOf classifies labels by case-insensitive "buy"/"sell" substring.
func DirectionsOf(labels []string) DirectionSet {
	var set DirectionSet
	for _, label := range labels {
		lower := strings.ToLower(label)
		if strings.Contains(lower, "buy") {
			set.Buy = true
		}
		if strings.Contains(lower, "sell") {
			set.Sell = true
		}
	}
	return set
}

// Empty reports whether neither direction is present.
func (d DirectionSet) Empty() bool {
	return !d.Buy && !d.Sell
}

// Single returns the only direction in the set, if there is exactly one.
func (d DirectionSet) Single() (Direction, bool) {
	switch {
	case d.Buy && !d.Sell:
		return DirectionBuy, true
	case d.Sell && !d.Buy:
		return DirectionSell, true
	}
	return "", false
}

func (d DirectionSet) String() string {
	var parts []string
	if d.Buy {
		parts = append(parts, string(DirectionBuy))
	}
	if d.Sell {
		parts = append(parts, string(DirectionSell))
	}
	return strings.Join(parts, "+")
}

// Classification tags a ticker's latest-day signal relative to its previous signal day.
type Classification string

const (
	ClassNew      Classification = "new"
	ClassReversal Classification = "reversal"
)

// Transition is a fresh (non-suppressed) latest-day row.
type Transition struct {
	Event          SignalEvent
	Classification Classification
	Prior          Direction // set only for reversals
}

// SortEvents orders events by date descending, then market, then ticker.
func SortEvents(events []SignalEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if a.Market != b.Market {
			return a.Market < b.Market
		}
		return a.Ticker < b.Ticker
	})
}

// Ticker is a normalized symbol with its market and optional display name.
type Ticker struct {
	Symbol string
	Market Market
	Name   string
}
