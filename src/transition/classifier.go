// Package transition decides, for each ticker's latest signal day, whether the
// directional call is new, a reversal, or a continuation to suppress.
package transition

import (
	"sort"
	"time"

	"macd-scan-go/src/models"
)

type tickerKey struct {
	market models.Market
	symbol string
}

// Classify compares every ticker's events on its market's latest date with
// the ticker's previous event date. Continuations (identical direction sets)
// are dropped; the rest are returned ordered by market then ticker.
func Classify(events []models.SignalEvent) []models.Transition {
	latest := make(map[models.Market]time.Time)
	byTicker := make(map[tickerKey][]models.SignalEvent)
	for _, ev := range events {
		if ev.Date.After(latest[ev.Market]) {
			latest[ev.Market] = ev.Date
		}
		key := tickerKey{market: ev.Market, symbol: ev.Ticker}
		byTicker[key] = append(byTicker[key], ev)
	}

	keys := make([]tickerKey, 0, len(byTicker))
	for key := range byTicker {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].market != keys[j].market {
			return keys[i].market < keys[j].market
		}
		return keys[i].symbol < keys[j].symbol
	})

	var out []models.Transition
	for _, key := range keys {
		current, prev, ok := latestPair(byTicker[key], latest[key.market])
		if !ok {
			continue
		}
		t, fresh := classify(current, prev)
		if fresh {
			out = append(out, t)
		}
	}
	return out
}

// latestPair merges the ticker's events on day into one event and finds the
// merged event of its most recent earlier date, if any.
func latestPair(events []models.SignalEvent, day time.Time) (models.SignalEvent, *models.SignalEvent, bool) {
	var current *models.SignalEvent
	var prevDate time.Time
	for i := range events {
		ev := events[i]
		switch {
		case ev.Date.Equal(day):
			current = merge(current, ev)
		case ev.Date.Before(day) && ev.Date.After(prevDate):
			prevDate = ev.Date
		}
	}
	if current == nil {
		return models.SignalEvent{}, nil, false
	}
	if prevDate.IsZero() {
		return *current, nil, true
	}

	var prev *models.SignalEvent
	for _, ev := range events {
		if ev.Date.Equal(prevDate) {
			prev = merge(prev, ev)
		}
	}
	return *current, prev, true
}

func merge(into *models.SignalEvent, ev models.SignalEvent) *models.SignalEvent {
	if into == nil {
		ev.Labels = append([]string(nil), ev.Labels...)
		return &ev
	}
	for _, label := range ev.Labels {
		if !contains(into.Labels, label) {
			into.Labels = append(into.Labels, label)
		}
	}
	return into
}

func contains(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}

func classify(current models.SignalEvent, prev *models.SignalEvent) (models.Transition, bool) {
	t := models.Transition{Event: current, Classification: models.ClassNew}
	if prev == nil {
		return t, true
	}

	currentDirs, prevDirs := current.Directions(), prev.Directions()
	if currentDirs == prevDirs {
		return models.Transition{}, false
	}

	cur, curSingle := currentDirs.Single()
	before, prevSingle := prevDirs.Single()
	if curSingle && prevSingle && cur != before {
		t.Classification = models.ClassReversal
		t.Prior = before
	}
	return t, true
}
