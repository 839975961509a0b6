package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	TickersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scan_tickers_total", Help: "Tickers processed by outcome"},
		[]string{"market", "outcome"},
	)
	EventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scan_signal_labels_total", Help: "Detector labels emitted"},
		[]string{"label"},
	)
	TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "scan_transitions_total", Help: "Fresh latest-day signals by classification"},
		[]string{"classification"},
	)
	ScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "scan_duration_seconds", Help: "Wall time of a full universe scan"},
	)
)

func init() {
	prometheus.MustRegister(TickersTotal, EventsTotal, TransitionsTotal, ScanDuration)
}

// Serve exposes /metrics on addr in the background. A one-shot scan exits
// right after reporting, so this is only scrapeable while the viewer is open.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

// Push sends the current counters to a Pushgateway under job, replacing the
// job's previous group. Used at the end of a run.
func Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(prometheus.DefaultGatherer).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", url, err)
	}
	return nil
}
