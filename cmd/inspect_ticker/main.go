// inspect_ticker fetches one ticker and prints its latest bars with the
// indicator values, the histogram blocks of the last window, and every bar
// where a detector fired. Useful when a scan result looks wrong.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"macd-scan-go/src/config"
	"macd-scan-go/src/indicators"
	"macd-scan-go/src/models"
	"macd-scan-go/src/provider"
	"macd-scan-go/src/scanner"
	"macd-scan-go/src/strategy"
	"macd-scan-go/src/universe"
	"macd-scan-go/src/util"
)

func main() {
	rows := flag.Int("rows", 15, "number of trailing bars to print")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: inspect_ticker [-rows N] <ticker>")
		os.Exit(2)
	}

	if err := config.LoadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	log := util.NewLogger(os.Getenv("LOG_LEVEL"))
	cfg := config.FromEnv(log)

	ticker, ok := universe.ParseToken(flag.Arg(0))
	if !ok {
		fmt.Fprintf(os.Stderr, "not a ticker: %q\n", flag.Arg(0))
		os.Exit(2)
	}

	var source provider.HistoryProvider = provider.NewYahooClient(cfg.YahooBaseURL)
	if cfg.Provider == "csv" {
		source = provider.NewCSVDir(cfg.CSVDir)
	}

	bars, err := source.History(context.Background(), ticker.Symbol, cfg.HistoryRange)
	if err != nil {
		log.Fatal().Err(err).Str("ticker", ticker.Symbol).Msg("fetch failed")
	}
	fmt.Printf("%s (%s): %d bars %s .. %s\n", ticker.Symbol, ticker.Market, len(bars),
		bars[0].Date.Format(models.DateLayout), bars[len(bars)-1].Date.Format(models.DateLayout))
	if len(bars) < scanner.MinBars {
		fmt.Printf("fewer than %d bars: a scan would skip this ticker\n", scanner.MinBars)
	}

	series := indicators.NewCalculator().Series(bars)
	start := len(bars) - *rows
	if start < 0 {
		start = 0
	}

	fmt.Printf("\n%-10s %10s %10s %10s %10s %7s\n", "Date", "Close", "MACD", "Signal", "Hist", "RSI")
	for i := start; i < len(bars); i++ {
		snap := series.Indicators[i]
		fmt.Printf("%-10s %10.2f %10.4f %10.4f %10.4f %7.2f\n",
			bars[i].Date.Format(models.DateLayout), bars[i].Close, snap.MACD, snap.Signal, snap.Hist, snap.RSI)
	}

	last := len(bars) - 1
	windowStart := last - (indicators.BlockWindow - 1)
	if windowStart < 0 {
		windowStart = 0
	}
	hist := series.Hist()[windowStart:]
	macd := series.MACD()[windowStart:]
	fmt.Println("\nHistogram blocks (oldest first):")
	for _, b := range indicators.SegmentBlocks(hist) {
		fmt.Printf("  sign %+d  %s .. %s  len %3d  macd low %.4f\n", b.Sign,
			bars[windowStart+b.Start].Date.Format(models.DateLayout),
			bars[windowStart+b.End].Date.Format(models.DateLayout),
			b.Len, indicators.BlockMin(macd, b))
	}

	fmt.Println("\nDetector hits over the whole history:")
	hits := scanner.ScanSeries(series, ticker, len(bars), strategy.DefaultDetectors())
	if len(hits) == 0 {
		fmt.Println("  none")
	}
	for _, ev := range hits {
		fmt.Printf("  %s %10.2f  %s\n", ev.Day(), ev.Price, ev.SignalText())
	}
}
