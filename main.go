package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"macd-scan-go/src/config"
	"macd-scan-go/src/export"
	"macd-scan-go/src/metrics"
	"macd-scan-go/src/models"
	"macd-scan-go/src/notify"
	"macd-scan-go/src/provider"
	"macd-scan-go/src/scanner"
	"macd-scan-go/src/transition"
	"macd-scan-go/src/tui"
	"macd-scan-go/src/universe"
	"macd-scan-go/src/util"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

func main() {
	envErr := config.LoadEnvFile()

	log := util.NewLogger(os.Getenv("LOG_LEVEL"))
	if envErr != nil {
		log.Warn().Err(envErr).Msg("failed to load .env, using process environment")
	}
	cfg := config.FromEnv(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("received stop signal, shutting down")
		cancel()
	}()

	if cfg.MetricsAddr != "" {
		srv := metrics.Serve(cfg.MetricsAddr)
		defer srv.Close()
		log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
	}

	runErr := run(ctx, cfg, log)
	if cfg.MetricsPushURL != "" {
		if err := metrics.Push(context.Background(), cfg.MetricsPushURL, "macd_scan"); err != nil {
			log.Warn().Err(err).Msg("metrics push failed")
		}
	}
	if runErr != nil {
		log.Error().Err(runErr).Msg("scan failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	u, err := loadUniverse(cfg, log)
	if err != nil {
		return err
	}
	if len(u.Tickers) == 0 {
		return errors.New("ticker universe is empty")
	}

	var source provider.HistoryProvider
	switch cfg.Provider {
	case "csv":
		source = provider.NewCSVDir(cfg.CSVDir)
	default:
		source = provider.NewYahooClient(cfg.YahooBaseURL)
	}

	sc := scanner.NewScanner(source, scanner.Config{
		LookbackDays: cfg.LookbackDays,
		HistoryRange: cfg.HistoryRange,
		Workers:      cfg.Workers,
	}, log)

	report, err := sc.Run(ctx, u.Tickers)
	if err != nil {
		return err
	}

	fresh := transition.Classify(report.Events)
	for _, t := range fresh {
		metrics.TransitionsTotal.WithLabelValues(string(t.Classification)).Inc()
	}

	if err := writeExports(cfg, report.Events, fresh, u.Name); err != nil {
		return err
	}

	notifier := notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
	if report.NoData() {
		if err := notifier.SendErrorNotification(ctx, "Signal scan", "no price data available for any ticker"); err != nil {
			log.Warn().Err(err).Msg("telegram notification failed")
		}
	} else if err := notifier.SendTransitions(ctx, fresh, u.Name); err != nil {
		log.Warn().Err(err).Msg("telegram notification failed")
	}

	freshRows := tui.TransitionRows(fresh, u.Name)
	allRows := tui.EventRows(report.Events, u.Name)
	if cfg.TUI {
		_, err := tea.NewProgram(tui.NewModel(report, freshRows, allRows), tea.WithAltScreen()).Run()
		return err
	}

	printReport(report, freshRows, allRows)
	return nil
}

func loadUniverse(cfg config.Config, log zerolog.Logger) (*universe.Universe, error) {
	u, err := universe.Load(cfg.UniverseFile)
	if err != nil {
		if cfg.Tickers == "" {
			return nil, err
		}
		log.Warn().Err(err).Msg("universe file unavailable, names will not be resolved")
		u, _ = universe.New(universe.File{})
	}
	if cfg.Tickers == "" {
		return u, nil
	}

	parsed, rejected := u.Parse(cfg.Tickers)
	if len(rejected) > 0 {
		log.Warn().Strs("tokens", rejected).Msg("ignored unrecognized tickers")
	}
	return parsed, nil
}

func writeExports(cfg config.Config, events []models.SignalEvent, fresh []models.Transition, name export.NameFunc) error {
	if cfg.OutputCSV != "" {
		if err := writeFile(cfg.OutputCSV, func(f *os.File) error {
			return export.WriteEvents(f, events, name)
		}); err != nil {
			return err
		}
	}
	if cfg.TransitionsCSV != "" {
		if err := writeFile(cfg.TransitionsCSV, func(f *os.File) error {
			return export.WriteTransitions(f, fresh, name)
		}); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func printReport(report scanner.Report, freshRows, allRows [][]string) {
	fmt.Println("\n=== New signals (latest day) ===")
	if len(freshRows) == 0 {
		fmt.Println("none")
	} else {
		fmt.Print(tui.RenderTable(tui.TransitionHeader, freshRows))
	}

	fmt.Println("\n=== All events ===")
	switch {
	case report.NoData():
		fmt.Println("no data available: every ticker was skipped")
	case len(allRows) == 0:
		fmt.Println("no signals found")
	default:
		fmt.Print(tui.RenderTable(tui.EventHeader, allRows))
	}

	fmt.Printf("\n%d tickers scanned, %d events, %d skipped (run %s, %s)\n",
		report.Scanned, len(report.Events), len(report.Skipped), report.RunID, report.Elapsed)
}
