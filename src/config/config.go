// Package config reads the scanner's settings from environment variables,
// optionally seeded from a .env file at the project root.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds every runtime setting.
type Config struct {
	UniverseFile   string // SCAN_UNIVERSE_FILE
	Tickers        string // SCAN_TICKERS, free text overriding the file's lists
	LookbackDays   int    // SCAN_LOOKBACK_DAYS
	HistoryRange   string // SCAN_HISTORY_RANGE
	Workers        int    // SCAN_WORKERS
	Provider       string // SCAN_PROVIDER: yahoo or csv
	CSVDir         string // SCAN_CSV_DIR
	YahooBaseURL   string // YAHOO_BASE_URL
	OutputCSV      string // SCAN_OUTPUT_CSV
	TransitionsCSV string // SCAN_TRANSITIONS_CSV
	TUI            bool   // SCAN_TUI
	TelegramToken  string // TELEGRAM_BOT_TOKEN
	TelegramChatID string // TELEGRAM_CHAT_ID
	MetricsAddr    string // METRICS_ADDR
	MetricsPushURL string // METRICS_PUSH_URL
	LogLevel       string // LOG_LEVEL
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		UniverseFile: "universe.yaml",
		LookbackDays: 10,
		HistoryRange: "6mo",
		Workers:      8,
		Provider:     "yahoo",
		CSVDir:       "data",
		LogLevel:     "info",
	}
}

// LoadEnvFile loads .env from the nearest directory holding go.mod. A missing
// .env is fine and the process environment is used as is. A malformed one is
// an error.
func LoadEnvFile() error {
	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	rootDir := workDir
	for {
		if _, err := os.Stat(filepath.Join(rootDir, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(rootDir)
		if parent == rootDir {
			return fmt.Errorf("project root (go.mod) not found")
		}
		rootDir = parent
	}

	envPath := filepath.Join(rootDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", envPath, err)
	}
	return nil
}

// FromEnv overlays environment variables on Default. Values that fail to
// parse are logged and the default is kept.
func FromEnv(log zerolog.Logger) Config {
	cfg := Default()

	setString(&cfg.UniverseFile, "SCAN_UNIVERSE_FILE")
	setString(&cfg.Tickers, "SCAN_TICKERS")
	setString(&cfg.HistoryRange, "SCAN_HISTORY_RANGE")
	setString(&cfg.Provider, "SCAN_PROVIDER")
	setString(&cfg.CSVDir, "SCAN_CSV_DIR")
	setString(&cfg.YahooBaseURL, "YAHOO_BASE_URL")
	setString(&cfg.OutputCSV, "SCAN_OUTPUT_CSV")
	setString(&cfg.TransitionsCSV, "SCAN_TRANSITIONS_CSV")
	setString(&cfg.TelegramToken, "TELEGRAM_BOT_TOKEN")
	setString(&cfg.TelegramChatID, "TELEGRAM_CHAT_ID")
	setString(&cfg.MetricsAddr, "METRICS_ADDR")
	setString(&cfg.MetricsPushURL, "METRICS_PUSH_URL")
	setString(&cfg.LogLevel, "LOG_LEVEL")

	setPositiveInt(log, &cfg.LookbackDays, "SCAN_LOOKBACK_DAYS")
	setPositiveInt(log, &cfg.Workers, "SCAN_WORKERS")

	if v := os.Getenv("SCAN_TUI"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.TUI = b
		} else {
			log.Warn().Str("key", "SCAN_TUI").Str("value", v).Msg("cannot parse bool, using default")
		}
	}

	switch cfg.Provider {
	case "yahoo", "csv":
	default:
		log.Warn().Str("key", "SCAN_PROVIDER").Str("value", cfg.Provider).Msg("unknown provider, using yahoo")
		cfg.Provider = "yahoo"
	}
	return cfg
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setPositiveInt(log zerolog.Logger, dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Warn().Str("key", key).Str("value", v).Int("default", *dst).Msg("cannot parse positive int, using default")
		return
	}
	*dst = n
}
