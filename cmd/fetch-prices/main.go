package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"tariff-backtest/internal/config"
	"tariff-backtest/internal/data"
	"tariff-backtest/internal/logging"
)

func main() {
	var (
		cfgPath    = flag.String("config", "", "Optional YAML config (prices.base_url, prices.timeout, csv.timezone)")
		year       = flag.Int("year", time.Now().Year()-1, "Calendar year to download")
		outputPath = flag.String("out", "", "Output CSV path (default: ./data/prices_<year>.csv)")
		tz         = flag.String("tz", "", "Timezone of the calendar year (default: csv.timezone or UTC)")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: os.Stderr})

	if err := run(cfg, logger, *year, *outputPath, *tz); err != nil {
		logger.Error("fetch failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, year int, outputPath, tz string) error {
	if tz == "" {
		tz = cfg.CSV.Timezone
	}
	loc := time.UTC
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return err
		}
		loc = l
	}
	if outputPath == "" {
		outputPath = filepath.Join("data", fmt.Sprintf("prices_%d.csv", year))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := data.NewDayAheadClient(cfg.Prices.BaseURL, cfg.Prices.Timeout, nil, logger)

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(1, 0, 0)
	logger.Info("downloading day-ahead prices", slog.Int("year", year), slog.String("tz", loc.String()))

	samples, err := client.FetchRange(ctx, start, end)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := data.WritePrices(f, samples, loc); err != nil {
		return err
	}
	logger.Info("saved prices", slog.Int("samples", len(samples)), slog.String("path", outputPath))
	return nil
}
