package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"binliq/internal/config"
	"binliq/internal/feed"
	"binliq/internal/store"
	"binliq/internal/util"
)

func main() {
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols to fetch (overrides config)")
	startFlag := flag.String("start", "", "start date YYYY-MM-DD (overrides config)")
	endFlag := flag.String("end", "", "end date YYYY-MM-DD (default today)")
	flag.Parse()

	cfgPath := "config/binliq.yaml"
	if p := os.Getenv("BINLIQ_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	symbols := cfg.Fetch.Symbols
	if *symbolsFlag != "" {
		symbols = strings.Split(*symbolsFlag, ",")
	}
	if len(symbols) == 0 {
		log.Fatal("no symbols configured; set fetch.symbols or -symbols")
	}

	startDate := cfg.Fetch.StartDate
	if *startFlag != "" {
		startDate = *startFlag
	}
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		log.Fatalf("invalid start date %q: %v", startDate, err)
	}

	end := time.Now().UTC().Truncate(24 * time.Hour)
	if *endFlag != "" {
		if end, err = time.Parse("2006-01-02", *endFlag); err != nil {
			log.Fatalf("invalid end date %q: %v", *endFlag, err)
		}
	}

	pstore := store.NewParquetStore(cfg.Storage.DataDir)
	fetcher := feed.NewAlpacaFetcher(
		cfg.Alpaca.APIKey,
		cfg.Alpaca.APISecret,
		cfg.Alpaca.BaseURL,
		pstore,
		cfg.Fetch.RateLimitPerMin,
		cfg.Fetch.MaxAttempts,
		logger,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting binliq-fetch", "symbols", symbols, "start", start.Format("2006-01-02"), "end", end.Format("2006-01-02"))
	if err := fetcher.FetchDailyBars(ctx, symbols, start, end); err != nil {
		log.Fatalf("fetch error: %v", err)
	}
}
