package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"binliq/internal/backtest"
	"binliq/internal/config"
	"binliq/internal/domain"
	"binliq/internal/httpapi"
	"binliq/internal/market"
	"binliq/internal/orders"
	"binliq/internal/sim"
	"binliq/internal/store"
	"binliq/internal/util"
)

// defaultPairs seeds the static market provider. Prices move only through
// explicit updates; the server has no live on-chain feed.
var defaultPairs = []domain.PairInfo{
	{ID: "SOL/USDC", BaseMint: "So11111111111111111111111111111111111111112", QuoteMint: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", BinStepBps: 25, ActivePrice: 140, MinBinID: -400, MaxBinID: 400},
	{ID: "ETH/USDC", BaseMint: "7vfCXTUXx5WJV5JADk17DUJ4ksgau7utNKj4b963voxs", QuoteMint: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", BinStepBps: 10, ActivePrice: 3200, MinBinID: -600, MaxBinID: 600},
	{ID: "BTC/USDC", BaseMint: "3NZ9JMVBmGAqocybic2c7LQCJScmgsAZ6vQqTDzcqmJh", QuoteMint: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", BinStepBps: 10, ActivePrice: 96000, MinBinID: -600, MaxBinID: 600},
}

func main() {
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

	var orderStore store.OrderStore
	if cfg.Storage.SQLitePath != "" {
		ss, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("failed to open sqlite store: %v", err)
		}
		defer ss.Close()
		orderStore = ss
		logger.Info("using sqlite order store", "path", cfg.Storage.SQLitePath)
	} else {
		orderStore = store.NewMemoryStore()
		logger.Info("using in-memory order store")
	}

	provider := market.NewStaticProvider()
	for _, pair := range defaultPairs {
		provider.RegisterPair(pair)
	}

	engine := orders.NewEngine(provider, orderStore, logger)
	simulator := sim.NewSimulator(provider, logger)
	comparator := backtest.NewComparator(simulator, logger)
	api := httpapi.NewServer(engine, simulator, comparator, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("binliq-server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
