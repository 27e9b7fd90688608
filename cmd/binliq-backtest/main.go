package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"binliq/internal/backtest"
	"binliq/internal/config"
	"binliq/internal/domain"
	"binliq/internal/feed"
	"binliq/internal/sim"
	"binliq/internal/store"
	"binliq/internal/util"
)

func main() {
	pairFlag := flag.String("pair", "SOL/USD", "trading pair identifier")
	capitalFlag := flag.Float64("capital", 10000, "initial capital")
	daysFlag := flag.Int("days", 30, "simulation duration in days")
	riskFlag := flag.String("risk", "medium", "risk tolerance: low|medium|high")
	strategiesFlag := flag.String("strategies", "passive,active,momentum,mean_reversion", "comma-separated strategies to compare")
	seedFlag := flag.Int64("seed", 42, "synthetic price path seed")
	startPriceFlag := flag.Float64("start-price", 100, "synthetic path start price")
	benchmarkFlag := flag.Bool("benchmark", true, "include buy-and-hold benchmark")
	historicalFlag := flag.Bool("historical", false, "use stored daily closes instead of a synthetic path")
	ledgerFlag := flag.Bool("ledger", false, "export the best run's daily ledger to the parquet store")
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

	risk := domain.RiskTolerance(*riskFlag)
	var runs []backtest.Run
	for _, name := range strings.Split(*strategiesFlag, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		runs = append(runs, backtest.Run{
			Name: name,
			Params: sim.Params{
				InitialCapital:    *capitalFlag,
				Strategy:          domain.StrategyKind(name),
				DurationDays:      *daysFlag,
				RebalanceCheckHrs: 24,
				RiskTolerance:     risk,
				PairID:            *pairFlag,
				Seed:              *seedFlag,
			},
		})
	}
	if len(runs) == 0 {
		log.Fatal("no strategies given")
	}

	ctx := context.Background()
	pstore := store.NewParquetStore(cfg.Storage.DataDir)

	// All candidates consume the same path so they compete on equal footing.
	var prices []float64
	if *historicalFlag {
		prices, err = feed.LoadClosePath(ctx, pstore, *pairFlag, time.Now().UTC(), *daysFlag)
		if err != nil {
			log.Fatalf("loading historical path: %v", err)
		}
	} else {
		prices = sim.GeneratePriceSeries(*startPriceFlag, *daysFlag, risk, *seedFlag)
	}

	report, err := backtest.Compare(runs, prices, *benchmarkFlag)
	if err != nil {
		log.Fatalf("backtest error: %v", err)
	}

	if *ledgerFlag {
		best := bestRun(report)
		runID := uuid.NewString()
		rows := best.Result.LedgerRecords(time.Now().UTC().AddDate(0, 0, -*daysFlag))
		if err := pstore.WriteLedger(ctx, runID, rows); err != nil {
			log.Fatalf("writing ledger: %v", err)
		}
		logger.Info("ledger exported", "run", best.Name, "runId", runID, "rows", len(rows))
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatalf("encoding report: %v", err)
	}
	fmt.Println(string(out))
}

func bestRun(report *backtest.Report) backtest.RunResult {
	for _, run := range report.Runs {
		if run.Name == report.Best {
			return run
		}
	}
	return report.Runs[0]
}
