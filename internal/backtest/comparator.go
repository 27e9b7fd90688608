// Package backtest runs several strategy simulations over a common setup and
// ranks the outcomes.
package backtest

import (
	"context"
	"fmt"
	"log/slog"

	"binliq/internal/domain"
	"binliq/internal/sim"
)

// BenchmarkName labels the buy-and-hold benchmark in reports.
const BenchmarkName = "buy_and_hold"

// Run names one candidate configuration. An empty Name defaults to the
// strategy tag.
type Run struct {
	Name   string     `json:"name"`
	Params sim.Params `json:"params"`
}

func (r Run) label() string {
	if r.Name != "" {
		return r.Name
	}
	return string(r.Params.Strategy)
}

// RunResult is one candidate's outcome within a report.
type RunResult struct {
	Name       string      `json:"name"`
	FinalValue float64     `json:"finalValue"`
	Metrics    sim.Metrics `json:"metrics"`
	Rebalances int         `json:"rebalances"`

	Result *sim.Result `json:"-"`
}

// Report ranks the candidates of one backtest. Best and Worst compare raw
// total return; RiskAdjusted compares Sharpe ratio. The benchmark, when
// present, is reported alongside but never ranked.
type Report struct {
	Runs         []RunResult `json:"runs"`
	Benchmark    *RunResult  `json:"benchmark,omitempty"`
	Best         string      `json:"bestStrategy"`
	Worst        string      `json:"worstStrategy"`
	RiskAdjusted string      `json:"riskAdjustedWinner"`
}

// Compare simulates every run sequentially and ranks the results. Each run
// owns its own state; nothing is shared between them. When prices is non-nil
// every run consumes that same path (and it must match every run's duration);
// when nil each run generates its own seeded synthetic path. withBenchmark
// adds a closed-form buy-and-hold result computed from the first run's price
// path and initial capital.
func Compare(runs []Run, prices []float64, withBenchmark bool) (*Report, error) {
	if len(runs) == 0 {
		return nil, fmt.Errorf("backtest needs at least one run: %w", domain.ErrInsufficientData)
	}

	report := &Report{Runs: make([]RunResult, 0, len(runs))}
	for _, run := range runs {
		res, err := sim.Simulate(run.Params, prices)
		if err != nil {
			return nil, fmt.Errorf("run %q: %w", run.label(), err)
		}
		report.Runs = append(report.Runs, RunResult{
			Name:       run.label(),
			FinalValue: res.FinalValue(),
			Metrics:    res.Metrics,
			Rebalances: len(res.Events),
			Result:     res,
		})
	}

	if withBenchmark {
		first := report.Runs[0].Result
		bench, err := BuyAndHold(first.Prices, runs[0].Params.InitialCapital, runs[0].Params.DurationDays)
		if err != nil {
			return nil, err
		}
		report.Benchmark = bench
	}

	report.rank()
	return report, nil
}

// rank fills the Best, Worst, and RiskAdjusted fields. Comparisons are a
// strict > left-fold, so the earliest candidate wins ties.
func (r *Report) rank() {
	best, worst, sharpe := 0, 0, 0
	for i := 1; i < len(r.Runs); i++ {
		if r.Runs[i].Metrics.TotalReturn > r.Runs[best].Metrics.TotalReturn {
			best = i
		}
		if r.Runs[worst].Metrics.TotalReturn > r.Runs[i].Metrics.TotalReturn {
			worst = i
		}
		if r.Runs[i].Metrics.SharpeRatio > r.Runs[sharpe].Metrics.SharpeRatio {
			sharpe = i
		}
	}
	r.Best = r.Runs[best].Name
	r.Worst = r.Runs[worst].Name
	r.RiskAdjusted = r.Runs[sharpe].Name
}

// BuyAndHold computes the benchmark in closed form: the final value is the
// initial capital scaled by the path's end-to-start price ratio, and the
// value series is a straight line between the two. No simulation loop runs
// and no fees apply.
func BuyAndHold(prices []float64, initialCapital float64, durationDays int) (*RunResult, error) {
	if len(prices) < 2 || prices[0] == 0 {
		return nil, fmt.Errorf("benchmark path has %d points: %w", len(prices), domain.ErrInsufficientData)
	}

	final := initialCapital * prices[len(prices)-1] / prices[0]
	days := len(prices) - 1

	values := make([]float64, days+1)
	returns := make([]float64, days)
	for i := 0; i <= days; i++ {
		values[i] = initialCapital + (final-initialCapital)*float64(i)/float64(days)
	}
	for i := 1; i <= days; i++ {
		returns[i-1] = (values[i] - values[i-1]) / values[i-1]
	}

	metrics, err := sim.ComputeMetrics(returns, values, 0, initialCapital, durationDays)
	if err != nil {
		return nil, fmt.Errorf("benchmark metrics: %w", err)
	}
	return &RunResult{
		Name:       BenchmarkName,
		FinalValue: final,
		Metrics:    metrics,
	}, nil
}

// Comparator runs backtests against live pair state, seeding every candidate
// with the same synthetic path so they compete on equal footing.
type Comparator struct {
	sim *sim.Simulator
	log *slog.Logger
}

// NewComparator creates a Comparator backed by the given simulator.
func NewComparator(s *sim.Simulator, log *slog.Logger) *Comparator {
	if log == nil {
		log = slog.Default()
	}
	return &Comparator{sim: s, log: log.With("component", "backtest")}
}

// Run executes one backtest. All candidates must target the same pair and
// duration; the shared price path is seeded at the pair's current market
// price using the first run's seed and risk tolerance.
func (c *Comparator) Run(ctx context.Context, runs []Run, withBenchmark bool) (*Report, error) {
	if len(runs) == 0 {
		return nil, fmt.Errorf("backtest needs at least one run: %w", domain.ErrInsufficientData)
	}
	for _, run := range runs[1:] {
		if run.Params.PairID != runs[0].Params.PairID {
			return nil, fmt.Errorf("backtest runs span pairs %q and %q: %w",
				runs[0].Params.PairID, run.Params.PairID, domain.ErrInvalidState)
		}
		if run.Params.DurationDays != runs[0].Params.DurationDays {
			return nil, fmt.Errorf("backtest runs span durations %d and %d: %w",
				runs[0].Params.DurationDays, run.Params.DurationDays, domain.ErrInvalidState)
		}
	}

	base, err := c.sim.Run(ctx, runs[0].Params)
	if err != nil {
		return nil, err
	}

	report, err := Compare(runs, base.Prices, withBenchmark)
	if err != nil {
		return nil, err
	}
	c.log.Info("backtest complete",
		"pair", runs[0].Params.PairID,
		"candidates", len(runs),
		"best", report.Best,
		"riskAdjusted", report.RiskAdjusted)
	return report, nil
}
