package sim

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"binliq/internal/domain"
	"binliq/internal/market"
)

// EventKind classifies a liquidity action recorded during a run.
type EventKind string

const (
	EventRebalance       EventKind = "rebalance"
	EventAddLiquidity    EventKind = "add_liquidity"
	EventRemoveLiquidity EventKind = "remove_liquidity"
)

// RebalanceEvent records one liquidity action taken during a simulation.
// Runs are indexed by simulated day rather than wall-clock time; Day stands
// in for the event's timestamp, and Result.LedgerRecords anchors it to a real
// start time when the run is exported. The Reason tag is human-readable and
// stable enough for tests to assert trigger logic against.
type RebalanceEvent struct {
	Day    int       `json:"day"`
	Kind   EventKind `json:"kind"`
	Amount float64   `json:"amount"`
	Price  float64   `json:"price"`
	Reason string    `json:"reason"`
}

// Result is the complete outcome of one simulation run.
type Result struct {
	Params Params `json:"params"`

	// Values holds the portfolio value per day; length DurationDays+1 with
	// index 0 the initial capital.
	Values []float64 `json:"values"`

	// Returns holds the day-over-day portfolio returns; length DurationDays.
	Returns []float64 `json:"returns"`

	// Prices is the price path the run consumed.
	Prices []float64 `json:"prices"`

	Events  []RebalanceEvent `json:"events"`
	Metrics Metrics          `json:"metrics"`
}

// FinalValue returns the portfolio value at the end of the run.
func (r *Result) FinalValue() float64 { return r.Values[len(r.Values)-1] }

// Simulate runs a single strategy simulation over the given price path. The
// path must contain DurationDays+1 prices (index 0 is day 0); pass nil to
// have a synthetic path generated from the params' seed.
func Simulate(params Params, prices []float64) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if prices == nil {
		seed := params.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		prices = GeneratePriceSeries(100, params.DurationDays, params.RiskTolerance, seed)
	}
	if len(prices) != params.DurationDays+1 {
		return nil, fmt.Errorf("price series has %d points, want %d: %w",
			len(prices), params.DurationDays+1, domain.ErrInsufficientData)
	}

	decide, err := decisionFor(params.Strategy)
	if err != nil {
		return nil, err
	}
	exposure := liquidityExposure[params.Strategy]

	res := &Result{
		Params:  params,
		Values:  make([]float64, 0, params.DurationDays+1),
		Returns: make([]float64, 0, params.DurationDays),
		Prices:  prices,
	}

	value := params.InitialCapital
	res.Values = append(res.Values, value)
	var totalFees float64

	for day := 1; day <= params.DurationDays; day++ {
		priceChange := (prices[day] - prices[day-1]) / prices[day-1]

		decision := decide(DecisionContext{
			Params:         params,
			Day:            day,
			Price:          prices[day],
			PriceChange:    priceChange,
			PortfolioValue: value,
			Prices:         prices,
		})

		if decision.Rebalance {
			// The rebalance fee substitutes for market exposure that day; the
			// price change is deliberately not applied on rebalance days.
			fee := value * rebalanceFeeRate
			totalFees += fee
			value -= fee
			res.Events = append(res.Events, RebalanceEvent{
				Day:    day,
				Kind:   EventRebalance,
				Amount: value,
				Price:  prices[day],
				Reason: decision.Reason,
			})
		} else {
			value *= 1 + priceChange*exposure
		}

		prev := res.Values[len(res.Values)-1]
		res.Returns = append(res.Returns, (value-prev)/prev)
		res.Values = append(res.Values, value)
	}

	res.Metrics, err = ComputeMetrics(res.Returns, res.Values, totalFees, params.InitialCapital, params.DurationDays)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Simulator runs simulations against live pair state: the initial price of
// the synthetic path comes from the market data provider.
type Simulator struct {
	data market.DataProvider
	log  *slog.Logger
}

// NewSimulator creates a Simulator reading market snapshots from the given
// provider.
func NewSimulator(data market.DataProvider, log *slog.Logger) *Simulator {
	if log == nil {
		log = slog.Default()
	}
	return &Simulator{data: data, log: log.With("component", "sim")}
}

// Run executes one simulation for the pair named in the params, seeding the
// synthetic price path at the pair's current market price.
func (s *Simulator) Run(ctx context.Context, params Params) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	md, err := s.data.GetMarketData(ctx, params.PairID)
	if err != nil {
		return nil, err
	}
	seed := params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	prices := GeneratePriceSeries(md.Price, params.DurationDays, params.RiskTolerance, seed)

	res, err := Simulate(params, prices)
	if err != nil {
		return nil, err
	}
	s.log.Info("simulation complete",
		"pair", params.PairID,
		"strategy", params.Strategy,
		"days", params.DurationDays,
		"totalReturn", res.Metrics.TotalReturn,
		"rebalances", len(res.Events))
	return res, nil
}

// RunPath executes one simulation over an explicit historical price path.
func (s *Simulator) RunPath(_ context.Context, params Params, prices []float64) (*Result, error) {
	return Simulate(params, prices)
}
