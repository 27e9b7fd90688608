// Package sim implements the day-by-day strategy simulator: it drives a
// price path through a strategy's rebalance decisions, applies portfolio
// updates and transaction costs, and computes risk-adjusted performance
// metrics.
package sim

import (
	"fmt"

	"binliq/internal/domain"
)

// Params configures one simulation run. A Params value is immutable for the
// life of the run; each run owns its own state and runs are never shared.
type Params struct {
	InitialCapital    float64              `json:"initialCapital"`
	Strategy          domain.StrategyKind  `json:"strategy"`
	DurationDays      int                  `json:"durationDays"`
	RebalanceCheckHrs int                  `json:"rebalanceCheckHours"`
	RiskTolerance     domain.RiskTolerance `json:"riskTolerance"`
	PairID            string               `json:"pairId"`

	// Seed drives the synthetic price generator when no historical path is
	// supplied. Zero means derive one from the current time.
	Seed int64 `json:"seed,omitempty"`
}

// Validate checks the parameter invariants before a run starts.
func (p Params) Validate() error {
	if p.InitialCapital <= 0 {
		return fmt.Errorf("initial capital %v must be positive", p.InitialCapital)
	}
	if p.DurationDays < 1 {
		return fmt.Errorf("duration %d must be at least 1 day", p.DurationDays)
	}
	switch p.Strategy {
	case domain.StrategyPassive, domain.StrategyActive, domain.StrategyMomentum, domain.StrategyMeanReversion:
	default:
		return fmt.Errorf("unknown strategy %q", p.Strategy)
	}
	switch p.RiskTolerance {
	case domain.RiskLow, domain.RiskMedium, domain.RiskHigh:
	default:
		return fmt.Errorf("unknown risk tolerance %q", p.RiskTolerance)
	}
	return nil
}
