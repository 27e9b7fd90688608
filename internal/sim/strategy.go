package sim

import (
	"fmt"

	"binliq/internal/domain"
	"binliq/internal/liquidity"
)

// simMomentumShiftDivisor is the simulator's momentum shift distance,
// floor(width/3). The standalone generator in the liquidity package divides
// by 4; the two are intentionally kept distinct — unifying them would
// silently change simulated outcomes.
const simMomentumShiftDivisor = 3

// rebalanceFeeRate is the proportional cost of withdrawing and re-placing
// liquidity, applied to the full portfolio value.
const rebalanceFeeRate = 0.003

// liquidityExposure is the fraction of LP capital that moves with price for
// each strategy. LP capital is never 100% directionally exposed.
var liquidityExposure = map[domain.StrategyKind]float64{
	domain.StrategyPassive:       0.80,
	domain.StrategyActive:        0.90,
	domain.StrategyMomentum:      0.85,
	domain.StrategyMeanReversion: 0.75,
}

// passiveWidth sizes the centered curve by risk tolerance.
var passiveWidth = map[domain.RiskTolerance]int{
	domain.RiskLow:    5,
	domain.RiskMedium: 7,
	domain.RiskHigh:   9,
}

// activeWidth sizes the volatility-adjusted curve by risk tolerance.
var activeWidth = map[domain.RiskTolerance]int{
	domain.RiskLow:    3,
	domain.RiskMedium: 5,
	domain.RiskHigh:   7,
}

// activeThreshold is the absolute daily price change that triggers an
// active-strategy rebalance.
var activeThreshold = map[domain.RiskTolerance]float64{
	domain.RiskLow:    0.01,
	domain.RiskMedium: 0.02,
	domain.RiskHigh:   0.03,
}

// Momentum lookbacks and trigger.
const (
	momentumShortDays = 5
	momentumLongDays  = 20
	momentumMinReturn = 0.02
)

// Mean-reversion windows and trigger.
const (
	meanRevShortWindow  = 5
	meanRevLongWindow   = 15
	meanRevMinHistory   = 10
	meanRevMinDeviation = 0.05
)

// DecisionContext is what a strategy sees on one simulated day.
type DecisionContext struct {
	Params         Params
	Day            int // 1-indexed simulation day
	Price          float64
	PriceChange    float64 // day-over-day relative change
	PortfolioValue float64
	Prices         []float64 // the full price series, index 0 = day 0
}

// Decision is a strategy's answer for one day.
type Decision struct {
	Rebalance    bool
	Distribution liquidity.Distribution
	Reason       string
}

// DecisionFunc decides whether to rebalance on a given day.
type DecisionFunc func(ctx DecisionContext) Decision

// decisionFor returns the decision function for a strategy kind.
func decisionFor(kind domain.StrategyKind) (DecisionFunc, error) {
	switch kind {
	case domain.StrategyPassive:
		return decidePassive, nil
	case domain.StrategyActive:
		return decideActive, nil
	case domain.StrategyMomentum:
		return decideMomentum, nil
	case domain.StrategyMeanReversion:
		return decideMeanReversion, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", kind)
	}
}

// decidePassive rebalances on a weekly cadence regardless of price action.
func decidePassive(ctx DecisionContext) Decision {
	if ctx.Day%7 != 0 {
		return Decision{}
	}
	width := passiveWidth[ctx.Params.RiskTolerance]
	return Decision{
		Rebalance:    true,
		Distribution: liquidity.Centered(width),
		Reason:       "weekly rebalance",
	}
}

// decideActive rebalances whenever the daily move exceeds the risk
// tolerance's volatility threshold, concentrating liquidity with a
// volatility-adjusted curve.
func decideActive(ctx DecisionContext) Decision {
	threshold := activeThreshold[ctx.Params.RiskTolerance]
	if abs(ctx.PriceChange) <= threshold {
		return Decision{}
	}
	width := activeWidth[ctx.Params.RiskTolerance]
	return Decision{
		Rebalance:    true,
		Distribution: liquidity.VolatilityAdjusted(width, abs(ctx.PriceChange)),
		Reason:       fmt.Sprintf("price moved %.2f%%, above %.2f%% threshold", ctx.PriceChange*100, threshold*100),
	}
}

// decideMomentum follows the trend: it rebalances when the trailing 5-day
// return beats the trailing 20-day return and is itself above 2%, shifting
// the curve toward the move by floor(width/3) bins.
func decideMomentum(ctx DecisionContext) Decision {
	if ctx.Day < momentumShortDays {
		return Decision{}
	}
	shortRet := trailingReturn(ctx.Prices, ctx.Day, momentumShortDays)
	longRet := trailingReturn(ctx.Prices, ctx.Day, momentumLongDays)
	if shortRet <= longRet || shortRet <= momentumMinReturn {
		return Decision{}
	}

	width := passiveWidth[ctx.Params.RiskTolerance]
	shift := liquidity.Sign(shortRet) * (width / simMomentumShiftDivisor)
	return Decision{
		Rebalance:    true,
		Distribution: liquidity.Shifted(liquidity.Centered(width), shift),
		Reason:       fmt.Sprintf("momentum: 5d return %.2f%% above 20d %.2f%%", shortRet*100, longRet*100),
	}
}

// decideMeanReversion bets against stretched moves: when the trailing 5-day
// mean deviates more than 5% from the mean of the preceding 15-day window,
// it shifts the curve opposite the deviation.
func decideMeanReversion(ctx DecisionContext) Decision {
	if ctx.Day < meanRevMinHistory {
		return Decision{}
	}

	shortStart := ctx.Day - meanRevShortWindow + 1
	shortMean := mean(ctx.Prices[shortStart : ctx.Day+1])

	longStart := shortStart - meanRevLongWindow
	if longStart < 0 {
		longStart = 0
	}
	longMean := mean(ctx.Prices[longStart:shortStart])
	if longMean == 0 {
		return Decision{}
	}

	deviation := (shortMean - longMean) / longMean
	if abs(deviation) <= meanRevMinDeviation {
		return Decision{}
	}

	width := passiveWidth[ctx.Params.RiskTolerance]
	return Decision{
		Rebalance:    true,
		Distribution: liquidity.MeanReversion(width, deviation),
		Reason:       fmt.Sprintf("mean reversion: 5d mean deviates %.2f%% from baseline", deviation*100),
	}
}

// trailingReturn computes the relative return over the trailing n days
// ending at day, clamping the lookback to the start of the series.
func trailingReturn(prices []float64, day, n int) float64 {
	start := day - n
	if start < 0 {
		start = 0
	}
	if prices[start] == 0 {
		return 0
	}
	return (prices[day] - prices[start]) / prices[start]
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
