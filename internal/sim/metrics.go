package sim

import (
	"fmt"
	"math"
	"sort"

	"binliq/internal/domain"
)

// Metrics holds the risk-adjusted performance statistics of one run.
// Ratio statistics that would divide by zero (Sharpe, Sortino, Calmar)
// default to 0 by design; they are descriptive only. Skewness-style
// statistics that feed dependent calculations signal instead — see the
// liquidity package.
type Metrics struct {
	TotalReturn      float64 `json:"totalReturn"`
	AnnualizedReturn float64 `json:"annualizedReturn"`
	NetReturn        float64 `json:"netReturn"`
	TotalFees        float64 `json:"totalFees"`
	MaxDrawdown      float64 `json:"maxDrawdown"`
	SharpeRatio      float64 `json:"sharpeRatio"`
	SortinoRatio     float64 `json:"sortinoRatio"`
	CalmarRatio      float64 `json:"calmarRatio"`
	WinRate          float64 `json:"winRate"`
	Volatility       float64 `json:"volatility"`
	VaR95            float64 `json:"var95"`
	CVaR95           float64 `json:"cvar95"`
}

// ComputeMetrics derives performance statistics from a completed run. It
// returns ErrInsufficientData rather than NaN when the returns series is
// empty.
func ComputeMetrics(returns, values []float64, totalFees, initialCapital float64, durationDays int) (Metrics, error) {
	var m Metrics
	if len(returns) == 0 || len(values) < 2 {
		return m, fmt.Errorf("metrics over %d returns: %w", len(returns), domain.ErrInsufficientData)
	}

	final := values[len(values)-1]
	m.TotalReturn = (final - initialCapital) / initialCapital
	m.AnnualizedReturn = math.Pow(1+m.TotalReturn, 365/float64(durationDays)) - 1
	m.TotalFees = totalFees
	m.NetReturn = m.TotalReturn - totalFees/initialCapital

	m.MaxDrawdown = MaxDrawdown(values)

	meanRet := mean(returns)
	m.Volatility = stddev(returns, meanRet)
	if m.Volatility > 0 {
		m.SharpeRatio = meanRet / m.Volatility
	}
	if m.MaxDrawdown > 0 {
		m.CalmarRatio = meanRet / m.MaxDrawdown
	}

	var wins int
	for _, r := range returns {
		if r > 0 {
			wins++
		}
	}
	m.WinRate = float64(wins) / float64(len(returns))

	if dd := downsideDeviation(returns); dd > 0 {
		m.SortinoRatio = meanRet / dd
	}

	m.VaR95, m.CVaR95 = tailRisk(returns)
	return m, nil
}

// MaxDrawdown computes the largest peak-to-trough decline over a portfolio
// value series using the running-peak method. The result is always >= 0.
func MaxDrawdown(values []float64) float64 {
	var maxDD float64
	peak := math.Inf(-1)
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// stddev is the population standard deviation.
func stddev(xs []float64, mean float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}

// downsideDeviation is the root mean square of negative returns only. It is
// 0 when there are no negative returns; the empty-set variance must never
// surface as NaN.
func downsideDeviation(returns []float64) float64 {
	var sum float64
	var n int
	for _, r := range returns {
		if r < 0 {
			sum += r * r
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return math.Sqrt(sum / float64(n))
}

// tailRisk computes VaR95 (the 5th-percentile return) and CVaR95 (the mean
// of the tail at or below that index).
func tailRisk(returns []float64) (var95, cvar95 float64) {
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	idx := int(math.Floor(float64(len(sorted)) * 0.05))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	var95 = sorted[idx]

	tail := sorted[:idx+1]
	cvar95 = mean(tail)
	return var95, cvar95
}
