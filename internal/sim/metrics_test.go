package sim

import (
	"errors"
	"math"
	"testing"

	"binliq/internal/domain"
)

func valuesFromReturns(initial float64, returns []float64) []float64 {
	values := make([]float64, 0, len(returns)+1)
	values = append(values, initial)
	v := initial
	for _, r := range returns {
		v *= 1 + r
		values = append(values, v)
	}
	return values
}

func TestMaxDrawdown(t *testing.T) {
	got := MaxDrawdown([]float64{100, 120, 80, 90})
	want := 1.0 / 3.0 // peak 120, trough 80
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("MaxDrawdown = %v, want %v", got, want)
	}

	if got := MaxDrawdown([]float64{100, 101, 102, 105}); got != 0 {
		t.Errorf("MaxDrawdown on a rising series = %v, want 0", got)
	}
	if got := MaxDrawdown(nil); got != 0 {
		t.Errorf("MaxDrawdown(nil) = %v, want 0", got)
	}
}

func TestComputeMetricsEmptyReturns(t *testing.T) {
	_, err := ComputeMetrics(nil, nil, 0, 10000, 30)
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Fatalf("error = %v, want ErrInsufficientData", err)
	}
}

func TestComputeMetricsZeroVarianceRatiosDefaultToZero(t *testing.T) {
	// Identical positive returns: zero volatility, no drawdown, no downside.
	// All three ratio statistics must stay 0 rather than dividing by zero.
	returns := []float64{0.01, 0.01, 0.01}
	values := valuesFromReturns(10000, returns)

	m, err := ComputeMetrics(returns, values, 0, 10000, len(returns))
	if err != nil {
		t.Fatalf("ComputeMetrics returned error: %v", err)
	}
	if m.Volatility != 0 {
		t.Errorf("Volatility = %v, want 0", m.Volatility)
	}
	if m.SharpeRatio != 0 || m.SortinoRatio != 0 || m.CalmarRatio != 0 {
		t.Errorf("ratios = %v/%v/%v, want all 0", m.SharpeRatio, m.SortinoRatio, m.CalmarRatio)
	}
	if m.WinRate != 1 {
		t.Errorf("WinRate = %v, want 1", m.WinRate)
	}
}

func TestComputeMetricsTailRisk(t *testing.T) {
	returns := []float64{0.01, -0.05, 0.02, -0.02, 0.03}
	values := valuesFromReturns(10000, returns)

	m, err := ComputeMetrics(returns, values, 0, 10000, len(returns))
	if err != nil {
		t.Fatalf("ComputeMetrics returned error: %v", err)
	}
	// floor(5 * 0.05) = 0: VaR95 is the single worst return and the tail
	// holds only that observation.
	if m.VaR95 != -0.05 {
		t.Errorf("VaR95 = %v, want -0.05", m.VaR95)
	}
	if m.CVaR95 != -0.05 {
		t.Errorf("CVaR95 = %v, want -0.05", m.CVaR95)
	}
	if math.Abs(m.WinRate-0.6) > 1e-12 {
		t.Errorf("WinRate = %v, want 0.6", m.WinRate)
	}
}

func TestComputeMetricsAnnualization(t *testing.T) {
	// Over exactly one year the annualized return equals the total return.
	returns := make([]float64, 365)
	for i := range returns {
		returns[i] = 0.10 / 365 // irrelevant to the check below
	}
	values := valuesFromReturns(10000, returns)
	values[len(values)-1] = 11000

	m, err := ComputeMetrics(returns, values, 0, 10000, 365)
	if err != nil {
		t.Fatalf("ComputeMetrics returned error: %v", err)
	}
	if math.Abs(m.TotalReturn-0.10) > 1e-9 {
		t.Errorf("TotalReturn = %v, want 0.10", m.TotalReturn)
	}
	if math.Abs(m.AnnualizedReturn-m.TotalReturn) > 1e-9 {
		t.Errorf("AnnualizedReturn = %v, want %v over 365 days", m.AnnualizedReturn, m.TotalReturn)
	}
}

func TestComputeMetricsNetReturnSubtractsFees(t *testing.T) {
	returns := []float64{0.05}
	values := []float64{10000, 10500}

	m, err := ComputeMetrics(returns, values, 100, 10000, 1)
	if err != nil {
		t.Fatalf("ComputeMetrics returned error: %v", err)
	}
	if math.Abs(m.NetReturn-(0.05-0.01)) > 1e-12 {
		t.Errorf("NetReturn = %v, want 0.04", m.NetReturn)
	}
	if m.TotalFees != 100 {
		t.Errorf("TotalFees = %v, want 100", m.TotalFees)
	}
}
