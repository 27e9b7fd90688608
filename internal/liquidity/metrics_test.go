package liquidity

import (
	"errors"
	"math"
	"testing"

	"binliq/internal/domain"
)

func TestComputeMetricsCentered(t *testing.T) {
	dist := Centered(5)

	m, err := ComputeMetrics(dist)
	if err != nil {
		t.Fatalf("ComputeMetrics returned unexpected error: %v", err)
	}
	if m.TotalWeight != TotalWeight {
		t.Errorf("TotalWeight = %d, want %d", m.TotalWeight, TotalWeight)
	}
	if m.ActiveBins != 5 {
		t.Errorf("ActiveBins = %d, want 5", m.ActiveBins)
	}
	if m.Concentration <= 0 || m.Concentration > 1 {
		t.Errorf("Concentration = %f, want in (0, 1]", m.Concentration)
	}
	// A symmetric curve has zero skew.
	if math.Abs(m.Skewness) > 1e-9 {
		t.Errorf("Skewness = %f, want 0 for a symmetric distribution", m.Skewness)
	}
}

func TestComputeMetricsConcentration(t *testing.T) {
	// All weight in one bin away from center: Herfindahl index is exactly 1.
	dist := Distribution{{RelativeBinID: 2, WeightQuote: TotalWeight}}
	dist = append(dist, BinAllocation{RelativeBinID: 3})

	m, err := ComputeMetrics(dist)
	if err == nil {
		t.Fatal("expected zero-variance error for single-bin distribution")
	}
	if m.Concentration != 1 {
		t.Errorf("Concentration = %f, want 1", m.Concentration)
	}
	if m.ActiveBins != 1 {
		t.Errorf("ActiveBins = %d, want 1", m.ActiveBins)
	}
}

func TestComputeMetricsSkewSign(t *testing.T) {
	// Most weight left of center, long tail right: positive skew.
	dist := Distribution{
		{RelativeBinID: -1, WeightBase: 6000},
		{RelativeBinID: 0, WeightBase: 1500, WeightQuote: 1500},
		{RelativeBinID: 4, WeightQuote: 1000},
	}
	m, err := ComputeMetrics(dist)
	if err != nil {
		t.Fatalf("ComputeMetrics returned unexpected error: %v", err)
	}
	if m.Skewness <= 0 {
		t.Errorf("Skewness = %f, want > 0 for right-tailed distribution", m.Skewness)
	}
}

func TestComputeMetricsZeroVarianceSignals(t *testing.T) {
	// Single bin at center: skewness is undefined and must signal, not
	// silently report 0.
	dist := Distribution{{RelativeBinID: 0, WeightBase: 5000, WeightQuote: 5000}}

	_, err := ComputeMetrics(dist)
	if !errors.Is(err, domain.ErrZeroVariance) {
		t.Fatalf("ComputeMetrics error = %v, want ErrZeroVariance", err)
	}
}

func TestComputeMetricsEmptyDistribution(t *testing.T) {
	_, err := ComputeMetrics(Distribution{})
	if !errors.Is(err, domain.ErrZeroVariance) {
		t.Fatalf("ComputeMetrics error = %v, want ErrZeroVariance", err)
	}
}
