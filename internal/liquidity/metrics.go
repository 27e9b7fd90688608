package liquidity

import (
	"fmt"
	"math"

	"binliq/internal/domain"
)

// Metrics summarizes a distribution for risk scoring.
type Metrics struct {
	// TotalWeight is the summed weight across all bins.
	TotalWeight int64 `json:"totalWeight"`

	// ActiveBins counts bins carrying nonzero weight.
	ActiveBins int `json:"activeBins"`

	// Concentration is a Herfindahl index over per-bin weight shares of the
	// TotalWeight budget, in (0, 1]. Higher means more concentrated.
	Concentration float64 `json:"concentration"`

	// Skewness is the third standardized moment of RelativeBinID weighted by
	// bin weight (population moment, not sample-corrected).
	Skewness float64 `json:"skewness"`
}

// ComputeMetrics analyzes a distribution. It returns ErrZeroVariance when
// the weighted variance of bin ids is zero (all weight in a single bin, or
// no weight at all): skewness is undefined there and must not be reported as
// a numeric 0.
func ComputeMetrics(dist Distribution) (Metrics, error) {
	m := Metrics{}

	for _, b := range dist {
		w := b.Weight()
		m.TotalWeight += w
		if w > 0 {
			m.ActiveBins++
		}
		share := float64(w) / float64(TotalWeight)
		m.Concentration += share * share
	}

	if m.TotalWeight == 0 {
		return m, fmt.Errorf("skewness of empty distribution: %w", domain.ErrZeroVariance)
	}

	total := float64(m.TotalWeight)
	var mean float64
	for _, b := range dist {
		mean += float64(b.RelativeBinID) * float64(b.Weight()) / total
	}

	var variance, third float64
	for _, b := range dist {
		d := float64(b.RelativeBinID) - mean
		w := float64(b.Weight()) / total
		variance += w * d * d
		third += w * d * d * d
	}

	if variance == 0 {
		return m, fmt.Errorf("skewness with all weight in one bin: %w", domain.ErrZeroVariance)
	}

	m.Skewness = third / math.Pow(variance, 1.5)
	return m, nil
}
