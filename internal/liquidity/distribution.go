// Package liquidity generates and analyzes weighted bin distributions for a
// concentrated-liquidity curve. Weights are integer basis points so the
// total-weight invariant is exactly reproducible across platforms.
package liquidity

import (
	"math"
	"sort"
)

// TotalWeight is the fixed weight budget of one distribution, in basis
// points.
const TotalWeight int64 = 10000

// momentumShiftDivisor controls how far the standalone momentum generator
// shifts the curve. The simulator's momentum generator divides by 3 instead;
// the two values are intentionally distinct.
const momentumShiftDivisor = 4

// meanReversionShiftDivisor controls the mean-reversion shift distance.
const meanReversionShiftDivisor = 4

// BinAllocation assigns base and quote weight, in basis points, to a single
// bin identified relative to the active price bin. Negative ids sit on the
// base-asset side of the curve, positive ids on the quote side.
type BinAllocation struct {
	RelativeBinID int   `json:"relativeBinId"`
	WeightBase    int64 `json:"weightBase"`
	WeightQuote   int64 `json:"weightQuote"`
}

// Weight returns the bin's combined base and quote weight.
func (b BinAllocation) Weight() int64 { return b.WeightBase + b.WeightQuote }

// Distribution is an ordered sequence of bin allocations, ascending by
// RelativeBinID.
type Distribution []BinAllocation

// Sum returns the combined weight across all bins.
func (d Distribution) Sum() int64 {
	var total int64
	for _, b := range d {
		total += b.Weight()
	}
	return total
}

// Side selects which side of the curve a single-sided distribution occupies.
type Side string

const (
	SideBase  Side = "base"
	SideQuote Side = "quote"
)

// RiskProfile bounds the bin width of risk-bounded generators.
type RiskProfile string

const (
	ProfileConservative RiskProfile = "conservative"
	ProfileAggressive   RiskProfile = "aggressive"
)

// ClampWidth coerces width to at least 1 and applies the profile's bound:
// conservative caps at 5 bins, aggressive at 15.
func ClampWidth(profile RiskProfile, width int) int {
	if width < 1 {
		width = 1
	}
	switch profile {
	case ProfileConservative:
		if width > 5 {
			width = 5
		}
	case ProfileAggressive:
		if width > 15 {
			width = 15
		}
	}
	return width
}

// Centered builds a symmetric two-sided distribution of the given width.
// Every non-center bin receives floor(TotalWeight/width); the center bin
// absorbs whatever remains, split as evenly as possible between the base and
// quote side with the larger half on the quote side. The construction sums
// to TotalWeight exactly for every width.
func Centered(width int) Distribution {
	if width < 1 {
		width = 1
	}
	half := width / 2
	perBin := TotalWeight / int64(width)

	dist := make(Distribution, 0, 2*half+1)
	for i := -half; i < 0; i++ {
		dist = append(dist, BinAllocation{RelativeBinID: i, WeightBase: perBin})
	}

	remainder := TotalWeight - perBin*int64(2*half)
	dist = append(dist, BinAllocation{
		RelativeBinID: 0,
		WeightBase:    remainder / 2,
		WeightQuote:   remainder - remainder/2,
	})

	for i := 1; i <= half; i++ {
		dist = append(dist, BinAllocation{RelativeBinID: i, WeightQuote: perBin})
	}
	return dist
}

// SingleSided places width consecutive bins strictly on one side of the
// active bin: ids -1..-width for the base side, 1..width for the quote side.
// The division remainder is absorbed entirely by the bin closest to center.
func SingleSided(side Side, width int) Distribution {
	if width < 1 {
		width = 1
	}
	perBin := TotalWeight / int64(width)
	remainder := TotalWeight - perBin*int64(width)

	dist := make(Distribution, 0, width)
	for i := 1; i <= width; i++ {
		w := perBin
		if i == 1 {
			w += remainder
		}
		switch side {
		case SideBase:
			dist = append(dist, BinAllocation{RelativeBinID: -i, WeightBase: w})
		default:
			dist = append(dist, BinAllocation{RelativeBinID: i, WeightQuote: w})
		}
	}
	sort.Slice(dist, func(i, j int) bool { return dist[i].RelativeBinID < dist[j].RelativeBinID })
	return dist
}

// Momentum shifts a centered distribution toward the sign of the trend
// signal by floor(width/4) bins.
func Momentum(width int, signal float64) Distribution {
	if width < 1 {
		width = 1
	}
	return Shifted(Centered(width), sign(signal)*(width/momentumShiftDivisor))
}

// MeanReversion shifts a centered distribution against the sign of the
// observed deviation, positioning liquidity where price is expected to
// revert to.
func MeanReversion(width int, deviation float64) Distribution {
	if width < 1 {
		width = 1
	}
	return Shifted(Centered(width), -sign(deviation)*(width/meanReversionShiftDivisor))
}

// VolatilityAdjusted decays per-bin weight away from the center with
// exp(-|i| * volatility * 2) after shrinking the base per-bin weight by
// (1 - min(volatility, 0.5)). Floors accumulate: this generator does NOT
// preserve the TotalWeight sum. Callers that need the fixed-sum guarantee
// must run the result through Normalize.
func VolatilityAdjusted(width int, volatility float64) Distribution {
	if width < 1 {
		width = 1
	}
	if volatility < 0 {
		volatility = 0
	}
	shrink := 1 - math.Min(volatility, 0.5)
	perBin := math.Floor(float64(TotalWeight/int64(width)) * shrink)

	half := width / 2
	dist := make(Distribution, 0, 2*half+1)
	for i := -half; i <= half; i++ {
		w := int64(math.Floor(perBin * math.Exp(-math.Abs(float64(i))*volatility*2)))
		switch {
		case i < 0:
			dist = append(dist, BinAllocation{RelativeBinID: i, WeightBase: w})
		case i > 0:
			dist = append(dist, BinAllocation{RelativeBinID: i, WeightQuote: w})
		default:
			dist = append(dist, BinAllocation{
				RelativeBinID: 0,
				WeightBase:    w / 2,
				WeightQuote:   w - w/2,
			})
		}
	}
	return dist
}

// Validate reports whether the distribution's combined weight equals
// TotalWeight. It never panics or errors; an invalid distribution simply
// returns false.
func Validate(dist Distribution) bool {
	return dist.Sum() == TotalWeight
}

// Normalize rescales every weight by TotalWeight/sum with floor rounding.
// Because each bin floors independently the output may undershoot
// TotalWeight by up to one unit per bin; callers must not assume an exact
// sum after normalizing a non-trivial input.
func Normalize(dist Distribution) Distribution {
	sum := dist.Sum()
	if sum == 0 {
		return dist
	}
	out := make(Distribution, len(dist))
	for i, b := range dist {
		out[i] = BinAllocation{
			RelativeBinID: b.RelativeBinID,
			WeightBase:    b.WeightBase * TotalWeight / sum,
			WeightQuote:   b.WeightQuote * TotalWeight / sum,
		}
	}
	return out
}

// Shifted returns a copy of the distribution with every bin id offset by
// delta, preserving weights and order. The simulator uses it to apply its
// own momentum shift distance.
func Shifted(dist Distribution, delta int) Distribution {
	if delta == 0 {
		return dist
	}
	out := make(Distribution, len(dist))
	for i, b := range dist {
		b.RelativeBinID += delta
		out[i] = b
	}
	return out
}

// Sign reduces a signal to its direction: -1, 0, or 1.
func Sign(v float64) int { return sign(v) }

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
