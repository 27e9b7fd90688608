package sim

import (
	"math"
	"testing"

	"binliq/internal/domain"
	"binliq/internal/liquidity"
)

func mediumCtx(day int, prices []float64) DecisionContext {
	ctx := DecisionContext{
		Params: passiveParams(len(prices) - 1),
		Day:    day,
		Price:  prices[day],
		Prices: prices,
	}
	if day > 0 {
		ctx.PriceChange = (prices[day] - prices[day-1]) / prices[day-1]
	}
	return ctx
}

func TestDecideActiveThreshold(t *testing.T) {
	ctx := mediumCtx(1, []float64{100, 102.5}) // +2.5%, above the 2% medium threshold
	d := decideActive(ctx)
	if !d.Rebalance {
		t.Fatal("2.5% move did not trigger an active rebalance at medium risk")
	}
	// The volatility-adjusted curve floors aggressively; the sum is bounded
	// by the budget but not pinned to it.
	if sum := d.Distribution.Sum(); sum <= 0 || sum > liquidity.TotalWeight {
		t.Errorf("active distribution sums to %d, want within (0, %d]", sum, liquidity.TotalWeight)
	}

	ctx = mediumCtx(1, []float64{100, 101.5}) // +1.5%, below threshold
	if d := decideActive(ctx); d.Rebalance {
		t.Error("1.5% move triggered an active rebalance at medium risk")
	}

	// Downside moves trigger symmetrically.
	ctx = mediumCtx(1, []float64{100, 97})
	if d := decideActive(ctx); !d.Rebalance {
		t.Error("-3% move did not trigger an active rebalance")
	}
}

func TestDecideMomentumNeedsHistory(t *testing.T) {
	prices := []float64{100, 105, 110, 116, 122}
	if d := decideMomentum(mediumCtx(3, prices)); d.Rebalance {
		t.Error("momentum rebalanced with under 5 days of history")
	}
}

func TestDecideMomentumAcceleratingTrend(t *testing.T) {
	// A slow decline followed by a sharp rally: the trailing 5-day return
	// beats the trailing 20-day return, so momentum follows the move up.
	prices := make([]float64, 26)
	for i := 0; i <= 20; i++ {
		prices[i] = 100 - 0.5*float64(i)
	}
	for i := 21; i <= 25; i++ {
		prices[i] = prices[20] * math.Pow(1.03, float64(i-20))
	}

	d := decideMomentum(mediumCtx(25, prices))
	if !d.Rebalance {
		t.Fatal("accelerating rally did not trigger a momentum rebalance")
	}
	// Medium risk uses width 7; the shift is floor(7/3) = 2 bins upward, so
	// the centered span [-3,3] becomes [-1,5].
	if got := d.Distribution[0].RelativeBinID; got != -1 {
		t.Errorf("first bin id = %d, want -1 after a +2 shift", got)
	}
	if got := d.Distribution.Sum(); got != liquidity.TotalWeight {
		t.Errorf("shifted distribution sums to %d, want %d", got, liquidity.TotalWeight)
	}
}

func TestDecideMomentumSteadyTrendHoldsStill(t *testing.T) {
	// Constant-rate growth: the 5-day return never exceeds the 20-day
	// return, so there is nothing to chase.
	prices := make([]float64, 31)
	for i := range prices {
		prices[i] = 100 * math.Pow(1.01, float64(i))
	}
	for day := 5; day <= 30; day++ {
		if d := decideMomentum(mediumCtx(day, prices)); d.Rebalance {
			t.Fatalf("steady trend triggered a momentum rebalance on day %d: %s", day, d.Reason)
		}
	}
}

func TestDecideMeanReversionNeedsHistory(t *testing.T) {
	prices := []float64{100, 100, 100, 100, 100, 130, 130, 130, 130, 130}
	if d := decideMeanReversion(mediumCtx(9, prices)); d.Rebalance {
		t.Error("mean reversion rebalanced with under 10 days of history")
	}
}

func TestDecideMeanReversionFadesStretchedMove(t *testing.T) {
	// Ten flat days then a jump to 115: the 5-day mean sits 15% above the
	// baseline window, so liquidity shifts below the current price.
	prices := make([]float64, 15)
	for i := 0; i < 10; i++ {
		prices[i] = 100
	}
	for i := 10; i < 15; i++ {
		prices[i] = 115
	}

	d := decideMeanReversion(mediumCtx(14, prices))
	if !d.Rebalance {
		t.Fatal("15% stretched move did not trigger a mean-reversion rebalance")
	}
	// Width 7 shifts opposite the deviation by floor(7/4) = 1 bin, so the
	// centered span [-3,3] becomes [-4,2].
	if got := d.Distribution[0].RelativeBinID; got != -4 {
		t.Errorf("first bin id = %d, want -4 after a -1 shift", got)
	}
}

func TestDecideMeanReversionSmallDeviationHoldsStill(t *testing.T) {
	prices := make([]float64, 15)
	for i := 0; i < 10; i++ {
		prices[i] = 100
	}
	for i := 10; i < 15; i++ {
		prices[i] = 103 // 3% deviation, below the 5% trigger
	}
	if d := decideMeanReversion(mediumCtx(14, prices)); d.Rebalance {
		t.Errorf("3%% deviation triggered a mean-reversion rebalance: %s", d.Reason)
	}
}

func TestTrailingReturnClampsToSeriesStart(t *testing.T) {
	prices := []float64{100, 104, 108}
	got := trailingReturn(prices, 2, 20)
	if math.Abs(got-0.08) > 1e-12 {
		t.Errorf("trailingReturn = %v, want 0.08 (clamped to index 0)", got)
	}
}

func TestExposureCoversAllStrategies(t *testing.T) {
	for _, kind := range []domain.StrategyKind{
		domain.StrategyPassive,
		domain.StrategyActive,
		domain.StrategyMomentum,
		domain.StrategyMeanReversion,
	} {
		exp, ok := liquidityExposure[kind]
		if !ok {
			t.Errorf("strategy %s has no liquidity exposure", kind)
			continue
		}
		if exp <= 0 || exp >= 1 {
			t.Errorf("strategy %s exposure = %v, want within (0,1)", kind, exp)
		}
	}
}
