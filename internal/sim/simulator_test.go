package sim

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"binliq/internal/domain"
	"binliq/internal/market"
)

func passiveParams(duration int) Params {
	return Params{
		InitialCapital:    10000,
		Strategy:          domain.StrategyPassive,
		DurationDays:      duration,
		RebalanceCheckHrs: 24,
		RiskTolerance:     domain.RiskMedium,
		PairID:            "SOL/USDC",
	}
}

func TestSimulatePassiveWeeklyCadence(t *testing.T) {
	// On a zero-volatility path the passive strategy must rebalance exactly
	// on days divisible by 7 and nowhere else.
	res, err := Simulate(passiveParams(30), ConstantPriceSeries(100, 30))
	if err != nil {
		t.Fatalf("Simulate returned error: %v", err)
	}

	wantDays := []int{7, 14, 21, 28}
	if len(res.Events) != len(wantDays) {
		t.Fatalf("got %d rebalance events, want %d", len(res.Events), len(wantDays))
	}
	for i, ev := range res.Events {
		if ev.Day != wantDays[i] {
			t.Errorf("event %d on day %d, want day %d", i, ev.Day, wantDays[i])
		}
		if ev.Kind != EventRebalance {
			t.Errorf("event %d kind = %s, want rebalance", i, ev.Kind)
		}
		if ev.Reason != "weekly rebalance" {
			t.Errorf("event %d reason = %q, want \"weekly rebalance\"", i, ev.Reason)
		}
	}

	// Every non-rebalance day's return is exactly 0 on a flat path.
	rebalance := map[int]bool{7: true, 14: true, 21: true, 28: true}
	for i, r := range res.Returns {
		day := i + 1
		if rebalance[day] {
			if math.Abs(r-(-rebalanceFeeRate)) > 1e-12 {
				t.Errorf("day %d return = %v, want %v (rebalance fee)", day, r, -rebalanceFeeRate)
			}
		} else if r != 0 {
			t.Errorf("day %d return = %v, want 0 on flat path", day, r)
		}
	}
}

func TestSimulateSeriesShapes(t *testing.T) {
	res, err := Simulate(passiveParams(30), ConstantPriceSeries(100, 30))
	if err != nil {
		t.Fatalf("Simulate returned error: %v", err)
	}
	if len(res.Values) != 31 {
		t.Errorf("values length = %d, want duration+1 = 31", len(res.Values))
	}
	if res.Values[0] != 10000 {
		t.Errorf("values[0] = %v, want the initial capital", res.Values[0])
	}
	if len(res.Returns) != 30 {
		t.Errorf("returns length = %d, want 30", len(res.Returns))
	}
}

func TestSimulateRebalanceFeeCompounds(t *testing.T) {
	res, err := Simulate(passiveParams(30), ConstantPriceSeries(100, 30))
	if err != nil {
		t.Fatalf("Simulate returned error: %v", err)
	}
	// Four weekly rebalances at 0.3% each on an otherwise flat path.
	want := 10000 * math.Pow(1-rebalanceFeeRate, 4)
	if math.Abs(res.FinalValue()-want) > 1e-6 {
		t.Errorf("final value = %v, want %v", res.FinalValue(), want)
	}
	if res.Metrics.TotalFees <= 0 {
		t.Errorf("total fees = %v, want > 0", res.Metrics.TotalFees)
	}
}

func TestSimulateExposureDampensMoves(t *testing.T) {
	// One +10% day. Passive exposure is 0.8, so the portfolio gains 8%.
	params := passiveParams(1)
	res, err := Simulate(params, []float64{100, 110})
	if err != nil {
		t.Fatalf("Simulate returned error: %v", err)
	}
	want := 10000 * (1 + 0.10*0.80)
	if math.Abs(res.FinalValue()-want) > 1e-9 {
		t.Errorf("final value = %v, want %v", res.FinalValue(), want)
	}
}

func TestSimulateValidatesParams(t *testing.T) {
	bad := passiveParams(30)
	bad.InitialCapital = 0
	if _, err := Simulate(bad, nil); err == nil {
		t.Error("Simulate accepted zero initial capital")
	}

	bad = passiveParams(0)
	if _, err := Simulate(bad, nil); err == nil {
		t.Error("Simulate accepted zero duration")
	}

	bad = passiveParams(30)
	bad.Strategy = "martingale"
	if _, err := Simulate(bad, nil); err == nil {
		t.Error("Simulate accepted unknown strategy")
	}
}

func TestSimulateRejectsShortPriceSeries(t *testing.T) {
	_, err := Simulate(passiveParams(30), []float64{100, 101})
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Fatalf("error = %v, want ErrInsufficientData", err)
	}
}

func TestSimulateSeededPathIsDeterministic(t *testing.T) {
	params := passiveParams(60)
	params.Seed = 42

	a, err := Simulate(params, nil)
	if err != nil {
		t.Fatalf("Simulate returned error: %v", err)
	}
	b, err := Simulate(params, nil)
	if err != nil {
		t.Fatalf("Simulate returned error: %v", err)
	}
	if a.FinalValue() != b.FinalValue() {
		t.Errorf("same seed produced different outcomes: %v vs %v", a.FinalValue(), b.FinalValue())
	}
}

func TestSimulatorRunUsesMarketPrice(t *testing.T) {
	provider := market.NewStaticProvider()
	provider.RegisterPair(domain.PairInfo{ID: "SOL/USDC", BinStepBps: 25, ActivePrice: 140})

	params := passiveParams(30)
	params.Seed = 7

	s := NewSimulator(provider, nil)
	res, err := s.Run(context.Background(), params)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if res.Prices[0] != 140 {
		t.Errorf("path starts at %v, want the pair's market price 140", res.Prices[0])
	}

	params.PairID = "BONK/USDC"
	if _, err := s.Run(context.Background(), params); !errors.Is(err, domain.ErrPairNotFound) {
		t.Errorf("Run on unknown pair error = %v, want ErrPairNotFound", err)
	}
}

func TestLedgerRecords(t *testing.T) {
	res, err := Simulate(passiveParams(14), ConstantPriceSeries(100, 14))
	if err != nil {
		t.Fatalf("Simulate returned error: %v", err)
	}

	rows := res.LedgerRecords(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	if len(rows) != 14 {
		t.Fatalf("ledger has %d rows, want 14", len(rows))
	}
	if !rows[6].Rebalanced || rows[6].Reason == "" {
		t.Errorf("day 7 row = %+v, want rebalanced with reason", rows[6])
	}
	if rows[0].Rebalanced {
		t.Errorf("day 1 row marked rebalanced: %+v", rows[0])
	}
}
