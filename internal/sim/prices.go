package sim

import (
	"math"
	"math/rand"

	"binliq/internal/domain"
)

// pathVolatility is the daily volatility of the synthetic price path for
// each risk tolerance.
var pathVolatility = map[domain.RiskTolerance]float64{
	domain.RiskLow:    0.010,
	domain.RiskMedium: 0.020,
	domain.RiskHigh:   0.035,
}

// pathDrift is a small upward daily drift applied to synthetic paths.
const pathDrift = 0.0005

// GeneratePriceSeries produces duration+1 daily prices starting at
// startPrice using a seeded geometric random walk. The same seed always
// yields the same path, so simulations are reproducible.
func GeneratePriceSeries(startPrice float64, duration int, risk domain.RiskTolerance, seed int64) []float64 {
	vol, ok := pathVolatility[risk]
	if !ok {
		vol = pathVolatility[domain.RiskMedium]
	}

	rng := rand.New(rand.NewSource(seed))
	prices := make([]float64, duration+1)
	prices[0] = startPrice
	for i := 1; i <= duration; i++ {
		step := pathDrift + vol*rng.NormFloat64()
		prices[i] = prices[i-1] * math.Exp(step)
	}
	return prices
}

// ConstantPriceSeries produces duration+1 identical prices. Useful for
// exercising cadence-driven strategies without market noise.
func ConstantPriceSeries(price float64, duration int) []float64 {
	prices := make([]float64, duration+1)
	for i := range prices {
		prices[i] = price
	}
	return prices
}
