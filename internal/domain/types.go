// Package domain defines the core types shared across the binliq engine:
// trading pairs, limit and stop-loss orders, market data snapshots, and
// position records.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Enums
// ---------------------------------------------------------------------------

// OrderSide is the direction of a limit order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// LimitOrderStatus is the lifecycle state of a limit order. A pending order
// transitions to exactly one terminal state and never re-enters pending.
type LimitOrderStatus string

const (
	LimitOrderPending   LimitOrderStatus = "pending"
	LimitOrderFilled    LimitOrderStatus = "filled"
	LimitOrderCancelled LimitOrderStatus = "cancelled"
	LimitOrderExpired   LimitOrderStatus = "expired"
)

// StopLossStatus is the lifecycle state of a stop-loss order.
type StopLossStatus string

const (
	StopLossActive    StopLossStatus = "active"
	StopLossTriggered StopLossStatus = "triggered"
	StopLossCancelled StopLossStatus = "cancelled"
)

// StrategyKind identifies one of the built-in rebalancing strategies.
type StrategyKind string

const (
	StrategyPassive       StrategyKind = "passive"
	StrategyActive        StrategyKind = "active"
	StrategyMomentum      StrategyKind = "momentum"
	StrategyMeanReversion StrategyKind = "mean_reversion"
)

// RiskTolerance scales strategy aggressiveness (bin widths, thresholds,
// synthetic path volatility).
type RiskTolerance string

const (
	RiskLow    RiskTolerance = "low"
	RiskMedium RiskTolerance = "medium"
	RiskHigh   RiskTolerance = "high"
)

// ---------------------------------------------------------------------------
// Trading pair and market data
// ---------------------------------------------------------------------------

// PairInfo describes a concentrated-liquidity pair. Prices map onto a
// geometric grid of bins: each step away from the active bin multiplies the
// price by (1 + BinStepBps/10000). MinBinID and MaxBinID bound the grid
// relative to the active bin; prices outside that range have no bin.
type PairInfo struct {
	ID          string
	BaseMint    string
	QuoteMint   string
	BinStepBps  int
	ActivePrice float64
	MinBinID    int
	MaxBinID    int
}

// MarketData is a point-in-time market snapshot for a pair.
type MarketData struct {
	PairID    string
	Price     float64
	Volume24h float64
	Liquidity float64
	FeeRate   float64
	Timestamp time.Time
}

// PositionData is a user liquidity position as reported by the external
// position provider. The engine treats it as read-only.
type PositionData struct {
	ID           string
	PairID       string
	Owner        string
	BaseAmount   decimal.Decimal
	QuoteAmount  decimal.Decimal
	CurrentPrice float64
}

// PriceBar is one daily OHLCV bar of pair price history.
type PriceBar struct {
	PairID    string
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// LimitOrder is a resting order owned by the matching engine. It is mutated
// only by fill evaluation or an explicit cancel.
type LimitOrder struct {
	ID        string
	PairID    string
	Side      OrderSide
	Amount    decimal.Decimal
	Price     decimal.Decimal
	BinID     int
	Status    LimitOrderStatus
	CreatedAt time.Time
	ExpiresAt time.Time // zero value means no expiry

	FilledAt     time.Time
	FilledAmount decimal.Decimal
	FilledPrice  decimal.Decimal
}

// Expirable reports whether the order carries an expiry deadline.
func (o *LimitOrder) Expirable() bool { return !o.ExpiresAt.IsZero() }

// StopLossOrder protects a position: it triggers when the position's price
// falls to or below TriggerPrice.
type StopLossOrder struct {
	ID           string
	PositionID   string
	PairID       string
	TriggerPrice decimal.Decimal
	Amount       decimal.Decimal
	Status       StopLossStatus
	CreatedAt    time.Time
	TriggeredAt  time.Time
}
