// Package store defines storage interfaces for persisting and retrieving
// pair price history, simulation ledgers, and order records, with Parquet,
// SQLite, and in-memory backends.
package store

import (
	"context"
	"time"

	"binliq/internal/domain"
)

// PriceStore persists and retrieves daily pair price bars.
type PriceStore interface {
	// WriteBars persists a batch of bars, merging with any existing data.
	WriteBars(ctx context.Context, bars []domain.PriceBar) error

	// ReadBars returns bars for the pair within [start, end], ascending by
	// timestamp.
	ReadBars(ctx context.Context, pairID string, start, end time.Time) ([]domain.PriceBar, error)

	// ListPairs returns all pairs with stored price history.
	ListPairs(ctx context.Context) ([]string, error)
}

// OrderStore persists limit and stop-loss order records. An empty pairID or
// status in the List methods matches everything.
type OrderStore interface {
	SaveLimitOrder(ctx context.Context, o *domain.LimitOrder) error
	GetLimitOrder(ctx context.Context, id string) (*domain.LimitOrder, error)
	UpdateLimitOrder(ctx context.Context, o *domain.LimitOrder) error
	ListLimitOrders(ctx context.Context, pairID string, status domain.LimitOrderStatus) ([]domain.LimitOrder, error)

	SaveStopLossOrder(ctx context.Context, o *domain.StopLossOrder) error
	GetStopLossOrder(ctx context.Context, id string) (*domain.StopLossOrder, error)
	UpdateStopLossOrder(ctx context.Context, o *domain.StopLossOrder) error
	ListStopLossOrders(ctx context.Context, status domain.StopLossStatus) ([]domain.StopLossOrder, error)
}

// LedgerStore persists per-day simulation ledgers for offline analysis.
type LedgerStore interface {
	// WriteLedger writes the full ledger of one simulation run.
	WriteLedger(ctx context.Context, runID string, rows []LedgerRecord) error

	// ReadLedger returns the ledger of a previous run, ascending by day.
	ReadLedger(ctx context.Context, runID string) ([]LedgerRecord, error)
}

// LedgerRecord is one simulated day in the on-disk ledger schema.
type LedgerRecord struct {
	Day            int32   `parquet:"day"`
	Timestamp      int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Price          float64 `parquet:"price"`
	PortfolioValue float64 `parquet:"portfolio_value"`
	DailyReturn    float64 `parquet:"daily_return"`
	Rebalanced     bool    `parquet:"rebalanced"`
	Reason         string  `parquet:"reason"`
}
