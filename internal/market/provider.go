// Package market defines the read-only collaborator interfaces through which
// the engine observes the outside world: pair metadata, market data
// snapshots, and user positions. Implementations are synchronous; on-chain
// SDK calls, RPC, and caching live behind these interfaces and outside this
// core.
package market

import (
	"context"

	"binliq/internal/domain"
)

// PairProvider resolves trading-pair metadata.
type PairProvider interface {
	// GetPairInfo returns metadata for the pair, or ErrPairNotFound.
	GetPairInfo(ctx context.Context, pairID string) (*domain.PairInfo, error)
}

// DataProvider supplies point-in-time market snapshots.
type DataProvider interface {
	// GetMarketData returns the current snapshot for the pair, or
	// ErrPairNotFound.
	GetMarketData(ctx context.Context, pairID string) (*domain.MarketData, error)
}

// PositionProvider lists a user's liquidity positions for stop-loss
// evaluation.
type PositionProvider interface {
	// GetUserPositions returns all positions owned by the given handle.
	GetUserPositions(ctx context.Context, owner string) ([]domain.PositionData, error)
}

// Provider bundles all three collaborator roles.
type Provider interface {
	PairProvider
	DataProvider
	PositionProvider
}
