package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	"binliq/internal/domain"
)

// Compile-time interface check.
var _ Provider = (*StaticProvider)(nil)

// StaticProvider is an in-memory Provider for tests, CLI runs, and paper
// simulations. Pairs and positions are registered up front; prices are
// updated by the caller.
type StaticProvider struct {
	mu        sync.RWMutex
	pairs     map[string]domain.PairInfo
	prices    map[string]float64
	positions map[string][]domain.PositionData
}

// NewStaticProvider creates an empty StaticProvider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{
		pairs:     make(map[string]domain.PairInfo),
		prices:    make(map[string]float64),
		positions: make(map[string][]domain.PositionData),
	}
}

// RegisterPair adds or replaces a pair definition. The pair's ActivePrice
// becomes its initial market price.
func (p *StaticProvider) RegisterPair(info domain.PairInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pairs[info.ID] = info
	p.prices[info.ID] = info.ActivePrice
}

// SetPrice updates the current market price for a pair.
func (p *StaticProvider) SetPrice(pairID string, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[pairID] = price
}

// AddPosition registers a position under the owner handle.
func (p *StaticProvider) AddPosition(owner string, pos domain.PositionData) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.positions[owner] = append(p.positions[owner], pos)
}

// GetPairInfo returns metadata for the pair, or ErrPairNotFound.
func (p *StaticProvider) GetPairInfo(_ context.Context, pairID string) (*domain.PairInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	info, ok := p.pairs[pairID]
	if !ok {
		return nil, fmt.Errorf("pair %q: %w", pairID, domain.ErrPairNotFound)
	}
	return &info, nil
}

// GetMarketData returns the current snapshot for the pair.
func (p *StaticProvider) GetMarketData(_ context.Context, pairID string) (*domain.MarketData, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if _, ok := p.pairs[pairID]; !ok {
		return nil, fmt.Errorf("pair %q: %w", pairID, domain.ErrPairNotFound)
	}
	return &domain.MarketData{
		PairID:    pairID,
		Price:     p.prices[pairID],
		Timestamp: time.Now(),
	}, nil
}

// GetUserPositions returns all positions owned by the given handle.
func (p *StaticProvider) GetUserPositions(_ context.Context, owner string) ([]domain.PositionData, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]domain.PositionData, len(p.positions[owner]))
	copy(out, p.positions[owner])
	return out, nil
}
