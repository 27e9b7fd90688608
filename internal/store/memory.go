package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"binliq/internal/domain"
)

// Compile-time interface check.
var _ OrderStore = (*MemoryStore)(nil)

// MemoryStore implements OrderStore with plain maps guarded by a mutex. It
// is the default backend when persistence is not configured.
type MemoryStore struct {
	mu         sync.RWMutex
	limits     map[string]domain.LimitOrder
	stopLosses map[string]domain.StopLossOrder
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		limits:     make(map[string]domain.LimitOrder),
		stopLosses: make(map[string]domain.StopLossOrder),
	}
}

// SaveLimitOrder inserts a new limit order.
func (s *MemoryStore) SaveLimitOrder(_ context.Context, o *domain.LimitOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limits[o.ID] = *o
	return nil
}

// GetLimitOrder retrieves a single limit order by id.
func (s *MemoryStore) GetLimitOrder(_ context.Context, id string) (*domain.LimitOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.limits[id]
	if !ok {
		return nil, fmt.Errorf("limit order %q: %w", id, domain.ErrOrderNotFound)
	}
	return &o, nil
}

// UpdateLimitOrder persists changes to an existing limit order.
func (s *MemoryStore) UpdateLimitOrder(_ context.Context, o *domain.LimitOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.limits[o.ID]; !ok {
		return fmt.Errorf("limit order %q: %w", o.ID, domain.ErrOrderNotFound)
	}
	s.limits[o.ID] = *o
	return nil
}

// ListLimitOrders returns limit orders filtered by pair and status, ordered
// by creation time.
func (s *MemoryStore) ListLimitOrders(_ context.Context, pairID string, status domain.LimitOrderStatus) ([]domain.LimitOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var orders []domain.LimitOrder
	for _, o := range s.limits {
		if pairID != "" && o.PairID != pairID {
			continue
		}
		if status != "" && o.Status != status {
			continue
		}
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })
	return orders, nil
}

// SaveStopLossOrder inserts a new stop-loss order.
func (s *MemoryStore) SaveStopLossOrder(_ context.Context, o *domain.StopLossOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLosses[o.ID] = *o
	return nil
}

// GetStopLossOrder retrieves a single stop-loss order by id.
func (s *MemoryStore) GetStopLossOrder(_ context.Context, id string) (*domain.StopLossOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.stopLosses[id]
	if !ok {
		return nil, fmt.Errorf("stop-loss order %q: %w", id, domain.ErrOrderNotFound)
	}
	return &o, nil
}

// UpdateStopLossOrder persists changes to an existing stop-loss order.
func (s *MemoryStore) UpdateStopLossOrder(_ context.Context, o *domain.StopLossOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stopLosses[o.ID]; !ok {
		return fmt.Errorf("stop-loss order %q: %w", o.ID, domain.ErrOrderNotFound)
	}
	s.stopLosses[o.ID] = *o
	return nil
}

// ListStopLossOrders returns stop-loss orders filtered by status, ordered by
// creation time.
func (s *MemoryStore) ListStopLossOrders(_ context.Context, status domain.StopLossStatus) ([]domain.StopLossOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var orders []domain.StopLossOrder
	for _, o := range s.stopLosses {
		if status != "" && o.Status != status {
			continue
		}
		orders = append(orders, o)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.Before(orders[j].CreatedAt) })
	return orders, nil
}
