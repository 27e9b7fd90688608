// Package orders implements the order matching engine: limit and stop-loss
// order lifecycles, per-pair sorted books, and periodic fill evaluation
// against a price feed. The engine has no internal clock; callers invoke the
// evaluation passes on their own schedule.
package orders

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"binliq/internal/domain"
	"binliq/internal/market"
	"binliq/internal/store"
)

// Engine owns all order state for the pairs it serves. Orders live in the
// injected store; books are rebuilt in memory. Operations on the same pair
// are serialized by a per-pair lock, so concurrent creates, cancels, and
// evaluation passes cannot corrupt the sorted book. Cross-pair operations
// proceed independently.
type Engine struct {
	pairs market.PairProvider
	store store.OrderStore
	log   *slog.Logger
	now   func() time.Time

	mu    sync.Mutex
	books map[string]*pairBook
}

type pairBook struct {
	mu   sync.Mutex
	book Book
}

// NewEngine creates an Engine resolving pairs through the given provider and
// persisting orders in the given store.
func NewEngine(pairs market.PairProvider, orderStore store.OrderStore, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		pairs: pairs,
		store: orderStore,
		log:   log.With("component", "orders"),
		now:   time.Now,
		books: make(map[string]*pairBook),
	}
}

// pairBookFor returns the pair's book, rebuilding it from the store's
// pending orders the first time the pair is seen in this process. The book is
// a derived index; with a persistent store the pending orders outlive the
// process and must be re-indexed after a restart.
func (e *Engine) pairBookFor(ctx context.Context, pairID string) (*pairBook, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pb, ok := e.books[pairID]
	if ok {
		return pb, nil
	}

	pending, err := e.store.ListLimitOrders(ctx, pairID, domain.LimitOrderPending)
	if err != nil {
		return nil, fmt.Errorf("rebuilding book for %s: %w", pairID, err)
	}
	pb = &pairBook{}
	for _, o := range pending {
		pb.book.Insert(BookEntry{
			OrderID: o.ID,
			Side:    o.Side,
			Price:   o.Price,
			Amount:  o.Amount,
			BinID:   o.BinID,
		})
	}
	e.books[pairID] = pb
	return pb, nil
}

// ---------------------------------------------------------------------------
// Bin resolution
// ---------------------------------------------------------------------------

// resolveBinID maps a price onto the pair's geometric bin grid: bin k covers
// the price ActivePrice * (1 + BinStepBps/10000)^k. Prices outside the grid
// bounds have no bin.
func resolveBinID(info *domain.PairInfo, price float64) (int, error) {
	if price <= 0 || info.ActivePrice <= 0 || info.BinStepBps <= 0 {
		return 0, fmt.Errorf("price %v on pair %s: %w", price, info.ID, domain.ErrPriceOutOfRange)
	}
	step := 1 + float64(info.BinStepBps)/10000
	bin := int(math.Round(math.Log(price/info.ActivePrice) / math.Log(step)))
	if bin < info.MinBinID || bin > info.MaxBinID {
		return 0, fmt.Errorf("price %v resolves to bin %d outside [%d, %d] on pair %s: %w",
			price, bin, info.MinBinID, info.MaxBinID, info.ID, domain.ErrPriceOutOfRange)
	}
	return bin, nil
}

// ---------------------------------------------------------------------------
// Limit orders
// ---------------------------------------------------------------------------

// CreateLimitOrder resolves the price to a bin on the pair's grid and
// inserts a pending order into the store and the pair's book. expiresAt may
// be the zero time for no expiry.
func (e *Engine) CreateLimitOrder(ctx context.Context, pairID string, side domain.OrderSide, amount, price decimal.Decimal, expiresAt time.Time) (*domain.LimitOrder, error) {
	if !amount.IsPositive() || !price.IsPositive() {
		return nil, fmt.Errorf("amount and price must be positive")
	}

	info, err := e.pairs.GetPairInfo(ctx, pairID)
	if err != nil {
		return nil, err
	}
	priceF, _ := price.Float64()
	binID, err := resolveBinID(info, priceF)
	if err != nil {
		return nil, err
	}

	o := &domain.LimitOrder{
		ID:        uuid.NewString(),
		PairID:    pairID,
		Side:      side,
		Amount:    amount,
		Price:     price,
		BinID:     binID,
		Status:    domain.LimitOrderPending,
		CreatedAt: e.now(),
		ExpiresAt: expiresAt,
	}

	pb, err := e.pairBookFor(ctx, pairID)
	if err != nil {
		return nil, err
	}
	pb.mu.Lock()
	defer pb.mu.Unlock()

	if err := e.store.SaveLimitOrder(ctx, o); err != nil {
		return nil, err
	}
	pb.book.Insert(BookEntry{
		OrderID: o.ID,
		Side:    side,
		Price:   price,
		Amount:  amount,
		BinID:   binID,
	})

	e.log.Info("limit order created", "order", o.ID, "pair", pairID, "side", side, "bin", binID)
	return o, nil
}

// CancelLimitOrder transitions a pending order to cancelled and removes it
// from the book. Orders in any other state cannot be cancelled.
func (e *Engine) CancelLimitOrder(ctx context.Context, id string) (*domain.LimitOrder, error) {
	o, err := e.store.GetLimitOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	pb, err := e.pairBookFor(ctx, o.PairID)
	if err != nil {
		return nil, err
	}
	pb.mu.Lock()
	defer pb.mu.Unlock()

	// Re-read under the pair lock: an evaluation pass may have raced us.
	o, err = e.store.GetLimitOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != domain.LimitOrderPending {
		return nil, fmt.Errorf("cancel of %s order %s: %w", o.Status, id, domain.ErrInvalidState)
	}

	o.Status = domain.LimitOrderCancelled
	if err := e.store.UpdateLimitOrder(ctx, o); err != nil {
		return nil, err
	}
	pb.book.Remove(o.Side, o.Price, o.Amount)

	e.log.Info("limit order cancelled", "order", id, "pair", o.PairID)
	return o, nil
}

// EvaluateFills runs one evaluation pass for a pair at the observed price.
// Expiry is checked before fill on every pass. A buy fills when the price is
// at or below its limit, a sell when at or above; the recorded fill price is
// the observed price, not the limit price. Returns the orders that changed
// state.
func (e *Engine) EvaluateFills(ctx context.Context, pairID string, currentPrice decimal.Decimal) ([]domain.LimitOrder, error) {
	if _, err := e.pairs.GetPairInfo(ctx, pairID); err != nil {
		return nil, err
	}

	pb, err := e.pairBookFor(ctx, pairID)
	if err != nil {
		return nil, err
	}
	pb.mu.Lock()
	defer pb.mu.Unlock()

	pending, err := e.store.ListLimitOrders(ctx, pairID, domain.LimitOrderPending)
	if err != nil {
		return nil, err
	}

	now := e.now()
	var changed []domain.LimitOrder
	for i := range pending {
		o := &pending[i]

		if o.Expirable() && now.After(o.ExpiresAt) {
			o.Status = domain.LimitOrderExpired
			if err := e.store.UpdateLimitOrder(ctx, o); err != nil {
				return changed, err
			}
			pb.book.Remove(o.Side, o.Price, o.Amount)
			changed = append(changed, *o)
			continue
		}

		fills := (o.Side == domain.OrderSideBuy && currentPrice.LessThanOrEqual(o.Price)) ||
			(o.Side == domain.OrderSideSell && currentPrice.GreaterThanOrEqual(o.Price))
		if !fills {
			continue
		}

		o.Status = domain.LimitOrderFilled
		o.FilledAt = now
		o.FilledAmount = o.Amount
		o.FilledPrice = currentPrice
		if err := e.store.UpdateLimitOrder(ctx, o); err != nil {
			return changed, err
		}
		pb.book.Remove(o.Side, o.Price, o.Amount)
		changed = append(changed, *o)

		e.log.Info("limit order filled", "order", o.ID, "pair", pairID, "price", currentPrice)
	}
	return changed, nil
}

// ---------------------------------------------------------------------------
// Stop-loss orders
// ---------------------------------------------------------------------------

// CreateStopLossOrder registers an active stop-loss protecting a position.
func (e *Engine) CreateStopLossOrder(ctx context.Context, positionID, pairID string, triggerPrice, amount decimal.Decimal) (*domain.StopLossOrder, error) {
	if !triggerPrice.IsPositive() || !amount.IsPositive() {
		return nil, fmt.Errorf("trigger price and amount must be positive")
	}
	if _, err := e.pairs.GetPairInfo(ctx, pairID); err != nil {
		return nil, err
	}

	o := &domain.StopLossOrder{
		ID:           uuid.NewString(),
		PositionID:   positionID,
		PairID:       pairID,
		TriggerPrice: triggerPrice,
		Amount:       amount,
		Status:       domain.StopLossActive,
		CreatedAt:    e.now(),
	}
	if err := e.store.SaveStopLossOrder(ctx, o); err != nil {
		return nil, err
	}
	e.log.Info("stop-loss created", "order", o.ID, "position", positionID, "trigger", triggerPrice)
	return o, nil
}

// CancelStopLossOrder transitions an active stop-loss to cancelled.
func (e *Engine) CancelStopLossOrder(ctx context.Context, id string) (*domain.StopLossOrder, error) {
	o, err := e.store.GetStopLossOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != domain.StopLossActive {
		return nil, fmt.Errorf("cancel of %s stop-loss %s: %w", o.Status, id, domain.ErrInvalidState)
	}
	o.Status = domain.StopLossCancelled
	if err := e.store.UpdateStopLossOrder(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

// PriceLookup resolves the current price of a position. The second return
// value reports whether the position could be resolved.
type PriceLookup func(positionID string) (float64, bool)

// EvaluateStopLossTriggers checks every active stop-loss against the looked-
// up position price and triggers those at or below their trigger price.
// Unresolvable positions are skipped and the order stays active: the
// evaluation fails closed rather than guessing. Returns the orders that
// triggered this pass.
func (e *Engine) EvaluateStopLossTriggers(ctx context.Context, lookup PriceLookup) ([]domain.StopLossOrder, error) {
	active, err := e.store.ListStopLossOrders(ctx, domain.StopLossActive)
	if err != nil {
		return nil, err
	}

	now := e.now()
	var triggered []domain.StopLossOrder
	for i := range active {
		o := &active[i]
		price, ok := lookup(o.PositionID)
		if !ok {
			continue
		}
		if decimal.NewFromFloat(price).GreaterThan(o.TriggerPrice) {
			continue
		}

		o.Status = domain.StopLossTriggered
		o.TriggeredAt = now
		if err := e.store.UpdateStopLossOrder(ctx, o); err != nil {
			return triggered, err
		}
		triggered = append(triggered, *o)

		e.log.Info("stop-loss triggered", "order", o.ID, "position", o.PositionID, "price", price)
	}
	return triggered, nil
}

// EvaluateStopLossForOwner builds a position price lookup from the position
// provider and runs a trigger evaluation pass over the owner's positions.
func (e *Engine) EvaluateStopLossForOwner(ctx context.Context, positions market.PositionProvider, owner string) ([]domain.StopLossOrder, error) {
	list, err := positions.GetUserPositions(ctx, owner)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]float64, len(list))
	for _, p := range list {
		byID[p.ID] = p.CurrentPrice
	}
	return e.EvaluateStopLossTriggers(ctx, func(positionID string) (float64, bool) {
		price, ok := byID[positionID]
		return price, ok
	})
}

// ---------------------------------------------------------------------------
// Introspection
// ---------------------------------------------------------------------------

// BookSnapshot is a point-in-time copy of one pair's order book.
type BookSnapshot struct {
	PairID string      `json:"pairId"`
	Bids   []BookEntry `json:"bids"`
	Asks   []BookEntry `json:"asks"`
}

// GetOrderBook returns a copy of the pair's book, best bid and best ask
// first on their respective sides.
func (e *Engine) GetOrderBook(ctx context.Context, pairID string) (BookSnapshot, error) {
	pb, err := e.pairBookFor(ctx, pairID)
	if err != nil {
		return BookSnapshot{}, err
	}
	pb.mu.Lock()
	defer pb.mu.Unlock()
	bids, asks := pb.book.Snapshot()
	return BookSnapshot{PairID: pairID, Bids: bids, Asks: asks}, nil
}

// Statistics aggregates order counts by lifecycle state plus total filled
// volume.
type Statistics struct {
	PendingLimit   int             `json:"pendingLimit"`
	FilledLimit    int             `json:"filledLimit"`
	CancelledLimit int             `json:"cancelledLimit"`
	ExpiredLimit   int             `json:"expiredLimit"`
	ActiveStopLoss int             `json:"activeStopLoss"`
	TriggeredStops int             `json:"triggeredStops"`
	CancelledStops int             `json:"cancelledStops"`
	FilledVolume   decimal.Decimal `json:"filledVolume"`
}

// GetOrderStatistics computes aggregate statistics across all pairs.
func (e *Engine) GetOrderStatistics(ctx context.Context) (Statistics, error) {
	var stats Statistics
	stats.FilledVolume = decimal.Zero

	limits, err := e.store.ListLimitOrders(ctx, "", "")
	if err != nil {
		return stats, err
	}
	for _, o := range limits {
		switch o.Status {
		case domain.LimitOrderPending:
			stats.PendingLimit++
		case domain.LimitOrderFilled:
			stats.FilledLimit++
			stats.FilledVolume = stats.FilledVolume.Add(o.FilledAmount.Mul(o.FilledPrice))
		case domain.LimitOrderCancelled:
			stats.CancelledLimit++
		case domain.LimitOrderExpired:
			stats.ExpiredLimit++
		}
	}

	stops, err := e.store.ListStopLossOrders(ctx, "")
	if err != nil {
		return stats, err
	}
	for _, o := range stops {
		switch o.Status {
		case domain.StopLossActive:
			stats.ActiveStopLoss++
		case domain.StopLossTriggered:
			stats.TriggeredStops++
		case domain.StopLossCancelled:
			stats.CancelledStops++
		}
	}
	return stats, nil
}
