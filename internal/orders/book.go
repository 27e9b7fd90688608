package orders

import (
	"sort"

	"github.com/shopspring/decimal"

	"binliq/internal/domain"
)

// BookEntry is one resting order's footprint in a pair's order book.
type BookEntry struct {
	OrderID string           `json:"orderId"`
	Side    domain.OrderSide `json:"side"`
	Price   decimal.Decimal  `json:"price"`
	Amount  decimal.Decimal  `json:"amount"`
	BinID   int              `json:"binId"`
}

// Book holds the resting orders of a single pair. Bids are kept descending
// by price and asks ascending, so the front element of each side is always
// the best bid / best ask. The caller (the engine's per-pair lock) serializes
// access.
type Book struct {
	bids []BookEntry
	asks []BookEntry
}

// Insert adds an entry to its side, preserving the sort invariant.
func (b *Book) Insert(e BookEntry) {
	if e.Side == domain.OrderSideBuy {
		i := sort.Search(len(b.bids), func(i int) bool {
			return b.bids[i].Price.LessThan(e.Price)
		})
		b.bids = append(b.bids, BookEntry{})
		copy(b.bids[i+1:], b.bids[i:])
		b.bids[i] = e
		return
	}
	i := sort.Search(len(b.asks), func(i int) bool {
		return b.asks[i].Price.GreaterThan(e.Price)
	})
	b.asks = append(b.asks, BookEntry{})
	copy(b.asks[i+1:], b.asks[i:])
	b.asks[i] = e
}

// Remove deletes the first entry matching (price, amount, side) exactly.
// Two live orders with identical price, amount, and side on the same pair
// cannot be told apart here; callers needing independent cancellation must
// not create such duplicates.
func (b *Book) Remove(side domain.OrderSide, price, amount decimal.Decimal) bool {
	entries := &b.asks
	if side == domain.OrderSideBuy {
		entries = &b.bids
	}
	for i, e := range *entries {
		if e.Price.Equal(price) && e.Amount.Equal(amount) {
			*entries = append((*entries)[:i], (*entries)[i+1:]...)
			return true
		}
	}
	return false
}

// BestBid returns the highest-priced buy entry, if any.
func (b *Book) BestBid() (BookEntry, bool) {
	if len(b.bids) == 0 {
		return BookEntry{}, false
	}
	return b.bids[0], true
}

// BestAsk returns the lowest-priced sell entry, if any.
func (b *Book) BestAsk() (BookEntry, bool) {
	if len(b.asks) == 0 {
		return BookEntry{}, false
	}
	return b.asks[0], true
}

// Snapshot returns copies of both book sides.
func (b *Book) Snapshot() (bids, asks []BookEntry) {
	bids = make([]BookEntry, len(b.bids))
	copy(bids, b.bids)
	asks = make([]BookEntry, len(b.asks))
	copy(asks, b.asks)
	return bids, asks
}
