package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"binliq/internal/domain"
	"binliq/internal/store"
)

func seedBars(t *testing.T, s store.PriceStore, pairID string, days int, base time.Time) {
	t.Helper()
	bars := make([]domain.PriceBar, days)
	for i := range bars {
		bars[i] = domain.PriceBar{
			PairID:    pairID,
			Timestamp: base.AddDate(0, 0, i),
			Open:      100,
			High:      101,
			Low:       99,
			Close:     100 + float64(i),
			Volume:    1000,
		}
	}
	if err := s.WriteBars(context.Background(), bars); err != nil {
		t.Fatalf("WriteBars returned error: %v", err)
	}
}

func TestLoadClosePath(t *testing.T) {
	s := store.NewParquetStore(t.TempDir())
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	seedBars(t, s, "SOL/USD", 40, base)

	end := base.AddDate(0, 0, 39)
	prices, err := LoadClosePath(context.Background(), s, "SOL/USD", end, 30)
	if err != nil {
		t.Fatalf("LoadClosePath returned error: %v", err)
	}
	if len(prices) != 31 {
		t.Fatalf("path length = %d, want 31", len(prices))
	}
	// The path is the last 31 closes: 109..139.
	if prices[0] != 109 || prices[30] != 139 {
		t.Errorf("path spans [%v, %v], want [109, 139]", prices[0], prices[30])
	}
}

func TestLoadClosePathInsufficientHistory(t *testing.T) {
	s := store.NewParquetStore(t.TempDir())
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	seedBars(t, s, "SOL/USD", 10, base)

	end := base.AddDate(0, 0, 9)
	_, err := LoadClosePath(context.Background(), s, "SOL/USD", end, 30)
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Fatalf("error = %v, want ErrInsufficientData", err)
	}
}

func TestNewAlpacaFetcherDefaults(t *testing.T) {
	f := NewAlpacaFetcher("key", "secret", "", store.NewParquetStore(t.TempDir()), 0, 0, nil)
	if f == nil {
		t.Fatal("NewAlpacaFetcher returned nil")
	}
	if f.maxAttempts != 3 {
		t.Errorf("maxAttempts = %d, want default 3", f.maxAttempts)
	}
}
