// Package feed pulls historical crypto price bars from the Alpaca
// market-data API into the price store.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"binliq/internal/domain"
	"binliq/internal/store"
	"binliq/internal/util"
)

// ---------------------------------------------------------------------------
// AlpacaFetcher — daily crypto OHLCV bars from the Alpaca API.
// ---------------------------------------------------------------------------

// AlpacaFetcher fetches daily crypto bars (e.g. "SOL/USD") via the Alpaca
// market-data API and writes them to the price store. Fetched symbols double
// as pair identifiers downstream.
type AlpacaFetcher struct {
	client      *marketdata.Client
	store       store.PriceStore
	limiter     *util.RateLimiter
	maxAttempts int
	log         *slog.Logger
}

// NewAlpacaFetcher creates an AlpacaFetcher with the given credentials and
// target store. rateLimitPerMin bounds API calls; maxAttempts bounds retries
// per symbol.
func NewAlpacaFetcher(apiKey, apiSecret, baseURL string, s store.PriceStore, rateLimitPerMin, maxAttempts int, log *slog.Logger) *AlpacaFetcher {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if baseURL != "" {
		opts.BaseURL = baseURL
	}
	if rateLimitPerMin <= 0 {
		rateLimitPerMin = 200
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if log == nil {
		log = slog.Default()
	}

	return &AlpacaFetcher{
		client:      marketdata.NewClient(opts),
		store:       s,
		limiter:     util.NewRateLimiter(rateLimitPerMin),
		maxAttempts: maxAttempts,
		log:         log.With("component", "feed"),
	}
}

// FetchDailyBars fetches daily bars for every symbol in [start, end] and
// merges them into the price store. Symbols that return no data are logged
// and skipped; a fetch error aborts the run.
func (f *AlpacaFetcher) FetchDailyBars(ctx context.Context, symbols []string, start, end time.Time) error {
	runStart := time.Now()
	var total int

	for _, symbol := range symbols {
		if err := f.limiter.Wait(ctx); err != nil {
			return err
		}

		bars, err := f.fetchSymbol(ctx, symbol, start, end)
		if err != nil {
			return fmt.Errorf("fetching %s: %w", symbol, err)
		}
		if len(bars) == 0 {
			f.log.Warn("no bars returned", "symbol", symbol)
			continue
		}

		if err := f.store.WriteBars(ctx, bars); err != nil {
			return fmt.Errorf("writing %s: %w", symbol, err)
		}
		total += len(bars)
		f.log.Info("fetched", "symbol", symbol, "bars", len(bars))
	}

	f.log.Info("fetch complete",
		"symbols", len(symbols),
		"bars", total,
		"elapsed", time.Since(runStart).Round(time.Second),
	)
	return nil
}

// fetchSymbol fetches one symbol's daily bars with retry and backoff.
func (f *AlpacaFetcher) fetchSymbol(ctx context.Context, symbol string, start, end time.Time) ([]domain.PriceBar, error) {
	var cryptoBars []marketdata.CryptoBar

	err := util.Retry(ctx, f.maxAttempts, time.Second, func() error {
		var err error
		cryptoBars, err = f.client.GetCryptoBars(symbol, marketdata.GetCryptoBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("GetCryptoBars: %w", err)
	}

	bars := make([]domain.PriceBar, 0, len(cryptoBars))
	for _, cb := range cryptoBars {
		bars = append(bars, domain.PriceBar{
			PairID:    symbol,
			Timestamp: cb.Timestamp,
			Open:      cb.Open,
			High:      cb.High,
			Low:       cb.Low,
			Close:     cb.Close,
			Volume:    cb.Volume,
		})
	}
	return bars, nil
}

// ---------------------------------------------------------------------------
// Historical paths
// ---------------------------------------------------------------------------

// LoadClosePath reads the stored daily closes for a pair and returns them as
// a simulation price path. The path carries durationDays+1 points ending at
// end; ErrInsufficientData when the store holds fewer.
func LoadClosePath(ctx context.Context, s store.PriceStore, pairID string, end time.Time, durationDays int) ([]float64, error) {
	// Over-fetch the window: stored history may have gaps.
	start := end.AddDate(0, 0, -2*durationDays-14)
	bars, err := s.ReadBars(ctx, pairID, start, end)
	if err != nil {
		return nil, err
	}

	need := durationDays + 1
	if len(bars) < need {
		return nil, fmt.Errorf("pair %s has %d stored bars, need %d: %w",
			pairID, len(bars), need, domain.ErrInsufficientData)
	}

	prices := make([]float64, need)
	for i, bar := range bars[len(bars)-need:] {
		prices[i] = bar.Close
	}
	return prices, nil
}
