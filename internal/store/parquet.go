package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"binliq/internal/domain"
)

// Compile-time interface checks.
var _ PriceStore = (*ParquetStore)(nil)
var _ LedgerStore = (*ParquetStore)(nil)

// ParquetStore implements PriceStore and LedgerStore using Parquet files on
// disk.
type ParquetStore struct {
	DataDir string
}

// NewParquetStore creates a new ParquetStore rooted at the given data
// directory.
func NewParquetStore(dataDir string) *ParquetStore {
	return &ParquetStore{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// BarRecord is the Parquet schema for daily pair price bars.
type BarRecord struct {
	PairID    string  `parquet:"pair_id"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// ---------------------------------------------------------------------------
// PriceStore implementation
// ---------------------------------------------------------------------------

// WriteBars writes bar data to Parquet files organized by pair and year.
// Each pair+year combination produces a separate file at:
//
//	<DataDir>/pairs/<PAIR>/<YYYY>.parquet
func (s *ParquetStore) WriteBars(_ context.Context, bars []domain.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	type key struct {
		pairID string
		year   int
	}
	groups := make(map[key][]BarRecord)
	for _, b := range bars {
		k := key{pairID: b.PairID, year: b.Timestamp.Year()}
		groups[k] = append(groups[k], BarRecord{
			PairID:    b.PairID,
			Timestamp: b.Timestamp.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		})
	}

	for k, records := range groups {
		path := s.barPath(k.pairID, k.year)

		// Merge with existing records so repeated fetches stay idempotent.
		existing, _ := readParquetFile[BarRecord](path)
		merged := mergeBarRecords(existing, records)

		if err := writeParquetFile(path, merged); err != nil {
			return fmt.Errorf("writing bars for %s/%d: %w", k.pairID, k.year, err)
		}
	}
	return nil
}

// ReadBars reads bar data for the given pair and time range.
func (s *ParquetStore) ReadBars(_ context.Context, pairID string, start, end time.Time) ([]domain.PriceBar, error) {
	var bars []domain.PriceBar
	for year := start.Year(); year <= end.Year(); year++ {
		records, err := readParquetFile[BarRecord](s.barPath(pairID, year))
		if err != nil {
			// No file for this year — skip.
			continue
		}

		for _, r := range records {
			ts := time.UnixMilli(r.Timestamp)
			if (ts.Equal(start) || ts.After(start)) && (ts.Equal(end) || ts.Before(end)) {
				bars = append(bars, domain.PriceBar{
					PairID:    r.PairID,
					Timestamp: ts,
					Open:      r.Open,
					High:      r.High,
					Low:       r.Low,
					Close:     r.Close,
					Volume:    r.Volume,
				})
			}
		}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Timestamp.Before(bars[j].Timestamp) })
	return bars, nil
}

// ListPairs lists all pairs that have stored bar data.
func (s *ParquetStore) ListPairs(_ context.Context) ([]string, error) {
	dir := filepath.Join(s.DataDir, "pairs")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var pairs []string
	for _, e := range entries {
		if e.IsDir() {
			pairs = append(pairs, strings.ReplaceAll(e.Name(), "-", "/"))
		}
	}
	sort.Strings(pairs)
	return pairs, nil
}

// ---------------------------------------------------------------------------
// LedgerStore implementation
// ---------------------------------------------------------------------------

// WriteLedger writes a simulation run's ledger to
// <DataDir>/ledgers/<runID>.parquet.
func (s *ParquetStore) WriteLedger(_ context.Context, runID string, rows []LedgerRecord) error {
	if err := writeParquetFile(s.ledgerPath(runID), rows); err != nil {
		return fmt.Errorf("writing ledger %s: %w", runID, err)
	}
	return nil
}

// ReadLedger reads a previously written simulation ledger.
func (s *ParquetStore) ReadLedger(_ context.Context, runID string) ([]LedgerRecord, error) {
	rows, err := readParquetFile[LedgerRecord](s.ledgerPath(runID))
	if err != nil {
		return nil, fmt.Errorf("reading ledger %s: %w", runID, err)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Day < rows[j].Day })
	return rows, nil
}

// ---------------------------------------------------------------------------
// Path helpers
// ---------------------------------------------------------------------------

// barPath returns the filesystem path for a pair's bar Parquet file.
// Layout: <dataDir>/pairs/<PAIR>/<YYYY>.parquet ("/" in pair ids becomes "-").
func (s *ParquetStore) barPath(pairID string, year int) string {
	name := strings.ToUpper(strings.ReplaceAll(pairID, "/", "-"))
	return filepath.Join(s.DataDir, "pairs", name, fmt.Sprintf("%d.parquet", year))
}

// ledgerPath returns the filesystem path for a simulation ledger file.
func (s *ParquetStore) ledgerPath(runID string) string {
	return filepath.Join(s.DataDir, "ledgers", runID+".parquet")
}

// ---------------------------------------------------------------------------
// Parquet file helpers
// ---------------------------------------------------------------------------

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// mergeBarRecords deduplicates bar records by (pair, timestamp), preferring
// incoming records over existing ones. Results are sorted by timestamp.
func mergeBarRecords(existing, incoming []BarRecord) []BarRecord {
	type key struct {
		pairID string
		ts     int64
	}
	seen := make(map[key]BarRecord, len(existing)+len(incoming))
	for _, r := range existing {
		seen[key{r.PairID, r.Timestamp}] = r
	}
	for _, r := range incoming {
		seen[key{r.PairID, r.Timestamp}] = r
	}

	merged := make([]BarRecord, 0, len(seen))
	for _, r := range seen {
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Timestamp < merged[j].Timestamp
	})
	return merged
}
