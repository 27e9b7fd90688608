package sim

import (
	"time"

	"binliq/internal/store"
)

// LedgerRecords flattens a result into per-day ledger rows for the parquet
// ledger store. Day timestamps are derived from startedAt at one day per
// simulation step.
func (r *Result) LedgerRecords(startedAt time.Time) []store.LedgerRecord {
	reasons := make(map[int]string, len(r.Events))
	for _, ev := range r.Events {
		reasons[ev.Day] = ev.Reason
	}

	rows := make([]store.LedgerRecord, 0, len(r.Returns))
	for day := 1; day < len(r.Values); day++ {
		reason, rebalanced := reasons[day]
		rows = append(rows, store.LedgerRecord{
			Day:            int32(day),
			Timestamp:      startedAt.AddDate(0, 0, day).UnixMilli(),
			Price:          r.Prices[day],
			PortfolioValue: r.Values[day],
			DailyReturn:    r.Returns[day-1],
			Rebalanced:     rebalanced,
			Reason:         reason,
		})
	}
	return rows
}
