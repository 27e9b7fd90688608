package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"binliq/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ OrderStore = (*SQLiteStore)(nil)

// SQLiteStore implements OrderStore backed by a SQLite database, so resting
// orders survive process restarts.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS limit_orders (
	id            TEXT PRIMARY KEY,
	pair_id       TEXT NOT NULL,
	side          TEXT NOT NULL,
	amount        TEXT NOT NULL,
	price         TEXT NOT NULL,
	bin_id        INTEGER NOT NULL,
	status        TEXT NOT NULL,
	created_at    INTEGER NOT NULL,
	expires_at    INTEGER NOT NULL DEFAULT 0,
	filled_at     INTEGER NOT NULL DEFAULT 0,
	filled_amount TEXT NOT NULL DEFAULT '0',
	filled_price  TEXT NOT NULL DEFAULT '0'
);
CREATE INDEX IF NOT EXISTS idx_limit_orders_pair_status ON limit_orders(pair_id, status);

CREATE TABLE IF NOT EXISTS stop_loss_orders (
	id            TEXT PRIMARY KEY,
	position_id   TEXT NOT NULL,
	pair_id       TEXT NOT NULL,
	trigger_price TEXT NOT NULL,
	amount        TEXT NOT NULL,
	status        TEXT NOT NULL,
	created_at    INTEGER NOT NULL,
	triggered_at  INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_stop_loss_orders_status ON stop_loss_orders(status);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, applies the
// schema, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Limit orders
// ---------------------------------------------------------------------------

// SaveLimitOrder inserts a new limit order.
func (s *SQLiteStore) SaveLimitOrder(ctx context.Context, o *domain.LimitOrder) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO limit_orders
			(id, pair_id, side, amount, price, bin_id, status, created_at, expires_at, filled_at, filled_amount, filled_price)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.PairID, string(o.Side), o.Amount.String(), o.Price.String(), o.BinID,
		string(o.Status), msOrZero(o.CreatedAt), msOrZero(o.ExpiresAt),
		msOrZero(o.FilledAt), o.FilledAmount.String(), o.FilledPrice.String())
	if err != nil {
		return fmt.Errorf("saving limit order %s: %w", o.ID, err)
	}
	return nil
}

// GetLimitOrder retrieves a single limit order by id.
func (s *SQLiteStore) GetLimitOrder(ctx context.Context, id string) (*domain.LimitOrder, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, pair_id, side, amount, price, bin_id, status, created_at, expires_at, filled_at, filled_amount, filled_price
		FROM limit_orders WHERE id = ?`, id)
	o, err := scanLimitOrder(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("limit order %q: %w", id, domain.ErrOrderNotFound)
	}
	return o, err
}

// UpdateLimitOrder persists changes to an existing limit order.
func (s *SQLiteStore) UpdateLimitOrder(ctx context.Context, o *domain.LimitOrder) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE limit_orders
		SET status = ?, filled_at = ?, filled_amount = ?, filled_price = ?
		WHERE id = ?`,
		string(o.Status), msOrZero(o.FilledAt), o.FilledAmount.String(), o.FilledPrice.String(), o.ID)
	if err != nil {
		return fmt.Errorf("updating limit order %s: %w", o.ID, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("limit order %q: %w", o.ID, domain.ErrOrderNotFound)
	}
	return nil
}

// ListLimitOrders returns limit orders filtered by pair and status; empty
// filters match everything.
func (s *SQLiteStore) ListLimitOrders(ctx context.Context, pairID string, status domain.LimitOrderStatus) ([]domain.LimitOrder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pair_id, side, amount, price, bin_id, status, created_at, expires_at, filled_at, filled_amount, filled_price
		FROM limit_orders
		WHERE (? = '' OR pair_id = ?) AND (? = '' OR status = ?)
		ORDER BY created_at`,
		pairID, pairID, string(status), string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.LimitOrder
	for rows.Next() {
		o, err := scanLimitOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// ---------------------------------------------------------------------------
// Stop-loss orders
// ---------------------------------------------------------------------------

// SaveStopLossOrder inserts a new stop-loss order.
func (s *SQLiteStore) SaveStopLossOrder(ctx context.Context, o *domain.StopLossOrder) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stop_loss_orders
			(id, position_id, pair_id, trigger_price, amount, status, created_at, triggered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.PositionID, o.PairID, o.TriggerPrice.String(), o.Amount.String(),
		string(o.Status), msOrZero(o.CreatedAt), msOrZero(o.TriggeredAt))
	if err != nil {
		return fmt.Errorf("saving stop-loss order %s: %w", o.ID, err)
	}
	return nil
}

// GetStopLossOrder retrieves a single stop-loss order by id.
func (s *SQLiteStore) GetStopLossOrder(ctx context.Context, id string) (*domain.StopLossOrder, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, position_id, pair_id, trigger_price, amount, status, created_at, triggered_at
		FROM stop_loss_orders WHERE id = ?`, id)
	o, err := scanStopLossOrder(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("stop-loss order %q: %w", id, domain.ErrOrderNotFound)
	}
	return o, err
}

// UpdateStopLossOrder persists changes to an existing stop-loss order.
func (s *SQLiteStore) UpdateStopLossOrder(ctx context.Context, o *domain.StopLossOrder) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE stop_loss_orders SET status = ?, triggered_at = ? WHERE id = ?`,
		string(o.Status), msOrZero(o.TriggeredAt), o.ID)
	if err != nil {
		return fmt.Errorf("updating stop-loss order %s: %w", o.ID, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("stop-loss order %q: %w", o.ID, domain.ErrOrderNotFound)
	}
	return nil
}

// ListStopLossOrders returns stop-loss orders filtered by status; an empty
// status matches everything.
func (s *SQLiteStore) ListStopLossOrders(ctx context.Context, status domain.StopLossStatus) ([]domain.StopLossOrder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, position_id, pair_id, trigger_price, amount, status, created_at, triggered_at
		FROM stop_loss_orders
		WHERE (? = '' OR status = ?)
		ORDER BY created_at`,
		string(status), string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.StopLossOrder
	for rows.Next() {
		o, err := scanStopLossOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// ---------------------------------------------------------------------------
// Scan helpers
// ---------------------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLimitOrder(r rowScanner) (*domain.LimitOrder, error) {
	var (
		o                                        domain.LimitOrder
		side, status                             string
		amount, price, filledAmount, filledPrice string
		createdAt, expiresAt, filledAt           int64
	)
	err := r.Scan(&o.ID, &o.PairID, &side, &amount, &price, &o.BinID, &status,
		&createdAt, &expiresAt, &filledAt, &filledAmount, &filledPrice)
	if err != nil {
		return nil, err
	}
	o.Side = domain.OrderSide(side)
	o.Status = domain.LimitOrderStatus(status)
	if o.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parsing amount %q: %w", amount, err)
	}
	if o.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parsing price %q: %w", price, err)
	}
	if o.FilledAmount, err = decimal.NewFromString(filledAmount); err != nil {
		return nil, fmt.Errorf("parsing filled amount %q: %w", filledAmount, err)
	}
	if o.FilledPrice, err = decimal.NewFromString(filledPrice); err != nil {
		return nil, fmt.Errorf("parsing filled price %q: %w", filledPrice, err)
	}
	o.CreatedAt = timeOrZero(createdAt)
	o.ExpiresAt = timeOrZero(expiresAt)
	o.FilledAt = timeOrZero(filledAt)
	return &o, nil
}

func scanStopLossOrder(r rowScanner) (*domain.StopLossOrder, error) {
	var (
		o                      domain.StopLossOrder
		status                 string
		trigger, amount        string
		createdAt, triggeredAt int64
	)
	err := r.Scan(&o.ID, &o.PositionID, &o.PairID, &trigger, &amount, &status,
		&createdAt, &triggeredAt)
	if err != nil {
		return nil, err
	}
	o.Status = domain.StopLossStatus(status)
	if o.TriggerPrice, err = decimal.NewFromString(trigger); err != nil {
		return nil, fmt.Errorf("parsing trigger price %q: %w", trigger, err)
	}
	if o.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parsing amount %q: %w", amount, err)
	}
	o.CreatedAt = timeOrZero(createdAt)
	o.TriggeredAt = timeOrZero(triggeredAt)
	return &o, nil
}

// msOrZero encodes a time as Unix milliseconds, using 0 for the zero time.
func msOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// timeOrZero decodes Unix milliseconds, mapping 0 back to the zero time.
func timeOrZero(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
