package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Order is the audit record of an order. Rows of terminal orders are never
// mutated again.
type Order struct {
	ID         string
	Symbol     string
	Side       string
	Type       string
	Price      float64
	StopPrice  float64
	Qty        float64
	FilledQty  float64
	VisibleQty float64
	Status     string
	CreatedAt  time.Time
}

// Trade is a fill stored in the DB, immutable once created.
type Trade struct {
	ID        string
	OrderID   string
	Symbol    string
	Side      string
	Price     float64
	Qty       float64
	Fee       float64
	IsMaker   bool
	CreatedAt time.Time
}

// Pair is a configured trading pair row.
type Pair struct {
	Symbol    string
	TickSize  float64
	LotSize   float64
	MakerFee  float64
	TakerFee  float64
	UpdatedAt time.Time
}

// User represents an application user.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// UpsertOrder inserts or refreshes an order's audit row.
func (d *Database) UpsertOrder(ctx context.Context, o Order) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO orders (id, symbol, side, type, price, stop_price, qty, filled_qty, visible_qty, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP), CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			filled_qty = excluded.filled_qty,
			stop_price = excluded.stop_price,
			status = excluded.status,
			updated_at = CURRENT_TIMESTAMP
	`, o.ID, o.Symbol, o.Side, o.Type, o.Price, o.StopPrice, o.Qty, o.FilledQty, o.VisibleQty, o.Status, o.CreatedAt)
	return err
}

// GetOrder loads one order row.
func (d *Database) GetOrder(ctx context.Context, id string) (*Order, error) {
	var o Order
	err := d.DB.QueryRowContext(ctx, `
		SELECT id, symbol, side, type, price, stop_price, qty, filled_qty, visible_qty, status, created_at
		FROM orders WHERE id = ?
	`, id).Scan(&o.ID, &o.Symbol, &o.Side, &o.Type, &o.Price, &o.StopPrice, &o.Qty, &o.FilledQty, &o.VisibleQty, &o.Status, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return &o, nil
}

// ListRecentOrders returns the newest orders, optionally filtered by symbol.
func (d *Database) ListRecentOrders(ctx context.Context, symbol string, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, symbol, side, type, price, stop_price, qty, filled_qty, visible_qty, status, created_at
		FROM orders`
	args := []any{}
	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := d.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Symbol, &o.Side, &o.Type, &o.Price, &o.StopPrice, &o.Qty, &o.FilledQty, &o.VisibleQty, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// CreateTrade inserts a new trade row.
func (d *Database) CreateTrade(ctx context.Context, t Trade) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO trades (id, order_id, symbol, side, price, qty, fee, is_maker, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP))
	`, t.ID, t.OrderID, t.Symbol, t.Side, t.Price, t.Qty, t.Fee, t.IsMaker, t.CreatedAt)
	return err
}

// ListTrades returns the newest trades, optionally filtered by symbol.
func (d *Database) ListTrades(ctx context.Context, symbol string, limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, order_id, symbol, side, price, qty, COALESCE(fee, 0), COALESCE(is_maker, 0), created_at
		FROM trades`
	args := []any{}
	if symbol != "" {
		query += ` WHERE symbol = ?`
		args = append(args, symbol)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := d.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		var t Trade
		if err := rows.Scan(&t.ID, &t.OrderID, &t.Symbol, &t.Side, &t.Price, &t.Qty, &t.Fee, &t.IsMaker, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// ListTradesByOrder returns all fills of one order, oldest first.
func (d *Database) ListTradesByOrder(ctx context.Context, orderID string) ([]Trade, error) {
	rows, err := d.DB.QueryContext(ctx, `
		SELECT id, order_id, symbol, side, price, qty, COALESCE(fee, 0), COALESCE(is_maker, 0), created_at
		FROM trades WHERE order_id = ? ORDER BY created_at ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var trades []Trade
	for rows.Next() {
		var t Trade
		if err := rows.Scan(&t.ID, &t.OrderID, &t.Symbol, &t.Side, &t.Price, &t.Qty, &t.Fee, &t.IsMaker, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

// UpsertPair creates or refreshes a pair definition.
func (d *Database) UpsertPair(ctx context.Context, p Pair) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO pairs (symbol, tick_size, lot_size, maker_fee, taker_fee, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(symbol) DO UPDATE SET
			tick_size = excluded.tick_size,
			lot_size = excluded.lot_size,
			maker_fee = excluded.maker_fee,
			taker_fee = excluded.taker_fee,
			updated_at = CURRENT_TIMESTAMP
	`, p.Symbol, p.TickSize, p.LotSize, p.MakerFee, p.TakerFee)
	return err
}

// ListPairs returns all configured pairs.
func (d *Database) ListPairs(ctx context.Context) ([]Pair, error) {
	rows, err := d.DB.QueryContext(ctx, `
		SELECT symbol, tick_size, lot_size, COALESCE(maker_fee, 0), COALESCE(taker_fee, 0), updated_at
		FROM pairs ORDER BY symbol
	`)
	if err != nil {
		return nil, fmt.Errorf("query pairs: %w", err)
	}
	defer rows.Close()

	var pairs []Pair
	for rows.Next() {
		var p Pair
		if err := rows.Scan(&p.Symbol, &p.TickSize, &p.LotSize, &p.MakerFee, &p.TakerFee, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// CreateUser inserts a new user.
func (d *Database) CreateUser(ctx context.Context, u User) error {
	_, err := d.DB.ExecContext(ctx, `
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
	`, u.ID, u.Email, u.PasswordHash)
	return err
}

// GetUserByEmail loads a user by email.
func (d *Database) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := d.DB.QueryRowContext(ctx, `
		SELECT id, email, password_hash, created_at FROM users WHERE email = ?
	`, email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}
