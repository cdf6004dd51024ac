package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/corollary/warehouse/internal/core/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS locations (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT NOT NULL UNIQUE,
	max_capacity  INTEGER NOT NULL CHECK (max_capacity > 0),
	used_capacity INTEGER NOT NULL DEFAULT 0 CHECK (used_capacity >= 0)
);

CREATE TABLE IF NOT EXISTS products (
	id          INTEGER PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE COLLATE NOCASE,
	quantity    INTEGER NOT NULL CHECK (quantity >= 0),
	location_id INTEGER NOT NULL REFERENCES locations(id)
);

CREATE TABLE IF NOT EXISTS orders (
	id         TEXT PRIMARY KEY,
	product    TEXT NOT NULL,
	quantity   INTEGER NOT NULL,
	requester  TEXT NOT NULL,
	status     TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// SQLiteAdapter implements port.Store over a SQLite database. Paired
// product/capacity writes run in one transaction so the used-capacity
// invariant holds against concurrent readers.
type SQLiteAdapter struct {
	db *sql.DB
}

func NewSQLiteAdapter(db *sql.DB) *SQLiteAdapter {
	return &SQLiteAdapter{db: db}
}

// Open is a convenience for cmd wiring: opens the database file and creates
// the schema.
func Open(ctx context.Context, path string) (*SQLiteAdapter, *sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	a := NewSQLiteAdapter(db)
	if err := a.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return a, db, nil
}

// Migrate creates the schema if it does not exist.
func (a *SQLiteAdapter) Migrate(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (a *SQLiteAdapter) CreateLocation(ctx context.Context, name string, maxCapacity int) (*domain.StorageLocation, error) {
	res, err := a.db.ExecContext(ctx, `
		INSERT INTO locations (name, max_capacity, used_capacity) VALUES (?, ?, 0)`,
		name, maxCapacity,
	)
	if err != nil {
		return nil, asDomainErr("insert location", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("location id: %w", err)
	}
	return &domain.StorageLocation{ID: id, Name: name, MaxCapacity: maxCapacity}, nil
}

func (a *SQLiteAdapter) ListLocations(ctx context.Context) ([]domain.StorageLocation, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, name, max_capacity, used_capacity FROM locations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	var out []domain.StorageLocation
	for rows.Next() {
		var loc domain.StorageLocation
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.MaxCapacity, &loc.UsedCapacity); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

func (a *SQLiteAdapter) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT id, name, quantity, location_id FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Quantity, &p.LocationID); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (a *SQLiteAdapter) CommitRestock(ctx context.Context, product domain.Product, amount int, created bool) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if created {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO products (id, name, quantity, location_id) VALUES (?, ?, ?, ?)`,
			product.ID, product.Name, product.Quantity, product.LocationID,
		)
		if err != nil {
			return asDomainErr("insert product", err)
		}
	} else {
		res, err := tx.ExecContext(ctx, `
			UPDATE products SET quantity = quantity + ? WHERE name = ?`,
			amount, product.Name,
		)
		if err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("product %q: %w", product.Name, domain.ErrNotFound)
		}
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE locations SET used_capacity = used_capacity + ?
		WHERE id = ? AND used_capacity + ? <= max_capacity`,
		amount, product.LocationID, amount,
	)
	if err != nil {
		return fmt.Errorf("update used capacity: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("location %d: %w", product.LocationID, domain.ErrCapacityExceeded)
	}

	return tx.Commit()
}

func (a *SQLiteAdapter) CommitPlacement(ctx context.Context, order domain.Order, locationID int64) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE products SET quantity = quantity - ?
		WHERE name = ? AND quantity >= ?`,
		order.Quantity, order.Product, order.Quantity,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("product %q: %w", order.Product, domain.ErrInsufficientStock)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE locations SET used_capacity = MAX(used_capacity - ?, 0) WHERE id = ?`,
		order.Quantity, locationID,
	)
	if err != nil {
		return fmt.Errorf("release used capacity: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, product, quantity, requester, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.Product, order.Quantity, order.Requester, order.Status,
		order.CreatedAt.Unix(), order.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return tx.Commit()
}

func (a *SQLiteAdapter) CommitProductRemoval(ctx context.Context, name string, quantity int, locationID int64) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("product %q: %w", name, domain.ErrNotFound)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE locations SET used_capacity = MAX(used_capacity - ?, 0) WHERE id = ?`,
		quantity, locationID,
	)
	if err != nil {
		return fmt.Errorf("release used capacity: %w", err)
	}

	return tx.Commit()
}

func (a *SQLiteAdapter) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var (
		o       domain.Order
		created int64
		updated int64
	)
	err := a.db.QueryRowContext(ctx, `
		SELECT id, product, quantity, requester, status, created_at, updated_at
		FROM orders WHERE id = ?`, id,
	).Scan(&o.ID, &o.Product, &o.Quantity, &o.Requester, &o.Status, &created, &updated)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	o.CreatedAt = time.Unix(created, 0).UTC()
	o.UpdatedAt = time.Unix(updated, 0).UTC()
	return &o, nil
}

func (a *SQLiteAdapter) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return a.queryOrders(ctx, `
		SELECT id, product, quantity, requester, status, created_at, updated_at
		FROM orders ORDER BY status, id`)
}

func (a *SQLiteAdapter) ListOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	return a.queryOrders(ctx, `
		SELECT id, product, quantity, requester, status, created_at, updated_at
		FROM orders WHERE status = ? ORDER BY id ASC`, status)
}

func (a *SQLiteAdapter) queryOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []domain.Order
	for rows.Next() {
		var (
			o       domain.Order
			created int64
			updated int64
		)
		if err := rows.Scan(&o.ID, &o.Product, &o.Quantity, &o.Requester, &o.Status, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.CreatedAt = time.Unix(created, 0).UTC()
		o.UpdatedAt = time.Unix(updated, 0).UTC()
		out = append(out, o)
	}
	return out, rows.Err()
}

func (a *SQLiteAdapter) ListOrderIDs(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT id FROM orders ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query order ids: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan order id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (a *SQLiteAdapter) UpdateOrderStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%s -> %s: %w", from, to, domain.ErrInvalidTransition)
	}

	res, err := a.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		to, time.Now().Unix(), id, from,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		return nil
	}

	// The guarded update matched nothing: unknown order or wrong current status.
	var exists int
	err = a.db.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("check order: %w", err)
	}
	return fmt.Errorf("order %s is not %s: %w", id, from, domain.ErrInvalidTransition)
}

func (a *SQLiteAdapter) Reset(ctx context.Context) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"products", "orders", "locations"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// asDomainErr maps sqlite unique-constraint violations to ErrDuplicateName.
func asDomainErr(op string, err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%s: %w", op, domain.ErrDuplicateName)
	}
	return fmt.Errorf("%s: %w", op, err)
}
