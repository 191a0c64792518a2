package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/venue-booking/internal/model"
)

// OrderRepo persists orders and order items.
type OrderRepo struct{ db DBTX }

// NewOrderRepo returns an OrderRepo bound to the given handle.
func NewOrderRepo(db DBTX) *OrderRepo { return &OrderRepo{db: db} }

const orderColumns = `id, user_id, table_id, order_time, total_amount, status, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*model.Order, error) {
	var o model.Order
	var tableID sql.NullInt64
	var status string
	err := row.Scan(&o.ID, &o.UserID, &tableID, &o.OrderTime, &o.TotalAmount, &status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if tableID.Valid {
		tid := uint64(tableID.Int64)
		o.TableID = &tid
	}
	o.Status = model.OrderStatus(status)
	o.OrderTime = o.OrderTime.UTC()
	return &o, nil
}

func (r *OrderRepo) list(ctx context.Context, q string, args ...any) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// Create inserts the order row and reads it back.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	const q = `INSERT INTO orders (user_id, table_id, order_time, total_amount, status) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, o.UserID, o.TableID, o.OrderTime.UTC(), o.TotalAmount, string(o.Status))
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*o = *created
	return nil
}

// Update saves table, total and status of an existing order.
func (r *OrderRepo) Update(ctx context.Context, o *model.Order) error {
	const q = `UPDATE orders SET table_id = ?, total_amount = ?, status = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, o.TableID, o.TotalAmount, string(o.Status), o.ID)
	if err != nil {
		return translate(err)
	}
	return requireRow(res)
}

// GetByID returns one order or ErrNotFound.
func (r *OrderRepo) GetByID(ctx context.Context, id uint64) (*model.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = ?`
	return scanOrder(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDForUpdate locks the order row for the rest of the transaction.
func (r *OrderRepo) GetByIDForUpdate(ctx context.Context, id uint64) (*model.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = ? FOR UPDATE`
	return scanOrder(r.db.QueryRowContext(ctx, q, id))
}

// List returns all orders, newest first.
func (r *OrderRepo) List(ctx context.Context) ([]model.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY order_time DESC, id DESC`)
}

// ListByUser returns a user's orders, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY order_time DESC, id DESC`, userID)
}

// Delete removes the order; order_items and payments go with it through
// ON DELETE CASCADE.
func (r *OrderRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return translate(err)
	}
	return requireRow(res)
}

// CreateItem inserts one order line and sets its generated ID.
func (r *OrderRepo) CreateItem(ctx context.Context, it *model.OrderItem) error {
	const q = `INSERT INTO order_items (order_id, product_id, quantity, price) VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, it.OrderID, it.ProductID, it.Quantity, it.Price)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	it.ID = uint64(id)
	return nil
}

// ListItems returns the lines of an order in insertion order.
func (r *OrderRepo) ListItems(ctx context.Context, orderID uint64) ([]model.OrderItem, error) {
	const q = `SELECT id, order_id, product_id, quantity, price FROM order_items WHERE order_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.OrderItem, 0)
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
