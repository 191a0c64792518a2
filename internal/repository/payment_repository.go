package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/venue-booking/internal/model"
)

// PaymentRepo persists payment attempts.
type PaymentRepo struct{ db DBTX }

// NewPaymentRepo returns a PaymentRepo bound to the given handle.
func NewPaymentRepo(db DBTX) *PaymentRepo { return &PaymentRepo{db: db} }

// Create inserts a payment.  A transaction id already used by another
// payment yields ErrDuplicate.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	const q = `INSERT INTO payments (order_id, amount, status, payment_time, transaction_id) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, p.OrderID, p.Amount, string(p.Status), p.PaymentTime.UTC(), p.TransactionID)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// Update saves amount, status, time and transaction id.
func (r *PaymentRepo) Update(ctx context.Context, p *model.Payment) error {
	const q = `UPDATE payments SET amount = ?, status = ?, payment_time = ?, transaction_id = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, p.Amount, string(p.Status), p.PaymentTime.UTC(), p.TransactionID, p.ID)
	if err != nil {
		return translate(err)
	}
	return requireRow(res)
}

// ListByOrder returns an order's payments ordered by id.
func (r *PaymentRepo) ListByOrder(ctx context.Context, orderID uint64) ([]model.Payment, error) {
	const q = `SELECT id, order_id, amount, status, payment_time, transaction_id
			   FROM payments WHERE order_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Payment, 0)
	for rows.Next() {
		var p model.Payment
		var status string
		var txn sql.NullString
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Amount, &status, &p.PaymentTime, &txn); err != nil {
			return nil, err
		}
		p.Status = model.PaymentStatus(status)
		p.PaymentTime = p.PaymentTime.UTC()
		if txn.Valid {
			s := txn.String
			p.TransactionID = &s
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
