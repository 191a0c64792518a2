package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/venue-booking/internal/model"
)

// ReservationRepo provides CRUD operations for table reservations.  All
// timestamp fields are assumed to be stored in UTC.
type ReservationRepo struct {
	db DBTX
}

// NewReservationRepo returns a new ReservationRepo bound to the given
// database or transaction.
func NewReservationRepo(db DBTX) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, table_id, user_id, num_people, reservation_time, status, content, created_at`

func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
	var res model.Reservation
	var status string
	var content sql.NullString
	err := row.Scan(&res.ID, &res.TableID, &res.UserID, &res.NumPeople,
		&res.ReservationTime, &status, &content, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	res.Status = model.ReservationStatus(status)
	res.Content = content.String
	res.ReservationTime = res.ReservationTime.UTC()
	return &res, nil
}

func (r *ReservationRepo) list(ctx context.Context, q string, args ...any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// Create inserts a new reservation and populates the generated ID and
// creation timestamp on the provided record.  When called through a
// transactional Repos the caller's transaction decides whether the row
// survives.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations (table_id, user_id, num_people, reservation_time, status, content)
			   VALUES (?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, res.TableID, res.UserID, res.NumPeople,
		res.ReservationTime.UTC(), string(res.Status), res.Content)
	if err != nil {
		return translate(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	// Query back the full row to populate timestamps and defaults
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*res = *created
	return nil
}

// GetByID returns a single reservation or ErrNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	return scanReservation(r.db.QueryRowContext(ctx, q, id))
}

// ListByTableBetween returns reservations of a table whose start time
// falls in [from, to].  This is the candidate set for overlap checks;
// the range is wider than the requested window so that a reservation
// starting before the window but still running into it is included.
func (r *ReservationRepo) ListByTableBetween(ctx context.Context, tableID uint64, from, to time.Time) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + `
		  FROM reservations
		  WHERE table_id = ? AND reservation_time BETWEEN ? AND ?
		  ORDER BY reservation_time`
	return r.list(ctx, q, tableID, from.UTC(), to.UTC())
}

// ListByTable returns every reservation of a table, oldest first.
func (r *ReservationRepo) ListByTable(ctx context.Context, tableID uint64) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE table_id = ? ORDER BY reservation_time`
	return r.list(ctx, q, tableID)
}

// ListByUser returns all reservations of the given user, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = ? ORDER BY reservation_time DESC`
	return r.list(ctx, q, userID)
}

// List returns every reservation, newest first.
func (r *ReservationRepo) List(ctx context.Context) ([]model.Reservation, error) {
	q := `SELECT ` + reservationColumns + ` FROM reservations ORDER BY reservation_time DESC`
	return r.list(ctx, q)
}

// Delete hard-deletes a reservation.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return translate(err)
	}
	return requireRow(res)
}
