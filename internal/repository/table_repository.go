package repository // repository holds data access logic for domain entities

import (
	"context"      // context is used to manage deadlines and cancellation
	"database/sql" // sql provides DB primitives
	"errors"       // errors is used for sentinel comparisons

	"github.com/iliyamo/venue-booking/internal/model"
)

// TableRepo provides methods to create, lock and update venue tables.
type TableRepo struct {
	db DBTX // db is either the pool or an open transaction
}

// NewTableRepo constructs a TableRepo with the given DB handle.
func NewTableRepo(db DBTX) *TableRepo {
	return &TableRepo{db: db}
}

const tableColumns = `id, name, capacity, status, created_at, updated_at`

func scanTable(row interface{ Scan(...any) error }) (*model.Table, error) {
	var t model.Table
	var status string
	if err := row.Scan(&t.ID, &t.Name, &t.Capacity, &status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	t.Status = model.TableStatus(status)
	return &t, nil
}

// Create inserts a new table.  After insert the row is read back so the
// generated ID and timestamps are populated.  A duplicate name yields
// ErrDuplicate.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	const q = `INSERT INTO venue_tables (name, capacity, status) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.Name, t.Capacity, string(t.Status))
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
	*t = *created
	return nil
}

// GetByID retrieves a table by its ID.  It returns ErrNotFound when no
// row is found.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	q := `SELECT ` + tableColumns + ` FROM venue_tables WHERE id = ?`
	return scanTable(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDForUpdate is GetByID with an exclusive row lock.  It only makes
// sense inside a transaction; concurrent bookings of the same table
// queue up behind the lock.
func (r *TableRepo) GetByIDForUpdate(ctx context.Context, id uint64) (*model.Table, error) {
	q := `SELECT ` + tableColumns + ` FROM venue_tables WHERE id = ? FOR UPDATE`
	return scanTable(r.db.QueryRowContext(ctx, q, id))
}

// List returns every table ordered by name.
func (r *TableRepo) List(ctx context.Context) ([]model.Table, error) {
	q := `SELECT ` + tableColumns + ` FROM venue_tables ORDER BY name`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Table, 0)
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Update overwrites name, capacity and status.
func (r *TableRepo) Update(ctx context.Context, t *model.Table) error {
	const q = `UPDATE venue_tables SET name = ?, capacity = ?, status = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, t.Name, t.Capacity, string(t.Status), t.ID); err != nil {
		return translate(err)
	}
	updated, err := r.GetByID(ctx, t.ID)
	if err != nil {
		return err
	}
	*t = *updated
	return nil
}

// UpdateStatus flips only the booking flag.
func (r *TableRepo) UpdateStatus(ctx context.Context, id uint64, status model.TableStatus) error {
	const q = `UPDATE venue_tables SET status = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, string(status), id)
	if err != nil {
		return translate(err)
	}
	return requireRow(res)
}

// Delete removes a table.  Orders referencing it keep a NULL table_id.
func (r *TableRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM venue_tables WHERE id = ?`, id)
	if err != nil {
		return translate(err)
	}
	return requireRow(res)
}

// requireRow turns a zero-row update or delete into ErrNotFound.  The
// DSN sets clientFoundRows so an UPDATE that matches a row without
// changing it still counts as one.
func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
