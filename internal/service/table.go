package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/venue-booking/internal/model"
	"github.com/iliyamo/venue-booking/internal/repository"
)

// TableInput carries the fields of a create or update.  Nil fields are
// left unchanged on update.
type TableInput struct {
	Name     *string
	Capacity *int
	Status   *model.TableStatus
}

// Drift is a table whose stored flag disagrees with its reservations.
type Drift struct {
	TableID uint64            `json:"table_id"`
	Name    string            `json:"name"`
	Stored  model.TableStatus `json:"stored"`
	Derived model.TableStatus `json:"derived"`
}

// TableAdmin manages the venue's tables.  Every mutation is staff only.
type TableAdmin struct {
	base
}

// NewTableAdmin returns a TableAdmin over store.
func NewTableAdmin(store repository.Store, opts ...Option) *TableAdmin {
	return &TableAdmin{base: newBase(store, opts)}
}

func requireStaff(p Principal) error {
	if !p.Elevated() {
		return newError(KindAccessDenied, "only staff may manage tables")
	}
	return nil
}

// Create adds a table.  New tables start NOT_BOOKED.
func (a *TableAdmin) Create(ctx context.Context, p Principal, in TableInput) (*model.Table, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, newError(KindInvalidArgument, "name is required")
	}
	if in.Capacity == nil || *in.Capacity <= 0 {
		return nil, newError(KindInvalidArgument, "capacity must be greater than zero")
	}
	if in.Status != nil && *in.Status != model.TableNotBooked {
		if !in.Status.Valid() {
			return nil, newError(KindInvalidArgument, "unknown table status %q", *in.Status)
		}
		return nil, newError(KindConflict, "a table without reservations cannot be BOOKED")
	}
	t := &model.Table{Name: strings.TrimSpace(*in.Name), Capacity: *in.Capacity, Status: model.TableNotBooked}
	if err := a.store.Tables().Create(ctx, t); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(KindConflict, "table %s already exists", t.Name)
		}
		return nil, storeErr(err, "table")
	}
	a.log.Info("table created", zap.Uint64("table_id", t.ID), zap.String("name", t.Name))
	return t, nil
}

// Update changes name, capacity or status.  Setting BOOKED requires at
// least one reservation on the table.
func (a *TableAdmin) Update(ctx context.Context, p Principal, id uint64, in TableInput) (*model.Table, error) {
	if err := requireStaff(p); err != nil {
		return nil, err
	}
	var out model.Table
	err := a.store.WithTx(ctx, func(r repository.Repos) error {
		t, err := r.Tables().GetByIDForUpdate(ctx, id)
		if err != nil {
			return storeErr(err, "table")
		}
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return newError(KindInvalidArgument, "name must not be empty")
			}
			t.Name = name
		}
		if in.Capacity != nil {
			if *in.Capacity <= 0 {
				return newError(KindInvalidArgument, "capacity must be greater than zero")
			}
			t.Capacity = *in.Capacity
		}
		if in.Status != nil {
			if !in.Status.Valid() {
				return newError(KindInvalidArgument, "unknown table status %q", *in.Status)
			}
			if *in.Status == model.TableBooked {
				list, err := r.Reservations().ListByTable(ctx, id)
				if err != nil {
					return storeErr(err, "reservations")
				}
				if len(list) == 0 {
					return newError(KindConflict, "table %s has no reservation and cannot be BOOKED", t.Name)
				}
			}
			t.Status = *in.Status
		}
		if err := r.Tables().Update(ctx, t); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return newError(KindConflict, "table %s already exists", t.Name)
			}
			return storeErr(err, "table")
		}
		out = *t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a table that has no reservations.  Orders that
// referenced it keep existing without a table.
func (a *TableAdmin) Delete(ctx context.Context, p Principal, id uint64) error {
	if err := requireStaff(p); err != nil {
		return err
	}
	err := a.store.WithTx(ctx, func(r repository.Repos) error {
		t, err := r.Tables().GetByIDForUpdate(ctx, id)
		if err != nil {
			return storeErr(err, "table")
		}
		list, err := r.Reservations().ListByTable(ctx, id)
		if err != nil {
			return storeErr(err, "reservations")
		}
		if len(list) > 0 {
			return newError(KindConflict, "table %s still has %d reservation(s)", t.Name, len(list))
		}
		return storeErr(r.Tables().Delete(ctx, id), "table")
	})
	if err != nil {
		return err
	}
	a.log.Info("table deleted", zap.Uint64("table_id", id))
	return nil
}

// Get returns one table.
func (a *TableAdmin) Get(ctx context.Context, id uint64) (*model.Table, error) {
	t, err := a.store.Tables().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "table")
	}
	return t, nil
}

// List returns every table ordered by name.
func (a *TableAdmin) List(ctx context.Context) ([]model.Table, error) {
	list, err := a.store.Tables().List(ctx)
	if err != nil {
		return nil, storeErr(err, "tables")
	}
	return list, nil
}

// DerivedStatus is the status a table would have if it were computed:
// BOOKED while a BOOKED reservation's window contains at.
func DerivedStatus(reservations []model.Reservation, at time.Time) model.TableStatus {
	for _, r := range reservations {
		if r.Status == model.ReservationBooked && r.Covers(at) {
			return model.TableBooked
		}
	}
	return model.TableNotBooked
}

// CheckConsistency lists the tables whose stored flag differs from
// DerivedStatus at the given instant.  A zero at means now.
func (a *TableAdmin) CheckConsistency(ctx context.Context, at time.Time) ([]Drift, error) {
	if at.IsZero() {
		at = a.clock()
	}
	tables, err := a.store.Tables().List(ctx)
	if err != nil {
		return nil, storeErr(err, "tables")
	}
	drift := make([]Drift, 0)
	for _, t := range tables {
		list, err := a.store.Reservations().ListByTable(ctx, t.ID)
		if err != nil {
			return nil, storeErr(err, "reservations")
		}
		if d := DerivedStatus(list, at); d != t.Status {
			drift = append(drift, Drift{TableID: t.ID, Name: t.Name, Stored: t.Status, Derived: d})
		}
	}
	if len(drift) > 0 {
		a.log.Warn("table status drift", zap.Int("tables", len(drift)))
	}
	return drift, nil
}
