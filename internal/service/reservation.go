package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/venue-booking/internal/model"
	"github.com/iliyamo/venue-booking/internal/queue"
	"github.com/iliyamo/venue-booking/internal/repository"
)

// CreateReservationInput is a booking request.  The window always lasts
// model.ReservationDuration.
type CreateReservationInput struct {
	TableID   uint64
	NumPeople int
	StartTime time.Time
	Content   string
}

// ReservationManager owns the table/reservation state machine.
type ReservationManager struct {
	base
	strictStatus bool
}

// NewReservationManager returns a ReservationManager over store.  With
// strictStatus set, a table whose stored flag is BOOKED refuses every new
// reservation even when the requested window is free.
func NewReservationManager(store repository.Store, strictStatus bool, opts ...Option) *ReservationManager {
	return &ReservationManager{base: newBase(store, opts), strictStatus: strictStatus}
}

// Create books a table for the caller.  The table row is locked for the
// whole check-then-insert sequence, so two overlapping requests for the
// same table cannot both succeed.
func (m *ReservationManager) Create(ctx context.Context, p Principal, in CreateReservationInput) (*model.Reservation, error) {
	if in.NumPeople <= 0 {
		return nil, newError(KindInvalidArgument, "num_people must be greater than zero")
	}
	if in.StartTime.IsZero() {
		return nil, newError(KindInvalidArgument, "reservation_time is required")
	}
	var (
		created model.Reservation
		table   model.Table
	)
	err := m.store.WithTx(ctx, func(r repository.Repos) error {
		res, t, err := m.book(ctx, r, p.UserID, in)
		if err != nil {
			return err
		}
		created, table = *res, *t
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.log.Info("reservation created",
		zap.Uint64("reservation_id", created.ID),
		zap.Uint64("table_id", created.TableID),
		zap.Uint64("user_id", created.UserID))
	m.emit(ctx, queue.ReservationCreated{
		ReservationID: created.ID,
		TableID:       table.ID,
		TableName:     table.Name,
		UserID:        created.UserID,
		NumPeople:     created.NumPeople,
		StartsAt:      stamp(created.ReservationTime),
		EndsAt:        stamp(created.EndTime()),
		OccurredAt:    stamp(m.clock()),
	})
	return &created, nil
}

// book runs the guarded insert inside the caller's transaction.
func (m *ReservationManager) book(ctx context.Context, r repository.Repos, userID uint64, in CreateReservationInput) (*model.Reservation, *model.Table, error) {
	if _, err := r.Users().GetByID(ctx, userID); err != nil {
		return nil, nil, storeErr(err, "user")
	}
	table, err := r.Tables().GetByIDForUpdate(ctx, in.TableID)
	if err != nil {
		return nil, nil, storeErr(err, "table")
	}
	if in.NumPeople > table.Capacity {
		return nil, nil, newError(KindCapacityExceeded,
			"party of %d exceeds capacity %d of table %s", in.NumPeople, table.Capacity, table.Name)
	}
	start := in.StartTime.UTC().Truncate(time.Second)
	conflict, err := TableHasConflict(ctx, r.Reservations(), table.ID, start, model.ReservationDuration)
	if err != nil {
		return nil, nil, storeErr(err, "reservations")
	}
	if conflict {
		return nil, nil, newError(KindSlotConflict,
			"table %s is already reserved around %s", table.Name, start.Format(time.RFC3339))
	}
	if m.strictStatus && table.Status == model.TableBooked {
		return nil, nil, newError(KindSlotConflict, "table %s is currently booked", table.Name)
	}
	if err := r.Tables().UpdateStatus(ctx, table.ID, model.TableBooked); err != nil {
		return nil, nil, storeErr(err, "table")
	}
	table.Status = model.TableBooked
	res := &model.Reservation{
		TableID:         table.ID,
		UserID:          userID,
		NumPeople:       in.NumPeople,
		ReservationTime: start,
		Status:          model.ReservationBooked,
		Content:         in.Content,
	}
	if err := r.Reservations().Create(ctx, res); err != nil {
		return nil, nil, storeErr(err, "reservation")
	}
	return res, table, nil
}

// Cancel deletes a reservation and frees its table.  The table is freed
// even when other reservations on it are still BOOKED; TableAdmin's
// CheckConsistency reports the resulting drift.
func (m *ReservationManager) Cancel(ctx context.Context, p Principal, reservationID uint64) error {
	var res model.Reservation
	err := m.store.WithTx(ctx, func(r repository.Repos) error {
		got, err := r.Reservations().GetByID(ctx, reservationID)
		if err != nil {
			return storeErr(err, "reservation")
		}
		if !p.CanAccess(got.UserID) {
			return newError(KindAccessDenied, "reservation %d belongs to another user", reservationID)
		}
		if _, err := r.Tables().GetByIDForUpdate(ctx, got.TableID); err != nil {
			return storeErr(err, "table")
		}
		if err := r.Tables().UpdateStatus(ctx, got.TableID, model.TableNotBooked); err != nil {
			return storeErr(err, "table")
		}
		if err := r.Reservations().Delete(ctx, got.ID); err != nil {
			return storeErr(err, "reservation")
		}
		res = *got
		return nil
	})
	if err != nil {
		return err
	}
	m.log.Info("reservation cancelled",
		zap.Uint64("reservation_id", res.ID),
		zap.Uint64("table_id", res.TableID),
		zap.Uint64("by", p.UserID))
	m.emit(ctx, queue.ReservationCancelled{
		ReservationID: res.ID,
		TableID:       res.TableID,
		UserID:        res.UserID,
		CancelledBy:   p.UserID,
		OccurredAt:    stamp(m.clock()),
	})
	return nil
}

// Get returns one reservation visible to the caller.
func (m *ReservationManager) Get(ctx context.Context, p Principal, id uint64) (*model.Reservation, error) {
	res, err := m.store.Reservations().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "reservation")
	}
	if !p.CanAccess(res.UserID) {
		return nil, newError(KindAccessDenied, "reservation %d belongs to another user", id)
	}
	return res, nil
}

// ListByUser returns userID's reservations, newest first.
func (m *ReservationManager) ListByUser(ctx context.Context, p Principal, userID uint64) ([]model.Reservation, error) {
	if !p.CanAccess(userID) {
		return nil, newError(KindAccessDenied, "cannot list reservations of another user")
	}
	list, err := m.store.Reservations().ListByUser(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "reservations")
	}
	return list, nil
}

// ListAll returns every reservation, newest first.  Staff only.
func (m *ReservationManager) ListAll(ctx context.Context, p Principal) ([]model.Reservation, error) {
	if !p.Elevated() {
		return nil, newError(KindAccessDenied, "only staff may list all reservations")
	}
	list, err := m.store.Reservations().List(ctx)
	if err != nil {
		return nil, storeErr(err, "reservations")
	}
	return list, nil
}
