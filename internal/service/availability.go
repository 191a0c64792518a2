package service

import (
	"context"
	"time"

	"github.com/iliyamo/venue-booking/internal/model"
	"github.com/iliyamo/venue-booking/internal/repository"
)

// CandidateWindow returns the inclusive range of start times whose own
// window of length d could overlap a window starting at start.
func CandidateWindow(start time.Time, d time.Duration) (from, to time.Time) {
	return start.Add(-d), start.Add(d)
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Windows that only touch do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// HasConflict reports whether any BOOKED candidate's window of length d
// overlaps the window of length d starting at start.  Cancelled
// reservations never conflict.
func HasConflict(candidates []model.Reservation, start time.Time, d time.Duration) bool {
	end := start.Add(d)
	for _, c := range candidates {
		if c.Status != model.ReservationBooked {
			continue
		}
		if Overlaps(start, end, c.ReservationTime, c.ReservationTime.Add(d)) {
			return true
		}
	}
	return false
}

// TableHasConflict loads the candidates of tableID and runs HasConflict.
// It takes no lock; callers serialize by locking the table row first.
func TableHasConflict(ctx context.Context, rs repository.ReservationStore, tableID uint64, start time.Time, d time.Duration) (bool, error) {
	from, to := CandidateWindow(start, d)
	candidates, err := rs.ListByTableBetween(ctx, tableID, from, to)
	if err != nil {
		return false, err
	}
	return HasConflict(candidates, start, d), nil
}
