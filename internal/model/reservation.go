package model

import "time"

// ReservationDuration is the fixed length of every booking window.
const ReservationDuration = 2 * time.Hour

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationBooked    ReservationStatus = "BOOKED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

// Reservation records a user's booking of a table for one window of
// ReservationDuration starting at ReservationTime.  Cancelled
// reservations are deleted, so rows in storage are normally BOOKED.
//
// Fields:
//  ID              – primary key identifier.
//  TableID         – table being reserved.
//  UserID          – user who made the reservation.
//  NumPeople       – party size, never above the table capacity.
//  ReservationTime – start of the window (UTC).
//  Status          – BOOKED or CANCELLED.
//  Content         – free-text note from the customer.
//  CreatedAt       – creation timestamp.
type Reservation struct {
	ID              uint64            `json:"id"`               // reservations.id
	TableID         uint64            `json:"table_id"`         // reservations.table_id
	UserID          uint64            `json:"user_id"`          // reservations.user_id
	NumPeople       int               `json:"num_people"`       // reservations.num_people
	ReservationTime time.Time         `json:"reservation_time"` // reservations.reservation_time
	Status          ReservationStatus `json:"status"`           // reservations.status
	Content         string            `json:"content"`          // reservations.content
	CreatedAt       time.Time         `json:"created_at"`       // reservations.created_at
}

// EndTime returns the exclusive end of the reservation window.
func (r Reservation) EndTime() time.Time {
	return r.ReservationTime.Add(ReservationDuration)
}

// Covers reports whether t falls inside [start, end).
func (r Reservation) Covers(t time.Time) bool {
	return !t.Before(r.ReservationTime) && t.Before(r.EndTime())
}
