package model

import "time"

// TableStatus is the stored booking flag of a table.
type TableStatus string

const (
	TableNotBooked TableStatus = "NOT_BOOKED"
	TableBooked    TableStatus = "BOOKED"
)

// Valid reports whether s is one of the known table statuses.
func (s TableStatus) Valid() bool {
	return s == TableNotBooked || s == TableBooked
}

// Table represents a physical table of the venue as stored in the
// `venue_tables` table.  Reservations belong to a table; orders only
// reference it and survive its deletion with a NULL table_id.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique display name (e.g. "T1", "Terrace 3").
//  Capacity  – maximum number of guests, always positive.
//  Status    – NOT_BOOKED or BOOKED.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Table struct {
	ID        uint64      `json:"id"`         // venue_tables.id
	Name      string      `json:"name"`       // venue_tables.name
	Capacity  int         `json:"capacity"`   // venue_tables.capacity
	Status    TableStatus `json:"status"`     // venue_tables.status
	CreatedAt time.Time   `json:"created_at"` // venue_tables.created_at
	UpdatedAt time.Time   `json:"updated_at"` // venue_tables.updated_at
}
