// Package queue defines the domain events exchanged over the message
// broker together with their publisher and consumer.
package queue

import (
	"encoding/json"
	"fmt"
)

// Queue names.  Every event type is routed through the default exchange to
// a durable queue of the same name.
const (
	ReservationCreatedQueue   = "reservation.created"
	ReservationCancelledQueue = "reservation.cancelled"
	OrderCreatedQueue         = "order.created"
	PaymentReconciledQueue    = "payment.reconciled"
)

// Queues lists every queue the consumer listens to.
var Queues = []string{
	ReservationCreatedQueue,
	ReservationCancelledQueue,
	OrderCreatedQueue,
	PaymentReconciledQueue,
}

// Event is a message published after a successful commit.
type Event interface {
	// QueueName is the routing key and queue the event is published to.
	QueueName() string
	// LogLine renders the event as one human readable line for
	// logs/venue.log, without the trailing newline.
	LogLine() string
}

// ReservationCreated is published when a table was booked.
type ReservationCreated struct {
	ReservationID uint64 `json:"reservation_id"`
	TableID       uint64 `json:"table_id"`
	TableName     string `json:"table_name"`
	UserID        uint64 `json:"user_id"`
	NumPeople     int    `json:"num_people"`
	StartsAt      string `json:"starts_at"`
	EndsAt        string `json:"ends_at"`
	OccurredAt    string `json:"occurred_at"`
}

func (ReservationCreated) QueueName() string { return ReservationCreatedQueue }

func (e ReservationCreated) LogLine() string {
	return fmt.Sprintf("[%s] Reservation created | reservation_id=%d | table_id=%d | table=%q | user_id=%d | people=%d | window=%s..%s",
		e.OccurredAt, e.ReservationID, e.TableID, e.TableName, e.UserID, e.NumPeople, e.StartsAt, e.EndsAt)
}

// ReservationCancelled is published when a reservation was deleted and
// its table freed.
type ReservationCancelled struct {
	ReservationID uint64 `json:"reservation_id"`
	TableID       uint64 `json:"table_id"`
	UserID        uint64 `json:"user_id"`
	CancelledBy   uint64 `json:"cancelled_by"`
	OccurredAt    string `json:"occurred_at"`
}

func (ReservationCancelled) QueueName() string { return ReservationCancelledQueue }

func (e ReservationCancelled) LogLine() string {
	return fmt.Sprintf("[%s] Reservation cancelled | reservation_id=%d | table_id=%d | user_id=%d | by=%d",
		e.OccurredAt, e.ReservationID, e.TableID, e.UserID, e.CancelledBy)
}

// OrderCreated is published once the order, its items and the placeholder
// payment are committed.
type OrderCreated struct {
	OrderID     uint64  `json:"order_id"`
	UserID      uint64  `json:"user_id"`
	TableID     *uint64 `json:"table_id,omitempty"`
	Status      string  `json:"status"`
	TotalAmount string  `json:"total_amount"`
	Items       int     `json:"items"`
	OccurredAt  string  `json:"occurred_at"`
}

func (OrderCreated) QueueName() string { return OrderCreatedQueue }

func (e OrderCreated) LogLine() string {
	table := "-"
	if e.TableID != nil {
		table = fmt.Sprint(*e.TableID)
	}
	return fmt.Sprintf("[%s] Order created | order_id=%d | user_id=%d | table_id=%s | status=%s | total=%s | items=%d",
		e.OccurredAt, e.OrderID, e.UserID, table, e.Status, e.TotalAmount, e.Items)
}

// PaymentReconciled is published after a provider callback changed a
// payment.
type PaymentReconciled struct {
	OrderID       uint64 `json:"order_id"`
	PaymentID     uint64 `json:"payment_id"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id,omitempty"`
	Amount        string `json:"amount"`
	OccurredAt    string `json:"occurred_at"`
}

func (PaymentReconciled) QueueName() string { return PaymentReconciledQueue }

func (e PaymentReconciled) LogLine() string {
	return fmt.Sprintf("[%s] Payment %s | order_id=%d | payment_id=%d | txn=%q | amount=%s",
		e.OccurredAt, e.Status, e.OrderID, e.PaymentID, e.TransactionID, e.Amount)
}

// Decode unmarshals a message body received from the named queue.
func Decode(queueName string, body []byte) (Event, error) {
	var ev Event
	switch queueName {
	case ReservationCreatedQueue:
		ev = &ReservationCreated{}
	case ReservationCancelledQueue:
		ev = &ReservationCancelled{}
	case OrderCreatedQueue:
		ev = &OrderCreated{}
	case PaymentReconciledQueue:
		ev = &PaymentReconciled{}
	default:
		return nil, fmt.Errorf("unknown queue %q", queueName)
	}
	if err := json.Unmarshal(body, ev); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", queueName, err)
	}
	return ev, nil
}
