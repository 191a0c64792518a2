package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the state of one payment attempt.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

// PendingTransactionPrefix marks the placeholder payment created together
// with an order, before any provider reference exists.
const PendingTransactionPrefix = "PENDING_"

// Payment is one payment attempt for an order.  An order may collect
// several attempts; a provider transaction id appears on at most one row.
type Payment struct {
	ID            uint64          `json:"id"`             // payments.id
	OrderID       uint64          `json:"order_id"`       // payments.order_id
	Amount        decimal.Decimal `json:"amount"`         // payments.amount
	Status        PaymentStatus   `json:"status"`         // payments.status
	PaymentTime   time.Time       `json:"payment_time"`   // payments.payment_time
	TransactionID *string         `json:"transaction_id"` // payments.transaction_id (nullable, unique)
}

// PlaceholderTransactionID returns the transaction id given to the
// initial PENDING payment of an order.
func PlaceholderTransactionID(orderID uint64) string {
	return PendingTransactionPrefix + strconv.FormatUint(orderID, 10)
}

// IsPlaceholder reports whether p is still an unreconciled placeholder:
// PENDING with no provider reference yet.
func (p Payment) IsPlaceholder() bool {
	if p.Status != PaymentPending {
		return false
	}
	return p.TransactionID == nil || *p.TransactionID == "" ||
		strings.HasPrefix(*p.TransactionID, PendingTransactionPrefix)
}
