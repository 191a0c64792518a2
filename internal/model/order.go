package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.  Transitions are not
// restricted; any known status may overwrite any other.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderPreparing OrderStatus = "PREPARING"
	OrderServed    OrderStatus = "SERVED"
	OrderCompleted OrderStatus = "COMPLETED"
	OrderCancelled OrderStatus = "CANCELLED"
)

var orderStatuses = map[OrderStatus]bool{
	OrderPending:   true,
	OrderConfirmed: true,
	OrderPreparing: true,
	OrderServed:    true,
	OrderCompleted: true,
	OrderCancelled: true,
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool { return orderStatuses[s] }

// Order is a customer's order, optionally bound to a table.  The order
// exclusively owns its items and payments; deleting it removes both.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – customer who placed the order.
//  TableID     – optional table reference (nil for takeaway or after the
//                table was deleted).
//  OrderTime   – when the order was placed (UTC).
//  TotalAmount – sum of item price × quantity.
//  Status      – see OrderStatus.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Order struct {
	ID          uint64          `json:"id"`           // orders.id
	UserID      uint64          `json:"user_id"`      // orders.user_id
	TableID     *uint64         `json:"table_id"`     // orders.table_id (nullable)
	OrderTime   time.Time       `json:"order_time"`   // orders.order_time
	TotalAmount decimal.Decimal `json:"total_amount"` // orders.total_amount
	Status      OrderStatus     `json:"status"`       // orders.status
	CreatedAt   time.Time       `json:"created_at"`   // orders.created_at
	UpdatedAt   time.Time       `json:"updated_at"`   // orders.updated_at
}

// OrderItem is one line of an order.  Price is the product price copied
// at order time and is never re-read from the product afterwards.
type OrderItem struct {
	ID        uint64          `json:"id"`         // order_items.id
	OrderID   uint64          `json:"order_id"`   // order_items.order_id
	ProductID uint64          `json:"product_id"` // order_items.product_id
	Quantity  int             `json:"quantity"`   // order_items.quantity
	Price     decimal.Decimal `json:"price"`      // order_items.price
}

// LineTotal returns price × quantity.
func (it OrderItem) LineTotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}
