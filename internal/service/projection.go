package service

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/venue-booking/internal/model"
	"github.com/iliyamo/venue-booking/internal/repository"
)

// OrderView is the read projection of an order with its user, table,
// items and payments resolved.
type OrderView struct {
	ID          uint64            `json:"id"`
	OrderTime   time.Time         `json:"order_time"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Status      model.OrderStatus `json:"status"`
	User        UserSummary       `json:"user"`
	Table       *TableSummary     `json:"table"`
	Items       []OrderItemView   `json:"items"`
	Payments    []model.Payment   `json:"payments"`
}

type UserSummary struct {
	ID    uint64 `json:"id"`
	Email string `json:"email,omitempty"`
}

type TableSummary struct {
	ID           uint64               `json:"id"`
	Name         string               `json:"name"`
	Capacity     int                  `json:"capacity"`
	Status       model.TableStatus    `json:"status"`
	Reservations []ReservationSummary `json:"reservations"`
}

type ReservationSummary struct {
	ID              uint64                  `json:"id"`
	UserID          uint64                  `json:"user_id"`
	NumPeople       int                     `json:"num_people"`
	ReservationTime time.Time               `json:"reservation_time"`
	Status          model.ReservationStatus `json:"status"`
}

// OrderItemView pairs the frozen line price with the product as it looks
// today.  Product is nil when the product no longer exists.
type OrderItemView struct {
	ID       uint64          `json:"id"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Product  *ProductSummary `json:"product"`
}

type ProductSummary struct {
	ID       uint64          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url,omitempty"`
}

// project assembles the view of o.  It only reads.
func project(ctx context.Context, r repository.Repos, o model.Order) (*OrderView, error) {
	v := &OrderView{
		ID:          o.ID,
		OrderTime:   o.OrderTime,
		TotalAmount: o.TotalAmount,
		Status:      o.Status,
		User:        UserSummary{ID: o.UserID},
	}

	u, err := r.Users().GetByID(ctx, o.UserID)
	switch {
	case err == nil:
		v.User.Email = u.Email
	case !errors.Is(err, repository.ErrNotFound):
		return nil, storeErr(err, "user")
	}

	if o.TableID != nil {
		t, err := r.Tables().GetByID(ctx, *o.TableID)
		switch {
		case err == nil:
			ts, err := tableSummary(ctx, r, *t)
			if err != nil {
				return nil, err
			}
			v.Table = ts
		case !errors.Is(err, repository.ErrNotFound):
			return nil, storeErr(err, "table")
		}
	}

	items, err := r.Orders().ListItems(ctx, o.ID)
	if err != nil {
		return nil, storeErr(err, "order items")
	}
	v.Items = make([]OrderItemView, 0, len(items))
	for _, it := range items {
		iv := OrderItemView{ID: it.ID, Quantity: it.Quantity, Price: it.Price}
		prod, err := r.Products().GetByID(ctx, it.ProductID)
		switch {
		case err == nil:
			iv.Product = &ProductSummary{ID: prod.ID, Name: prod.Name, Price: prod.Price, ImageURL: prod.ImageURL}
		case !errors.Is(err, repository.ErrNotFound):
			return nil, storeErr(err, "product")
		}
		v.Items = append(v.Items, iv)
	}

	v.Payments, err = r.Payments().ListByOrder(ctx, o.ID)
	if err != nil {
		return nil, storeErr(err, "payments")
	}
	return v, nil
}

func tableSummary(ctx context.Context, r repository.Repos, t model.Table) (*TableSummary, error) {
	list, err := r.Reservations().ListByTable(ctx, t.ID)
	if err != nil {
		return nil, storeErr(err, "reservations")
	}
	ts := &TableSummary{
		ID:           t.ID,
		Name:         t.Name,
		Capacity:     t.Capacity,
		Status:       t.Status,
		Reservations: make([]ReservationSummary, 0, len(list)),
	}
	for _, res := range list {
		ts.Reservations = append(ts.Reservations, ReservationSummary{
			ID:              res.ID,
			UserID:          res.UserID,
			NumPeople:       res.NumPeople,
			ReservationTime: res.ReservationTime,
			Status:          res.Status,
		})
	}
	return ts, nil
}
