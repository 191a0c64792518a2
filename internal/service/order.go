package service

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/venue-booking/internal/model"
	"github.com/iliyamo/venue-booking/internal/queue"
	"github.com/iliyamo/venue-booking/internal/repository"
)

// OrderItemInput is one requested line.
type OrderItemInput struct {
	ProductID uint64
	Quantity  int
}

// CreateOrderInput is an order request.  TableID binds the order to a
// table and books it at the order time for NumPeople guests, unless
// RequestedStatus is CANCELLED, in which case the table is freed instead.
type CreateOrderInput struct {
	Items              []OrderItemInput
	TableID            *uint64
	NumPeople          *int
	ReservationContent string
	RequestedStatus    model.OrderStatus
}

// OrderWorkflow creates and manages orders.
type OrderWorkflow struct {
	base
	reservations *ReservationManager
}

// NewOrderWorkflow returns an OrderWorkflow that books tables through rm.
func NewOrderWorkflow(store repository.Store, rm *ReservationManager, opts ...Option) *OrderWorkflow {
	return &OrderWorkflow{base: newBase(store, opts), reservations: rm}
}

// Create persists the order, its items and a PENDING placeholder payment
// in one transaction, then books the table if one is bound.  When that
// booking fails the order stays committed and the error is a
// *PartialOrderError wrapping the booking failure.  Only a RequestedStatus
// of CANCELLED is honoured; any other value creates a PENDING order.
func (w *OrderWorkflow) Create(ctx context.Context, p Principal, in CreateOrderInput) (*OrderView, error) {
	for _, it := range in.Items {
		if it.Quantity <= 0 {
			return nil, newError(KindInvalidArgument, "quantity of product %d must be greater than zero", it.ProductID)
		}
	}
	cancelled := in.RequestedStatus == model.OrderCancelled

	var order model.Order
	err := w.store.WithTx(ctx, func(r repository.Repos) error {
		if _, err := r.Users().GetByID(ctx, p.UserID); err != nil {
			return storeErr(err, "user")
		}
		if in.TableID != nil {
			if _, err := r.Tables().GetByIDForUpdate(ctx, *in.TableID); err != nil {
				return storeErr(err, "table")
			}
		}

		order = model.Order{
			UserID:      p.UserID,
			TableID:     in.TableID,
			OrderTime:   w.clock(),
			TotalAmount: decimal.Zero,
			Status:      model.OrderPending,
		}
		if cancelled {
			order.Status = model.OrderCancelled
			if in.TableID != nil {
				if err := r.Tables().UpdateStatus(ctx, *in.TableID, model.TableNotBooked); err != nil {
					return storeErr(err, "table")
				}
			}
		}
		if err := r.Orders().Create(ctx, &order); err != nil {
			return storeErr(err, "order")
		}

		total := decimal.Zero
		for _, li := range in.Items {
			prod, err := r.Products().GetByID(ctx, li.ProductID)
			if err != nil {
				return storeErr(err, "product")
			}
			item := model.OrderItem{OrderID: order.ID, ProductID: prod.ID, Quantity: li.Quantity, Price: prod.Price}
			if err := r.Orders().CreateItem(ctx, &item); err != nil {
				return storeErr(err, "order item")
			}
			total = total.Add(item.LineTotal())
		}
		order.TotalAmount = total
		if err := r.Orders().Update(ctx, &order); err != nil {
			return storeErr(err, "order")
		}

		txn := model.PlaceholderTransactionID(order.ID)
		pay := model.Payment{
			OrderID:       order.ID,
			Amount:        total,
			Status:        model.PaymentPending,
			PaymentTime:   order.OrderTime,
			TransactionID: &txn,
		}
		if err := r.Payments().Create(ctx, &pay); err != nil {
			return storeErr(err, "payment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.log.Info("order created",
		zap.Uint64("order_id", order.ID),
		zap.Uint64("user_id", order.UserID),
		zap.String("status", string(order.Status)),
		zap.String("total", order.TotalAmount.StringFixed(2)))
	w.emit(ctx, queue.OrderCreated{
		OrderID:     order.ID,
		UserID:      order.UserID,
		TableID:     order.TableID,
		Status:      string(order.Status),
		TotalAmount: order.TotalAmount.StringFixed(2),
		Items:       len(in.Items),
		OccurredAt:  stamp(order.OrderTime),
	})

	if in.TableID != nil && !cancelled {
		if err := w.bookTable(ctx, p, order, in); err != nil {
			w.log.Warn("order created without reservation",
				zap.Uint64("order_id", order.ID), zap.Error(err))
			return nil, &PartialOrderError{OrderID: order.ID, Err: err}
		}
	}
	return w.view(ctx, order.ID)
}

func (w *OrderWorkflow) bookTable(ctx context.Context, p Principal, order model.Order, in CreateOrderInput) error {
	if in.NumPeople == nil || *in.NumPeople <= 0 {
		return newError(KindInvalidArgument, "num_people is required when a table is given")
	}
	_, err := w.reservations.Create(ctx, p, CreateReservationInput{
		TableID:   *in.TableID,
		NumPeople: *in.NumPeople,
		StartTime: order.OrderTime,
		Content:   in.ReservationContent,
	})
	return err
}

func (w *OrderWorkflow) view(ctx context.Context, id uint64) (*OrderView, error) {
	o, err := w.store.Orders().GetByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "order")
	}
	return project(ctx, w.store, *o)
}

// UpdateStatus overwrites the order status.  Any known status may replace
// any other; only elevated callers may do it.
func (w *OrderWorkflow) UpdateStatus(ctx context.Context, p Principal, orderID uint64, status model.OrderStatus) (*OrderView, error) {
	if !p.Elevated() {
		return nil, newError(KindAccessDenied, "only staff may change order status")
	}
	if !status.Valid() {
		return nil, newError(KindInvalidArgument, "unknown order status %q", status)
	}
	var prev model.OrderStatus
	err := w.store.WithTx(ctx, func(r repository.Repos) error {
		o, err := r.Orders().GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return storeErr(err, "order")
		}
		prev = o.Status
		o.Status = status
		return storeErr(r.Orders().Update(ctx, o), "order")
	})
	if err != nil {
		return nil, err
	}
	w.log.Info("order status changed",
		zap.Uint64("order_id", orderID),
		zap.String("from", string(prev)),
		zap.String("to", string(status)))
	return w.view(ctx, orderID)
}

// Delete removes an order with its items and payments.  COMPLETED orders
// are kept.
func (w *OrderWorkflow) Delete(ctx context.Context, p Principal, orderID uint64) error {
	return w.store.WithTx(ctx, func(r repository.Repos) error {
		o, err := r.Orders().GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return storeErr(err, "order")
		}
		if !p.CanAccess(o.UserID) {
			return newError(KindAccessDenied, "order %d belongs to another user", orderID)
		}
		if o.Status == model.OrderCompleted {
			return newError(KindConflict, "order %d is completed and cannot be deleted", orderID)
		}
		return storeErr(r.Orders().Delete(ctx, orderID), "order")
	})
}

// Get returns the projection of one order visible to the caller.
func (w *OrderWorkflow) Get(ctx context.Context, p Principal, orderID uint64) (*OrderView, error) {
	o, err := w.store.Orders().GetByID(ctx, orderID)
	if err != nil {
		return nil, storeErr(err, "order")
	}
	if !p.CanAccess(o.UserID) {
		return nil, newError(KindAccessDenied, "order %d belongs to another user", orderID)
	}
	return project(ctx, w.store, *o)
}

// ListByUser returns userID's orders, newest first.
func (w *OrderWorkflow) ListByUser(ctx context.Context, p Principal, userID uint64) ([]OrderView, error) {
	if !p.CanAccess(userID) {
		return nil, newError(KindAccessDenied, "cannot list orders of another user")
	}
	list, err := w.store.Orders().ListByUser(ctx, userID)
	if err != nil {
		return nil, storeErr(err, "orders")
	}
	return w.projectAll(ctx, list)
}

// ListAll returns every order.  Staff only.
func (w *OrderWorkflow) ListAll(ctx context.Context, p Principal) ([]OrderView, error) {
	if !p.Elevated() {
		return nil, newError(KindAccessDenied, "only staff may list all orders")
	}
	list, err := w.store.Orders().List(ctx)
	if err != nil {
		return nil, storeErr(err, "orders")
	}
	return w.projectAll(ctx, list)
}

func (w *OrderWorkflow) projectAll(ctx context.Context, list []model.Order) ([]OrderView, error) {
	out := make([]OrderView, 0, len(list))
	for _, o := range list {
		v, err := project(ctx, w.store, o)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}
