package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/iliyamo/venue-booking/internal/model"
	"github.com/iliyamo/venue-booking/internal/queue"
	"github.com/iliyamo/venue-booking/internal/repository"
)

// Reconciliation outcomes.
const (
	ReconcileOK    = "success"
	ReconcileError = "error"
)

// Reconciliation is the result of a payment provider callback.  Failures
// are reported here, never as a Go error.
type Reconciliation struct {
	Status  string         `json:"status"`
	OrderID uint64         `json:"orderId"`
	Message string         `json:"message"`
	Payment *model.Payment `json:"payment,omitempty"`
}

// OK reports whether the callback was applied.
func (r Reconciliation) OK() bool { return r.Status == ReconcileOK }

// PaymentLedger reconciles provider callbacks into payment rows.
type PaymentLedger struct {
	base
}

// NewPaymentLedger returns a PaymentLedger over store.
func NewPaymentLedger(store repository.Store, opts ...Option) *PaymentLedger {
	return &PaymentLedger{base: newBase(store, opts)}
}

// ReconcileSuccess marks a payment of orderID COMPLETED with the
// provider's id.  The payment chosen is, in order: the one already
// carrying externalID, the first unreconciled placeholder, or a new row
// for the order total.  Calling it again with the same id changes nothing.
func (l *PaymentLedger) ReconcileSuccess(ctx context.Context, orderID uint64, externalID string) (rec Reconciliation) {
	rec = Reconciliation{OrderID: orderID}
	defer l.guard(&rec, "Payment processing failed")

	if externalID == "" {
		return l.fail(rec, "Payment processing failed", newError(KindInvalidArgument, "missing payment id"))
	}
	var (
		pay     model.Payment
		changed bool
	)
	err := l.store.WithTx(ctx, func(r repository.Repos) error {
		order, err := r.Orders().GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return storeErr(err, "order")
		}
		list, err := r.Payments().ListByOrder(ctx, order.ID)
		if err != nil {
			return storeErr(err, "payments")
		}
		target := matchSuccess(list, externalID)
		if target != nil && target.Status == model.PaymentCompleted {
			pay = *target
			return nil
		}
		now := l.clock()
		txn := externalID
		if target == nil {
			pay = model.Payment{OrderID: order.ID, Amount: order.TotalAmount}
		} else {
			pay = *target
		}
		pay.TransactionID = &txn
		pay.Status = model.PaymentCompleted
		pay.PaymentTime = now
		changed = true
		if target == nil {
			err = r.Payments().Create(ctx, &pay)
		} else {
			err = r.Payments().Update(ctx, &pay)
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return newError(KindConflict, "transaction %s already belongs to another payment", externalID)
		}
		return storeErr(err, "payment")
	})
	if err != nil {
		return l.fail(rec, "Payment processing failed", err)
	}
	if changed {
		l.published(ctx, pay)
	}
	rec.Status = ReconcileOK
	rec.Message = "Payment successful! Your order is being processed."
	rec.Payment = &pay
	return rec
}

// matchSuccess picks the payment a success callback applies to, or nil
// when a new one must be created.
func matchSuccess(list []model.Payment, externalID string) *model.Payment {
	for i := range list {
		if t := list[i].TransactionID; t != nil && *t == externalID {
			return &list[i]
		}
	}
	for i := range list {
		if list[i].IsPlaceholder() {
			return &list[i]
		}
	}
	return nil
}

// ReconcileCancel marks the first payment of orderID CANCELLED, creating
// one for the order total when none exists.
func (l *PaymentLedger) ReconcileCancel(ctx context.Context, orderID uint64) (rec Reconciliation) {
	rec = Reconciliation{OrderID: orderID}
	defer l.guard(&rec, "Failed to cancel payment")

	var pay model.Payment
	err := l.store.WithTx(ctx, func(r repository.Repos) error {
		order, err := r.Orders().GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return storeErr(err, "order")
		}
		list, err := r.Payments().ListByOrder(ctx, order.ID)
		if err != nil {
			return storeErr(err, "payments")
		}
		fresh := len(list) == 0
		if fresh {
			pay = model.Payment{OrderID: order.ID, Amount: order.TotalAmount}
		} else {
			pay = list[0]
		}
		pay.Status = model.PaymentCancelled
		pay.PaymentTime = l.clock()
		if fresh {
			return storeErr(r.Payments().Create(ctx, &pay), "payment")
		}
		return storeErr(r.Payments().Update(ctx, &pay), "payment")
	})
	if err != nil {
		return l.fail(rec, "Failed to cancel payment", err)
	}
	l.published(ctx, pay)
	rec.Status = ReconcileOK
	rec.Message = "Payment cancelled successfully."
	rec.Payment = &pay
	return rec
}

func (l *PaymentLedger) fail(rec Reconciliation, prefix string, err error) Reconciliation {
	l.log.Warn("payment reconciliation failed", zap.Uint64("order_id", rec.OrderID), zap.Error(err))
	rec.Status = ReconcileError
	rec.Message = prefix + ": " + err.Error()
	rec.Payment = nil
	return rec
}

// guard converts a panic into an error result.
func (l *PaymentLedger) guard(rec *Reconciliation, prefix string) {
	if v := recover(); v != nil {
		*rec = l.fail(*rec, prefix, fmt.Errorf("panic: %v", v))
	}
}

func (l *PaymentLedger) published(ctx context.Context, p model.Payment) {
	l.log.Info("payment reconciled",
		zap.Uint64("order_id", p.OrderID),
		zap.Uint64("payment_id", p.ID),
		zap.String("status", string(p.Status)))
	ev := queue.PaymentReconciled{
		OrderID:    p.OrderID,
		PaymentID:  p.ID,
		Status:     string(p.Status),
		Amount:     p.Amount.StringFixed(2),
		OccurredAt: stamp(p.PaymentTime),
	}
	if p.TransactionID != nil {
		ev.TransactionID = *p.TransactionID
	}
	l.emit(ctx, ev)
}
