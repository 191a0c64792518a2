package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-booking/internal/service"
)

// PaymentHandler receives the payment provider's redirects.  These routes
// are unauthenticated; the ledger never lets a failure escape and always
// answers with a Reconciliation.
type PaymentHandler struct {
	Ledger *service.PaymentLedger
}

// NewPaymentHandler panics when l is nil.
func NewPaymentHandler(l *service.PaymentLedger) *PaymentHandler {
	if l == nil {
		panic("nil payment ledger passed to NewPaymentHandler")
	}
	return &PaymentHandler{Ledger: l}
}

func reconciliation(c echo.Context, rec service.Reconciliation) error {
	if rec.OK() {
		return c.JSON(http.StatusOK, rec)
	}
	return c.JSON(http.StatusInternalServerError, rec)
}

func orderIDParam(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.QueryParam("orderId"), 10, 64)
	return id, err == nil && id > 0
}

// Success handles GET /v1/payments/success?orderId=&paymentId=&PayerID=.
func (h *PaymentHandler) Success(c echo.Context) error {
	orderID, ok := orderIDParam(c)
	if !ok {
		return reconciliation(c, service.Reconciliation{Status: service.ReconcileError, Message: "Payment processing failed: invalid orderId"})
	}
	rec := h.Ledger.ReconcileSuccess(c.Request().Context(), orderID, c.QueryParam("paymentId"))
	if rec.OK() {
		c.Logger().Infof("payment confirmed order=%d payer=%s", orderID, c.QueryParam("PayerID"))
	}
	return reconciliation(c, rec)
}

// Cancel handles GET /v1/payments/cancel?orderId=.
func (h *PaymentHandler) Cancel(c echo.Context) error {
	orderID, ok := orderIDParam(c)
	if !ok {
		return reconciliation(c, service.Reconciliation{Status: service.ReconcileError, Message: "Failed to cancel payment: invalid orderId"})
	}
	return reconciliation(c, h.Ledger.ReconcileCancel(c.Request().Context(), orderID))
}
