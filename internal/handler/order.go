package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-booking/internal/model"
	"github.com/iliyamo/venue-booking/internal/service"
)

// OrderHandler exposes the order workflow.
type OrderHandler struct {
	Orders *service.OrderWorkflow
}

// NewOrderHandler panics when w is nil.
func NewOrderHandler(w *service.OrderWorkflow) *OrderHandler {
	if w == nil {
		panic("nil order workflow passed to NewOrderHandler")
	}
	return &OrderHandler{Orders: w}
}

type createOrderRequest struct {
	Items []struct {
		ProductID uint64 `json:"product_id"`
		Quantity  int    `json:"quantity"`
	} `json:"items"`
	TableID            *uint64           `json:"table_id"`
	NumPeople          *int              `json:"num_people"`
	ReservationContent string            `json:"reservation_content"`
	Status             model.OrderStatus `json:"status"`
}

// Create handles POST /v1/orders.  On success it returns 201 with the
// order view.  When the order was stored but its table booking failed
// the response carries the booking failure status with order_id and
// partial=true.
func (h *OrderHandler) Create(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	var body createOrderRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	in := service.CreateOrderInput{
		TableID:            body.TableID,
		NumPeople:          body.NumPeople,
		ReservationContent: body.ReservationContent,
		RequestedStatus:    body.Status,
	}
	for _, it := range body.Items {
		in.Items = append(in.Items, service.OrderItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	v, err := h.Orders.Create(c.Request().Context(), p, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

// Get handles GET /v1/orders/:id.
func (h *OrderHandler) Get(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid order id")
	}
	v, err := h.Orders.Get(c.Request().Context(), p, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// ListMine handles GET /v1/me/orders.
func (h *OrderHandler) ListMine(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	items, err := h.Orders.ListByUser(c.Request().Context(), p, p.UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListByUser handles GET /v1/users/:id/orders.
func (h *OrderHandler) ListByUser(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	uid, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	items, err := h.Orders.ListByUser(c.Request().Context(), p, uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListAll handles GET /v1/orders.
func (h *OrderHandler) ListAll(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	items, err := h.Orders.ListAll(c.Request().Context(), p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// UpdateStatus handles PATCH /v1/orders/:id/status with {"status": "..."}.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid order id")
	}
	var body struct {
		Status model.OrderStatus `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	v, err := h.Orders.UpdateStatus(c.Request().Context(), p, id, body.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Delete handles DELETE /v1/orders/:id.  Completed orders answer 409.
func (h *OrderHandler) Delete(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid order id")
	}
	if err := h.Orders.Delete(c.Request().Context(), p, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
