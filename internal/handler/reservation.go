package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-booking/internal/service"
)

// ReservationHandler exposes table reservations.  Every method assumes
// JWTAuth ran before it.
type ReservationHandler struct {
	Manager *service.ReservationManager
}

// NewReservationHandler panics when m is nil.
func NewReservationHandler(m *service.ReservationManager) *ReservationHandler {
	if m == nil {
		panic("nil reservation manager passed to NewReservationHandler")
	}
	return &ReservationHandler{Manager: m}
}

type createReservationRequest struct {
	TableID         uint64   `json:"table_id"`
	NumPeople       int      `json:"num_people"`
	ReservationTime wallTime `json:"reservation_time"`
	Content         string   `json:"content"`
}

// wallTimeLayouts are tried in order.  Layouts without a zone are read
// as UTC, the zone every stored time uses.
var wallTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// wallTime is a JSON timestamp that also accepts the zone-less forms
// "2024-01-01T10:00" and "2024-01-01T10:00:00".
type wallTime struct{ time.Time }

func (w *wallTime) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw == "" {
		w.Time = time.Time{}
		return nil
	}
	for _, layout := range wallTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			w.Time = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("reservation_time %q: want RFC 3339 or YYYY-MM-DDTHH:MM[:SS]", raw)
}

// Create handles POST /v1/reservations.  The body carries table_id,
// num_people, reservation_time and an optional content note.  The time
// is RFC 3339, or YYYY-MM-DDTHH:MM[:SS] taken as UTC.
// It returns 201 with the reservation, 409 when the window is taken and
// 422 when the party does not fit the table.
func (h *ReservationHandler) Create(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	var body createReservationRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.TableID == 0 {
		return badRequest(c, "table_id is required")
	}
	res, err := h.Manager.Create(c.Request().Context(), p, service.CreateReservationInput{
		TableID:   body.TableID,
		NumPeople: body.NumPeople,
		StartTime: body.ReservationTime.Time,
		Content:   body.Content,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Cancel handles DELETE /v1/reservations/:id.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	if err := h.Manager.Cancel(c.Request().Context(), p, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	res, err := h.Manager.Get(c.Request().Context(), p, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// ListMine handles GET /v1/reservations.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	return h.list(c, p, p.UserID)
}

// ListByUser handles GET /v1/users/:id/reservations.
func (h *ReservationHandler) ListByUser(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	uid, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid user id")
	}
	return h.list(c, p, uid)
}

func (h *ReservationHandler) list(c echo.Context, p service.Principal, uid uint64) error {
	items, err := h.Manager.ListByUser(c.Request().Context(), p, uid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListAll handles GET /v1/admin/reservations.
func (h *ReservationHandler) ListAll(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	items, err := h.Manager.ListAll(c.Request().Context(), p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
