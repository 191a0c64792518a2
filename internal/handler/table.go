package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-booking/internal/model"
	"github.com/iliyamo/venue-booking/internal/service"
)

// TableHandler exposes table administration and the public table list.
type TableHandler struct {
	Admin *service.TableAdmin
}

// NewTableHandler panics when a is nil.
func NewTableHandler(a *service.TableAdmin) *TableHandler {
	if a == nil {
		panic("nil table admin passed to NewTableHandler")
	}
	return &TableHandler{Admin: a}
}

type tableRequest struct {
	Name     *string            `json:"name"`
	Capacity *int               `json:"capacity"`
	Status   *model.TableStatus `json:"status"`
}

func (r tableRequest) input() service.TableInput {
	return service.TableInput{Name: r.Name, Capacity: r.Capacity, Status: r.Status}
}

// Create handles POST /v1/tables.
func (h *TableHandler) Create(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	var body tableRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	t, err := h.Admin.Create(c.Request().Context(), p, body.input())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

// Update handles PUT /v1/tables/:id.  Omitted fields keep their value.
func (h *TableHandler) Update(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid table id")
	}
	var body tableRequest
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	t, err := h.Admin.Update(c.Request().Context(), p, id, body.input())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Delete handles DELETE /v1/tables/:id.
func (h *TableHandler) Delete(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return writeError(c, err)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid table id")
	}
	if err := h.Admin.Delete(c.Request().Context(), p, id); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// List handles GET /v1/tables.
func (h *TableHandler) List(c echo.Context) error {
	items, err := h.Admin.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/tables/:id.
func (h *TableHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid table id")
	}
	t, err := h.Admin.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, t)
}

// Consistency handles GET /v1/tables/consistency?at=RFC3339.  It lists
// tables whose stored status disagrees with their reservations.
func (h *TableHandler) Consistency(c echo.Context) error {
	var at time.Time
	if raw := c.QueryParam("at"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return badRequest(c, "at must be RFC 3339")
		}
		at = t
	}
	drift, err := h.Admin.CheckConsistency(c.Request().Context(), at)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"consistent": len(drift) == 0, "drift": drift})
}
