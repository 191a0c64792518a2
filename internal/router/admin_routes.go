package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-booking/internal/middleware"
	"github.com/iliyamo/venue-booking/internal/model"
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1.
// All routes require a valid JWT and the ADMIN role.
func RegisterAdmin(e *echo.Echo, h Handlers, opt Options) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(opt.JWTSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Tables ----
	g.POST("/tables", h.Tables.Create)
	g.PUT("/tables/:id", h.Tables.Update)
	g.PATCH("/tables/:id", h.Tables.Update)
	g.DELETE("/tables/:id", h.Tables.Delete)
	g.GET("/tables/consistency", h.Tables.Consistency)

	// ---- Orders ----
	g.GET("/orders", h.Orders.ListAll)
	g.PATCH("/orders/:id/status", h.Orders.UpdateStatus)

	// ---- Reservations ----
	g.GET("/admin/reservations", h.Reservations.ListAll)
}
