package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-booking/internal/middleware"
)

// RegisterCustomer registers endpoints for any signed-in user under /v1.
// Ownership of reservations and orders is checked by the services, so an
// admin token works here as well.  Writes are rate limited per caller.
func RegisterCustomer(e *echo.Echo, h Handlers, opt Options) {
	g := e.Group("/v1", middleware.JWTAuth(opt.JWTSecret))
	limit := middleware.RateLimit(opt.RateLimit, opt.Redis, opt.Log)

	g.POST("/reservations", h.Reservations.Create, limit)
	g.GET("/reservations", h.Reservations.ListMine)
	g.GET("/reservations/:id", h.Reservations.Get)
	g.DELETE("/reservations/:id", h.Reservations.Cancel, limit)
	g.GET("/users/:id/reservations", h.Reservations.ListByUser)

	g.POST("/orders", h.Orders.Create, limit)
	g.GET("/me/orders", h.Orders.ListMine)
	g.GET("/orders/:id", h.Orders.Get)
	g.DELETE("/orders/:id", h.Orders.Delete, limit)
	g.GET("/users/:id/orders", h.Orders.ListByUser)
}
