package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/venue-booking/internal/config"
	"github.com/iliyamo/venue-booking/internal/handler"
	"github.com/iliyamo/venue-booking/internal/middleware"
)

// Handlers bundles every HTTP handler the API exposes.
type Handlers struct {
	Health       *handler.HealthHandler
	Reservations *handler.ReservationHandler
	Orders       *handler.OrderHandler
	Payments     *handler.PaymentHandler
	Tables       *handler.TableHandler
	Products     *handler.ProductHandler
}

// Options configures the cross-cutting middleware.  A nil Redis client
// turns rate limiting and caching into no-ops.
type Options struct {
	JWTSecret string
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Log       *zap.Logger
}

// New builds the echo instance with every route registered.
func New(h Handlers, opt Options) *echo.Echo {
	if opt.Log == nil {
		opt.Log = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.RequestID(), middleware.RequestLogger(opt.Log))

	RegisterRoutes(e, h, opt)
	RegisterCustomer(e, h, opt)
	RegisterAdmin(e, h, opt)
	return e
}

// RegisterRoutes registers routes that do not require authentication:
// the health check, the menu, the table list and the payment provider
// callbacks.
func RegisterRoutes(e *echo.Echo, h Handlers, opt Options) {
	e.GET("/healthz", h.Health.Health)

	menu := e.Group("/v1/products", middleware.ResponseCache(opt.Cache, opt.Redis, opt.Log))
	menu.GET("", h.Products.List)
	menu.GET("/:id", h.Products.Get)

	e.GET("/v1/tables", h.Tables.List)
	e.GET("/v1/tables/:id", h.Tables.Get)

	// Redirect targets of the payment provider carry no token.
	e.GET("/v1/payments/success", h.Payments.Success)
	e.GET("/v1/payments/cancel", h.Payments.Cancel)
}
