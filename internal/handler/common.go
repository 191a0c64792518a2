package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-booking/internal/middleware"
	"github.com/iliyamo/venue-booking/internal/service"
)

var errUnauthorized = echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")

// principal returns the caller set by the JWT middleware.
func principal(c echo.Context) (service.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return service.Principal{}, errUnauthorized
	}
	return p, nil
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "kind": service.KindInvalidArgument})
}

// statusFor maps a failure kind to its response status.
func statusFor(k service.Kind) int {
	switch k {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindAccessDenied:
		return http.StatusForbidden
	case service.KindCapacityExceeded:
		return http.StatusUnprocessableEntity
	case service.KindSlotConflict, service.KindConflict:
		return http.StatusConflict
	case service.KindInvalidArgument:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// writeError renders err as {"error", "kind"}.  A partial order adds
// order_id so the client can find the order that was kept.  Errors
// without a kind become a generic 500 and are handed to echo for logging.
func writeError(c echo.Context, err error) error {
	if errors.Is(err, errUnauthorized) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	kind, ok := service.KindOf(err)
	status := statusFor(kind)
	var partial *service.PartialOrderError
	if errors.As(err, &partial) {
		body := echo.Map{"error": partial.Err.Error(), "order_id": partial.OrderID, "partial": true}
		if ok {
			body["kind"] = kind
		}
		return c.JSON(status, body)
	}
	if !ok {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(status, echo.Map{"error": err.Error(), "kind": kind})
}
