package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/venue-booking/internal/service"
)

// PrincipalFrom returns the caller authenticated by JWTAuth.
func PrincipalFrom(c echo.Context) (service.Principal, bool) {
	p, ok := c.Get(ctxPrincipal).(service.Principal)
	return p, ok && p.UserID != 0
}

// callerKey identifies the caller for rate limiting: the user id when
// authenticated, "anon" otherwise.
func callerKey(c echo.Context) string {
	if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}
