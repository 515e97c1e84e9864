package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/shinyyama/storefront-rewards/internal/handler"
)

const InternalTokenHeader = "X-Internal-Token"

// InternalToken guards service-to-service routes with a shared secret. With no secret
// configured every request is refused.
func InternalToken(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if secret == "" {
				return c.JSON(http.StatusForbidden, handler.NewErrorResponse("internal_api_disabled", "internal API is not configured"))
			}
			got := c.Request().Header.Get(InternalTokenHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				return c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid_internal_token", "invalid internal token"))
			}
			return next(c)
		}
	}
}
