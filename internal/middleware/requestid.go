package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/shinyyama/storefront-rewards/internal/reqctx"
)

// RequestID propagates X-Request-ID, minting one when absent, and stores it in the request
// context for logging.
func RequestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		rid := req.Header.Get(echo.HeaderXRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, rid)
		c.SetRequest(req.WithContext(reqctx.WithRID(req.Context(), rid)))
		return next(c)
	}
}
