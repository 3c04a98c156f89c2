package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/OFFIS-RIT/interactome/pkg/logger"
)

// RejectWhileLeased answers 503 while another process holds the lease for
// key, since the tables being read may be dropped and refilled at any time.
func RejectWhileLeased(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			locker := c.(*AppContext).App.Locker
			if locker == nil {
				return next(c)
			}
			held, err := locker.Held(c.Request().Context(), key)
			if err != nil {
				logger.Warn("[Server] Failed to check lease", "key", key, "err", err)
				return next(c)
			}
			if held {
				c.Response().Header().Set("Retry-After", "60")
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Bulk load in progress"})
			}
			return next(c)
		}
	}
}
