package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
)

func HasPermission(user *AppUser, permission string) bool {
	if user == nil {
		return false
	}
	return slices.Contains(user.Permissions, permission)
}

func HasAnyPermission(user *AppUser, permissions ...string) bool {
	return slices.ContainsFunc(permissions, func(p string) bool {
		return HasPermission(user, p)
	})
}

// RequirePermission rejects users lacking permission.
func RequirePermission(permission string) echo.MiddlewareFunc {
	return RequireAnyPermission(permission)
}

// RequireAnyPermission rejects users holding none of permissions.
func RequireAnyPermission(permissions ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := c.(*AppContext).User
			if user == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}

			if !HasAnyPermission(user, permissions...) {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": "Forbidden: missing permission " + strings.Join(permissions, " or "),
				})
			}

			return next(c)
		}
	}
}
