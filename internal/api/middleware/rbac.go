package middleware

import (
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/sweetshop/sweets-api/internal/core/domain"
)

// RBAC admits requests whose role, as set by Auth, is one of roles. Anything
// else is rejected with a forbidden error; a missing role counts as no role.
func RBAC(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(string)
			if role == "" || !slices.Contains(roles, role) {
				return domain.ErrAccessDenied
			}
			return next(c)
		}
	}
}

// RequireAdmin guards stock replenishment and deletion.
func RequireAdmin() echo.MiddlewareFunc {
	return RBAC(domain.RoleAdmin)
}
