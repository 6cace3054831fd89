package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/domain"
)

// RequireRole enforces role-based access on views already behind
// RequireIdentity. Visitors without an allowed role are sent to the
// dashboard.
func RequireRole(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok := sessionOf(c)
			if !ok {
				return c.Redirect(http.StatusFound, LoginPath)
			}
			st := sess.State()
			if !st.IsAuthenticated() {
				return c.Redirect(http.StatusFound, LoginPath)
			}
			if _, ok := allowed[st.Identity.Role]; !ok {
				return c.Redirect(http.StatusFound, DashboardPath)
			}
			return next(c)
		}
	}
}
