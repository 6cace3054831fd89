package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/domain"
)

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"

	// LoadingTemplate is rendered while a session is still resolving.
	LoadingTemplate = "loading"

	retryAfter = time.Second
)

// Verdict is what the gate does with a protected request.
type Verdict int

const (
	VerdictPlaceholder Verdict = iota
	VerdictRedirect
	VerdictRender
)

func (v Verdict) String() string {
	switch v {
	case VerdictPlaceholder:
		return "placeholder"
	case VerdictRedirect:
		return "redirect"
	case VerdictRender:
		return "render"
	default:
		return "unknown"
	}
}

// Decide maps a session state to a verdict. A resolving session never
// redirects: its identity is unknown, not absent.
func Decide(st domain.SessionState) Verdict {
	switch {
	case st.Resolving:
		return VerdictPlaceholder
	case st.Identity == nil:
		return VerdictRedirect
	default:
		return VerdictRender
	}
}

// RequireIdentity guards server-rendered views. It waits up to wait for the
// session to resolve, then either renders the view, shows a self-refreshing
// loading page or redirects to the login page. The attempted path is not
// remembered.
func RequireIdentity(wait time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok := sessionOf(c)
			if !ok {
				return c.Redirect(http.StatusFound, LoginPath)
			}

			switch Decide(sess.Await(c.Request().Context(), wait)) {
			case VerdictPlaceholder:
				return placeholder(c)
			case VerdictRedirect:
				return c.Redirect(http.StatusFound, LoginPath)
			}
			return next(c)
		}
	}
}

// RequireIdentityAPI is RequireIdentity for JSON routes: a resolving session
// yields 503 with Retry-After, an anonymous one 401.
func RequireIdentityAPI(wait time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok := sessionOf(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}

			switch Decide(sess.Await(c.Request().Context(), wait)) {
			case VerdictPlaceholder:
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
				return echo.NewHTTPError(http.StatusServiceUnavailable, "session is still loading")
			case VerdictRedirect:
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}
			return next(c)
		}
	}
}

const loadingHTML = `<!doctype html><html><head><meta charset="utf-8"><title>Cargando…</title></head><body><p>Cargando…</p></body></html>`

func placeholder(c echo.Context) error {
	h := c.Response().Header()
	h.Set("Refresh", strconv.Itoa(int(retryAfter.Seconds())))
	h.Set(echo.HeaderCacheControl, "no-store")
	if c.Echo().Renderer != nil {
		return c.Render(http.StatusOK, LoadingTemplate, nil)
	}
	return c.HTML(http.StatusOK, loadingHTML)
}
