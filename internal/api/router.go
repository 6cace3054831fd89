package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/Apolo-personal-assistant/Front-2.0/docs"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/api/handler"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/api/middleware"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/domain"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/infrastructure/http/handlers"
)

// Dependencies carries everything the router wires into handlers.
type Dependencies struct {
	Log      zerolog.Logger
	Renderer echo.Renderer
	Sessions middleware.SessionOpener
	Queries  handler.NutritionQueries
	Checks   []handlers.DependencyCheck

	Cookie       string
	CookieDomain string
	CookieSecure bool
	CookieMaxAge time.Duration
	// ResolveWait bounds how long a gated request waits for its session to
	// resolve before the loading page is served.
	ResolveWait time.Duration

	// Registerer receives the HTTP metrics. Defaults to the global registry.
	Registerer prometheus.Registerer
}

// infraPath reports whether a request targets an endpoint that needs no
// visitor session.
func infraPath(c echo.Context) bool {
	p := c.Request().URL.Path
	return strings.HasPrefix(p, "/health") ||
		p == "/metrics" ||
		strings.HasPrefix(p, "/swagger")
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = deps.Renderer
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "portal",
		Skipper:    infraPath,
		Registerer: deps.Registerer,
	}))
	e.Use(middleware.Sessions(middleware.SessionConfig{
		Skipper:  infraPath,
		Cookie:   deps.Cookie,
		Domain:   deps.CookieDomain,
		Secure:   deps.CookieSecure,
		MaxAge:   deps.CookieMaxAge,
		Sessions: deps.Sessions,
	}))

	// --- Infrastructure (no session) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.Checks...)
	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Public views ---
	authHandler := handler.NewAuthHandler(deps.Log)
	e.GET("/", func(c echo.Context) error { return c.Redirect(http.StatusFound, "/profile") })
	e.GET(middleware.LoginPath, authHandler.LoginPage)
	e.POST(middleware.LoginPath, authHandler.Login)
	e.GET("/register", authHandler.RegisterPage)
	e.POST("/register", authHandler.Register)
	e.POST("/logout", authHandler.Logout)

	// --- Gated views ---
	// The gate is attached per route so unknown paths still reach the
	// error page instead of the login redirect.
	pages := handler.NewPageHandler(deps.Queries, deps.Log)
	gate := middleware.RequireIdentity(deps.ResolveWait)
	adminOnly := middleware.RequireRole(domain.RoleAdmin)
	e.GET(middleware.DashboardPath, pages.Dashboard, gate)
	e.POST(middleware.DashboardPath+"/prompts", pages.Prompt, gate)
	e.GET("/meals", pages.Meals, gate)
	e.POST("/meals", pages.CreateMeal, gate)
	e.GET("/goals", pages.Goals, gate)
	e.POST("/goals", pages.CreateGoal, gate)
	e.GET("/summary", pages.Summary, gate)
	e.POST("/summary/today", pages.GenerateSummary, gate)
	e.GET("/profile", pages.Profile, gate)
	e.POST("/profile", pages.UpdateProfile, gate)
	e.GET("/admin", pages.Admin, gate, adminOnly)
	e.POST("/admin/users/:id/delete", pages.DeleteUser, gate, adminOnly)

	// --- JSON API ---
	sessionAPI := handler.NewSessionAPIHandler(deps.Queries, deps.ResolveWait, deps.Log)
	v1 := e.Group("/api/v1")
	v1.GET("/session", sessionAPI.Get)
	v1.POST("/session/login", sessionAPI.Login)
	v1.POST("/session/register", sessionAPI.Register)
	v1.POST("/session/logout", sessionAPI.Logout)
	v1.POST("/summaries/today", sessionAPI.GenerateTodaySummary, middleware.RequireIdentityAPI(deps.ResolveWait))

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		Skipper:      infraPath,
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
