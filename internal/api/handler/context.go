package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/api/middleware"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/api/views"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/domain"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/service"
)

// ctxSession returns the Session Store attached by the session middleware.
// Its absence is a wiring error, not a client one.
func ctxSession(c echo.Context) (*service.SessionStore, error) {
	store := middleware.SessionFrom(c)
	if store == nil {
		return nil, errors.New("no session store in request context")
	}
	return store, nil
}

// signedIn moves a freshly authenticated session to a new id. If that fails
// the login is undone, so the old id never ends up carrying credentials.
func signedIn(c echo.Context, store *service.SessionStore, log zerolog.Logger) (*service.SessionStore, error) {
	rotated, err := middleware.RotateSession(c)
	if err != nil {
		log.Error().Err(err).Msg("rotate session id")
		store.Logout(c.Request().Context())
		return nil, err
	}
	return rotated, nil
}

// signedOut logs the session out and moves the visitor to a new id.
func signedOut(c echo.Context, store *service.SessionStore, log zerolog.Logger) {
	store.Logout(c.Request().Context())
	if _, err := middleware.RotateSession(c); err != nil {
		log.Warn().Err(err).Msg("rotate session id")
	}
}

func newPage(store *service.SessionStore, title, active string) views.Page {
	return views.Page{
		Title:    title,
		Active:   active,
		Identity: store.State().Identity,
	}
}

// queryFailed sends the visitor back to the login page when the backend no
// longer accepts the session's token, logging the session out first. Local
// role refusals go to the dashboard. Any other error is left to the error
// handler.
func queryFailed(c echo.Context, store *service.SessionStore, err error) error {
	switch {
	case domain.StatusOf(err) == http.StatusUnauthorized:
		store.Logout(c.Request().Context())
		return c.Redirect(http.StatusFound, middleware.LoginPath)
	case errors.Is(err, domain.ErrUnauthenticated):
		return c.Redirect(http.StatusFound, middleware.LoginPath)
	case errors.Is(err, domain.ErrForbidden) && domain.StatusOf(err) == 0:
		return c.Redirect(http.StatusFound, middleware.DashboardPath)
	}
	return err
}

// sessionLost reports whether err means the request can no longer proceed
// on behalf of the session, as opposed to a failure worth showing inline.
func sessionLost(err error) bool {
	return domain.StatusOf(err) == http.StatusUnauthorized ||
		errors.Is(err, domain.ErrUnauthenticated) ||
		(errors.Is(err, domain.ErrForbidden) && domain.StatusOf(err) == 0)
}

// userMessage is the inline text shown when a form submission fails at the
// backend.
func userMessage(err error, fallback string) string {
	var ge *domain.GatewayError
	switch {
	case domain.IsTransport(err):
		return "No se pudo conectar con el servidor. Intenta de nuevo."
	case errors.As(err, &ge) && domain.IsValidation(err) && ge.Detail != "":
		return ge.Detail
	default:
		return fallback
	}
}

// statusFor picks the status a re-rendered form is served with.
func statusFor(err error) int {
	switch {
	case domain.IsTransport(err), domain.StatusOf(err) >= http.StatusInternalServerError:
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict
	case domain.IsAuthFailure(err):
		return http.StatusUnauthorized
	case domain.IsValidation(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}
