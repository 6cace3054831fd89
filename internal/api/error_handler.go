package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/api/middleware"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/api/views"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/domain"
)

const apiPrefix = "/api/"

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain and backend errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Answers /api/ requests with {"error": "<message>"} and everything else
//     with the error page, sending unauthenticated visitors to the login page.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if strings.HasPrefix(c.Request().URL.Path, apiPrefix) {
			_ = c.JSON(code, errorResponse{Error: msg})
			return
		}
		if code == http.StatusUnauthorized {
			_ = c.Redirect(http.StatusFound, middleware.LoginPath)
			return
		}

		page := views.Page{Title: http.StatusText(code), Data: msg}
		if store := middleware.SessionFrom(c); store != nil {
			page.Identity = store.State().Identity
		}
		if rerr := c.Render(code, views.Error, page); rerr != nil {
			log.Error().Err(rerr).Msg("rendering error page")
			_ = c.String(code, msg)
		}
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, gate refusals).
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ge *domain.GatewayError
	switch {
	case domain.IsTransport(err):
		log.Warn().Err(err).Str("path", c.Path()).Msg("backend unreachable")
		return http.StatusBadGateway, "backend unavailable"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrSessionExpired):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, "email already registered"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "resource not found"
	case errors.As(err, &ge):
		switch {
		case ge.Status == http.StatusUnauthorized:
			return http.StatusUnauthorized, "authentication required"
		case ge.Status == http.StatusForbidden:
			return http.StatusForbidden, "access forbidden"
		case ge.Status == http.StatusNotFound:
			return http.StatusNotFound, "resource not found"
		case domain.IsValidation(err):
			return http.StatusUnprocessableEntity, ge.Message()
		case ge.Status >= http.StatusInternalServerError:
			log.Error().Err(err).Str("path", c.Path()).Msg("backend failure")
			return http.StatusBadGateway, "backend unavailable"
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
