package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/api/middleware"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/api/views"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/domain"
)

const (
	msgLoginFailed     = "Credenciales inválidas o error de conexión."
	msgRegisterFailed  = "Ocurrió un error al registrar. Intenta de nuevo."
	msgEmailTaken      = "Este correo ya está registrado."
	msgPasswordsDiffer = "Las contraseñas no coinciden"
)

// AuthHandler serves the login, registration and logout views.
type AuthHandler struct {
	log zerolog.Logger
}

func NewAuthHandler(log zerolog.Logger) *AuthHandler {
	return &AuthHandler{log: log}
}

func (h *AuthHandler) LoginPage(c echo.Context) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}
	if store.State().IsAuthenticated() {
		return c.Redirect(http.StatusFound, middleware.DashboardPath)
	}
	return c.Render(http.StatusOK, views.Login, newPage(store, "Iniciar sesión", ""))
}

func (h *AuthHandler) Login(c echo.Context) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}

	var form loginForm
	if err := c.Bind(&form); err != nil {
		return h.renderLogin(c, http.StatusBadRequest, form, "invalid payload")
	}
	form.Email = strings.TrimSpace(form.Email)
	if err := c.Validate(&form); err != nil {
		return h.renderLogin(c, http.StatusUnprocessableEntity, form, err.Error())
	}

	if err := store.Login(c.Request().Context(), form.Email, form.Password); err != nil {
		h.log.Info().Err(err).Msg("login failed")
		msg := msgLoginFailed
		if !domain.IsAuthFailure(err) {
			msg = userMessage(err, msgLoginFailed)
		}
		return h.renderLogin(c, statusFor(err), form, msg)
	}
	if _, err := signedIn(c, store, h.log); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, middleware.DashboardPath)
}

func (h *AuthHandler) renderLogin(c echo.Context, status int, form loginForm, msg string) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}
	page := newPage(store, "Iniciar sesión", "")
	page.Error = msg
	page.Form = loginForm{Email: form.Email}
	return c.Render(status, views.Login, page)
}

func (h *AuthHandler) RegisterPage(c echo.Context) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}
	if store.State().IsAuthenticated() {
		return c.Redirect(http.StatusFound, middleware.DashboardPath)
	}
	return c.Render(http.StatusOK, views.Register, newPage(store, "Crear cuenta", ""))
}

func (h *AuthHandler) Register(c echo.Context) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}

	var form registerForm
	if err := c.Bind(&form); err != nil {
		return h.renderRegister(c, http.StatusBadRequest, form, "invalid payload")
	}
	form.Email = strings.TrimSpace(form.Email)
	form.FullName = strings.TrimSpace(form.FullName)
	if form.Password != form.Confirm {
		return h.renderRegister(c, http.StatusUnprocessableEntity, form, msgPasswordsDiffer)
	}
	if err := c.Validate(&form); err != nil {
		return h.renderRegister(c, http.StatusUnprocessableEntity, form, err.Error())
	}

	if err := store.Register(c.Request().Context(), form.FullName, form.Email, form.Password); err != nil {
		h.log.Info().Err(err).Msg("registration failed")
		msg := userMessage(err, msgRegisterFailed)
		if errors.Is(err, domain.ErrEmailTaken) {
			msg = msgEmailTaken
		}
		return h.renderRegister(c, statusFor(err), form, msg)
	}
	if _, err := signedIn(c, store, h.log); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, middleware.DashboardPath)
}

func (h *AuthHandler) renderRegister(c echo.Context, status int, form registerForm, msg string) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}
	page := newPage(store, "Crear cuenta", "")
	page.Error = msg
	page.Form = registerForm{FullName: form.FullName, Email: form.Email}
	return c.Render(status, views.Register, page)
}

// Logout ends the session and returns to the login page.
func (h *AuthHandler) Logout(c echo.Context) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}
	signedOut(c, store, h.log)
	return c.Redirect(http.StatusSeeOther, middleware.LoginPath)
}
