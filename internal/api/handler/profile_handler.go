package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/api/views"
)

func (h *PageHandler) Profile(c echo.Context) error {
	return h.renderProfile(c, http.StatusOK, "")
}

func (h *PageHandler) renderProfile(c echo.Context, status int, errMsg string) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}
	view, err := h.queries.Profile(c.Request().Context(), store)
	if err != nil {
		return queryFailed(c, store, err)
	}

	page := newPage(store, "Perfil", views.Profile)
	page.Data = view
	page.Error = errMsg
	page.Notice = notices[c.QueryParam("ok")]
	return c.Render(status, views.Profile, page)
}

func (h *PageHandler) UpdateProfile(c echo.Context) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}

	var form profileForm
	if err := c.Bind(&form); err != nil {
		return h.renderProfile(c, http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&form); err != nil {
		return h.renderProfile(c, http.StatusUnprocessableEntity, err.Error())
	}

	updated, err := h.queries.UpdateProfile(c.Request().Context(), store, form.toUpdate())
	if err != nil {
		if sessionLost(err) {
			return queryFailed(c, store, err)
		}
		return h.renderProfile(c, statusFor(err), userMessage(err, "No se pudo actualizar el perfil."))
	}
	store.Refresh(updated)
	return c.Redirect(http.StatusSeeOther, "/profile?ok=profile")
}
