package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/api/views"
)

func (h *PageHandler) Dashboard(c echo.Context) error {
	return h.renderDashboard(c, http.StatusOK, "")
}

func (h *PageHandler) renderDashboard(c echo.Context, status int, errMsg string) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}
	view, err := h.queries.Dashboard(c.Request().Context(), store)
	if err != nil {
		return queryFailed(c, store, err)
	}

	page := newPage(store, "Dashboard", views.Dashboard)
	page.Data = view
	page.Error = errMsg
	page.Notice = notices[c.QueryParam("ok")]
	return c.Render(status, views.Dashboard, page)
}

// Prompt records a question for the assistant.
func (h *PageHandler) Prompt(c echo.Context) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}

	var form promptForm
	if err := c.Bind(&form); err != nil {
		return h.renderDashboard(c, http.StatusBadRequest, "invalid payload")
	}
	form.Prompt = strings.TrimSpace(form.Prompt)
	if err := c.Validate(&form); err != nil {
		return h.renderDashboard(c, http.StatusUnprocessableEntity, err.Error())
	}

	if _, err := h.queries.RecordPrompt(c.Request().Context(), store, form.Prompt, ""); err != nil {
		if sessionLost(err) {
			return queryFailed(c, store, err)
		}
		return h.renderDashboard(c, statusFor(err), userMessage(err, "No se pudo enviar el prompt."))
	}
	return c.Redirect(http.StatusSeeOther, "/dashboard?ok=prompt")
}
