package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/api/views"
)

func (h *PageHandler) Goals(c echo.Context) error {
	return h.renderGoals(c, http.StatusOK, nil, "")
}

func (h *PageHandler) renderGoals(c echo.Context, status int, form *goalForm, errMsg string) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}
	goals, err := h.queries.Goals(c.Request().Context(), store)
	if err != nil {
		return queryFailed(c, store, err)
	}

	page := newPage(store, "Metas", views.Goals)
	page.Data = goals
	page.Error = errMsg
	page.Notice = notices[c.QueryParam("ok")]
	if form != nil {
		page.Form = *form
	}
	return c.Render(status, views.Goals, page)
}

func (h *PageHandler) CreateGoal(c echo.Context) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}

	var form goalForm
	if err := c.Bind(&form); err != nil {
		return h.renderGoals(c, http.StatusBadRequest, &form, "invalid payload")
	}
	if err := c.Validate(&form); err != nil {
		return h.renderGoals(c, http.StatusUnprocessableEntity, &form, err.Error())
	}

	if _, err := h.queries.CreateGoal(c.Request().Context(), store, form.toNewGoal()); err != nil {
		if sessionLost(err) {
			return queryFailed(c, store, err)
		}
		return h.renderGoals(c, statusFor(err), &form, userMessage(err, "No se pudo guardar la meta."))
	}
	return c.Redirect(http.StatusSeeOther, "/goals?ok=goal")
}
