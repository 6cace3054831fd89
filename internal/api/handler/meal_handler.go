package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/api/views"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/domain"
)

type mealsData struct {
	Meals []domain.Meal
	Foods []domain.Food
}

func (h *PageHandler) Meals(c echo.Context) error {
	return h.renderMeals(c, http.StatusOK, nil, "")
}

func (h *PageHandler) renderMeals(c echo.Context, status int, form *mealForm, errMsg string) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}

	var data mealsData
	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() (err error) {
		data.Meals, err = h.queries.Meals(ctx, store)
		return err
	})
	g.Go(func() error {
		foods, err := h.queries.Foods(ctx, store)
		if err != nil {
			// Suggestions are optional; the page still works without them.
			h.log.Warn().Err(err).Msg("food catalog unavailable")
			return nil
		}
		data.Foods = foods
		return nil
	})
	if err := g.Wait(); err != nil {
		return queryFailed(c, store, err)
	}

	page := newPage(store, "Comidas", views.Meals)
	page.Data = data
	page.Error = errMsg
	page.Notice = notices[c.QueryParam("ok")]
	if form != nil {
		page.Form = *form
	}
	return c.Render(status, views.Meals, page)
}

func (h *PageHandler) CreateMeal(c echo.Context) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}

	var form mealForm
	if err := c.Bind(&form); err != nil {
		return h.renderMeals(c, http.StatusBadRequest, &form, "invalid payload")
	}
	if err := c.Validate(&form); err != nil {
		return h.renderMeals(c, http.StatusUnprocessableEntity, &form, err.Error())
	}

	if _, err := h.queries.CreateMeal(c.Request().Context(), store, form.toNewMeal(h.now())); err != nil {
		if sessionLost(err) {
			return queryFailed(c, store, err)
		}
		return h.renderMeals(c, statusFor(err), &form, userMessage(err, "No se pudo registrar la comida."))
	}
	return c.Redirect(http.StatusSeeOther, "/meals?ok=meal")
}
