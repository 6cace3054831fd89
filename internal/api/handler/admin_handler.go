package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/api/views"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/domain"
)

const adminUsersShown = 5

type adminData struct {
	UserCount int
	Users     []domain.Identity
	Logs      []domain.AILog
}

func (h *PageHandler) Admin(c echo.Context) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}

	var data adminData
	g, ctx := errgroup.WithContext(c.Request().Context())
	g.Go(func() (err error) {
		data.Users, err = h.queries.Users(ctx, store)
		return err
	})
	g.Go(func() (err error) {
		data.Logs, err = h.queries.AllAILogs(ctx, store)
		return err
	})
	if err := g.Wait(); err != nil {
		return queryFailed(c, store, err)
	}

	data.UserCount = len(data.Users)
	data.Users = data.Users[:min(len(data.Users), adminUsersShown)]

	page := newPage(store, "Administración", views.Admin)
	page.Data = data
	page.Notice = notices[c.QueryParam("ok")]
	return c.Render(http.StatusOK, views.Admin, page)
}

func (h *PageHandler) DeleteUser(c echo.Context) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing user id")
	}

	if err := h.queries.DeleteUser(c.Request().Context(), store, id); err != nil {
		return queryFailed(c, store, err)
	}
	h.log.Info().Str("deleted_user", id).Msg("user deleted by admin")
	return c.Redirect(http.StatusSeeOther, "/admin?ok=deleted")
}
