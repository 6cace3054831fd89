package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/api/views"
)

// summariesShown caps the history list; the backend returns it newest first.
const summariesShown = 10

func (h *PageHandler) Summary(c echo.Context) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}
	sums, err := h.queries.Summaries(c.Request().Context(), store)
	if err != nil {
		return queryFailed(c, store, err)
	}

	page := newPage(store, "Resumen diario", views.Summary)
	page.Data = sums[:min(len(sums), summariesShown)]
	page.Notice = notices[c.QueryParam("ok")]
	return c.Render(http.StatusOK, views.Summary, page)
}

// GenerateSummary asks the backend to build today's summary. Having nothing
// to summarize yet is reported as a notice, not an error.
func (h *PageHandler) GenerateSummary(c echo.Context) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}
	sum, err := h.queries.GenerateTodaySummary(c.Request().Context(), store)
	if err != nil {
		return queryFailed(c, store, err)
	}
	if sum == nil {
		return c.Redirect(http.StatusSeeOther, "/summary?ok=empty")
	}
	return c.Redirect(http.StatusSeeOther, "/summary?ok=summary")
}
