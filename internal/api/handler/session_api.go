package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/domain"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/service"
)

// SummaryGenerator produces today's summary for a session.
type SummaryGenerator interface {
	GenerateTodaySummary(ctx context.Context, v service.Viewer) (*domain.DailySummary, error)
}

// SessionAPIHandler exposes the session lifecycle as JSON for scripted
// clients sharing the browser's session cookie.
type SessionAPIHandler struct {
	summaries SummaryGenerator
	wait      time.Duration
	log       zerolog.Logger
}

func NewSessionAPIHandler(summaries SummaryGenerator, wait time.Duration, log zerolog.Logger) *SessionAPIHandler {
	return &SessionAPIHandler{summaries: summaries, wait: wait, log: log}
}

type identityResponse struct {
	ID        string     `json:"id"`
	Name      string     `json:"full_name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	AvatarURL string     `json:"avatar_url,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type sessionResponse struct {
	Resolving     bool              `json:"resolving"`
	Authenticated bool              `json:"authenticated"`
	User          *identityResponse `json:"user,omitempty"`
}

type summaryResponse struct {
	ID            string           `json:"id"`
	Date          time.Time        `json:"date"`
	TotalCalories float64          `json:"total_calories"`
	TotalMeals    int              `json:"total_meals"`
	GoalMet       bool             `json:"goal_met"`
	Nutrients     domain.Nutrients `json:"nutrients"`
	Feedback      string           `json:"feedback,omitempty"`
}

func toSessionResponse(st domain.SessionState) sessionResponse {
	resp := sessionResponse{Resolving: st.Resolving, Authenticated: st.IsAuthenticated()}
	if st.IsAuthenticated() {
		resp.User = &identityResponse{
			ID:        st.Identity.ID,
			Name:      st.Identity.Name,
			Email:     st.Identity.Email,
			Role:      string(st.Identity.Role),
			AvatarURL: st.Identity.AvatarURL,
		}
		if created := st.Identity.CreatedAt; !created.IsZero() {
			resp.User.CreatedAt = &created
		}
	}
	return resp
}

// Get reports the current session state, waiting briefly for a pending
// resolution.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /api/v1/session [get]
func (h *SessionAPIHandler) Get(c echo.Context) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(store.Await(c.Request().Context(), h.wait)))
}

// Login authenticates the session with the backend.
//
// @Summary      Login
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginForm  true  "Login credentials"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/session/login [post]
func (h *SessionAPIHandler) Login(c echo.Context) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req loginForm
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := store.Login(c.Request().Context(), req.Email, req.Password); err != nil {
		return err
	}
	if store, err = signedIn(c, store, h.log); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSessionResponse(store.State()))
}

// Register creates an account and logs the session into it.
//
// @Summary      Register
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      registerForm  true  "Account details"
// @Success      201   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      422   {object}  map[string]string
// @Router       /api/v1/session/register [post]
func (h *SessionAPIHandler) Register(c echo.Context) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}

	var req registerForm
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Confirm == "" {
		req.Confirm = req.Password
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := store.Register(c.Request().Context(), req.FullName, req.Email, req.Password); err != nil {
		return err
	}
	if store, err = signedIn(c, store, h.log); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toSessionResponse(store.State()))
}

// Logout ends the session. It always succeeds.
//
// @Summary      Logout
// @Tags         session
// @Success      204
// @Router       /api/v1/session/logout [post]
func (h *SessionAPIHandler) Logout(c echo.Context) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}
	signedOut(c, store, h.log)
	return c.NoContent(http.StatusNoContent)
}

// GenerateTodaySummary builds today's summary. 204 means there was nothing
// to summarize yet.
//
// @Summary      Generate today's summary
// @Tags         summaries
// @Produce      json
// @Success      200  {object}  summaryResponse
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/summaries/today [post]
func (h *SessionAPIHandler) GenerateTodaySummary(c echo.Context) error {
	store, err := ctxSession(c)
	if err != nil {
		return err
	}
	sum, err := h.summaries.GenerateTodaySummary(c.Request().Context(), store)
	if err != nil {
		return err
	}
	if sum == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, summaryResponse{
		ID:            sum.ID,
		Date:          sum.Date,
		TotalCalories: sum.TotalCalories,
		TotalMeals:    sum.TotalMeals,
		GoalMet:       sum.GoalMet,
		Nutrients:     sum.Nutrients,
		Feedback:      sum.Feedback,
	})
}
