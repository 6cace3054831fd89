package handler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/domain"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/service"
)

// NutritionQueries is the data layer behind the authenticated views.
type NutritionQueries interface {
	Dashboard(ctx context.Context, v service.Viewer) (*service.DashboardView, error)
	RecordPrompt(ctx context.Context, v service.Viewer, prompt, response string) (*domain.AILog, error)

	Meals(ctx context.Context, v service.Viewer) ([]domain.Meal, error)
	Foods(ctx context.Context, v service.Viewer) ([]domain.Food, error)
	CreateMeal(ctx context.Context, v service.Viewer, m domain.NewMeal) (*domain.Meal, error)

	Goals(ctx context.Context, v service.Viewer) ([]domain.Goal, error)
	CreateGoal(ctx context.Context, v service.Viewer, g domain.NewGoal) (*domain.Goal, error)

	Summaries(ctx context.Context, v service.Viewer) ([]domain.DailySummary, error)
	GenerateTodaySummary(ctx context.Context, v service.Viewer) (*domain.DailySummary, error)

	Profile(ctx context.Context, v service.Viewer) (*service.ProfileView, error)
	UpdateProfile(ctx context.Context, v service.Viewer, upd domain.IdentityUpdate) (*domain.Identity, error)

	Users(ctx context.Context, v service.Viewer) ([]domain.Identity, error)
	AllAILogs(ctx context.Context, v service.Viewer) ([]domain.AILog, error)
	DeleteUser(ctx context.Context, v service.Viewer, id string) error
}

var _ NutritionQueries = (*service.NutritionService)(nil)

// PageHandler serves the views behind the authorization gate.
type PageHandler struct {
	queries NutritionQueries
	log     zerolog.Logger
	now     func() time.Time
}

func NewPageHandler(queries NutritionQueries, log zerolog.Logger) *PageHandler {
	return &PageHandler{queries: queries, log: log, now: time.Now}
}

// Notices shown after a successful form submission, keyed by the "ok" query
// parameter of the redirect.
var notices = map[string]string{
	"meal":    "Comida registrada.",
	"goal":    "Meta guardada.",
	"prompt":  "Prompt enviado.",
	"profile": "Perfil actualizado.",
	"summary": "Resumen de hoy generado.",
	"empty":   "Aún no hay comidas para resumir hoy.",
	"deleted": "Usuario eliminado.",
}
