package ports

import (
	"context"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/domain"
)

// TokenSource yields the credential token to attach to outgoing calls.
// An empty token means the call goes out anonymously.
type TokenSource interface {
	Token() string
}

// StaticToken is a TokenSource over a fixed token.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// Backend is the typed surface of the remote REST backend.
// Each call issues exactly one HTTP request.
type Backend interface {
	// WithCredentials returns a Backend whose every request carries the
	// token yielded by src as a bearer credential.
	WithCredentials(src TokenSource) Backend

	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, acc domain.NewAccount) (*domain.Identity, error)
	CurrentIdentity(ctx context.Context) (*domain.Identity, error)

	ListUsers(ctx context.Context) ([]domain.Identity, error)
	GetUser(ctx context.Context, id string) (*domain.Identity, error)
	CreateUser(ctx context.Context, u domain.NewUser) (*domain.Identity, error)
	UpdateUser(ctx context.Context, id string, upd domain.IdentityUpdate) (*domain.Identity, error)
	DeleteUser(ctx context.Context, id string) error

	ListMeals(ctx context.Context) ([]domain.Meal, error)
	GetMeal(ctx context.Context, id string) (*domain.Meal, error)
	CreateMeal(ctx context.Context, m domain.NewMeal) (*domain.Meal, error)

	ListGoals(ctx context.Context) ([]domain.Goal, error)
	CreateGoal(ctx context.Context, g domain.NewGoal) (*domain.Goal, error)

	ListSummaries(ctx context.Context) ([]domain.DailySummary, error)
	// GenerateTodaySummary returns nil without error when the backend has
	// nothing to summarize yet.
	GenerateTodaySummary(ctx context.Context) (*domain.DailySummary, error)

	ListFoods(ctx context.Context) ([]domain.Food, error)

	ListAILogs(ctx context.Context) ([]domain.AILog, error)
	CreateAILog(ctx context.Context, l domain.NewAILog) (*domain.AILog, error)
}
