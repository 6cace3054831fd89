package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/domain"
)

type mealPayload struct {
	MealType string `json:"meal_type"`
	Datetime string `json:"datetime"`
	RawText  string `json:"raw_text"`
	Feedback string `json:"feedback"`
	Calories *int   `json:"calories,omitempty"`
}

type goalPayload struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Type         string   `json:"type"`
	Frequency    string   `json:"frequency"`
	Deadline     *string  `json:"deadline,omitempty"`
	CaloriesGoal *float64 `json:"calories_goal,omitempty"`
	ProteinGoal  *float64 `json:"protein_goal,omitempty"`
	CarbsGoal    *float64 `json:"carbs_goal,omitempty"`
	FatGoal      *float64 `json:"fat_goal,omitempty"`
}

type aiLogPayload struct {
	UserID   string `json:"user_id"`
	Prompt   string `json:"prompt"`
	Response string `json:"response,omitempty"`
}

// ── Meals ────────────────────────────────────────────────────────────────────

func (c *Client) ListMeals(ctx context.Context) ([]domain.Meal, error) {
	const op = "list_meals"

	var recs []mealRecord
	if err := c.getJSON(ctx, op, "/meals", &recs); err != nil {
		return nil, err
	}
	return normalizeAll(op, recs, toMeal)
}

func (c *Client) GetMeal(ctx context.Context, id string) (*domain.Meal, error) {
	const op = "get_meal"

	var rec mealRecord
	if err := c.getJSON(ctx, op, "/meals/"+escape(id), &rec); err != nil {
		return nil, err
	}
	meal, err := toMeal(rec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &meal, nil
}

func (c *Client) CreateMeal(ctx context.Context, m domain.NewMeal) (*domain.Meal, error) {
	const op = "create_meal"

	var rec mealRecord
	err := c.sendJSON(ctx, op, http.MethodPost, "/meals", mealPayload{
		MealType: string(m.Type),
		Datetime: m.EatenAt.UTC().Format(time.RFC3339),
		RawText:  m.Description,
		Calories: m.Calories,
	}, &rec)
	if err != nil {
		return nil, err
	}
	meal, err := toMeal(rec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &meal, nil
}

// ── Goals ────────────────────────────────────────────────────────────────────

func (c *Client) ListGoals(ctx context.Context) ([]domain.Goal, error) {
	const op = "list_goals"

	var recs []goalRecord
	if err := c.getJSON(ctx, op, "/goals", &recs); err != nil {
		return nil, err
	}
	return normalizeAll(op, recs, toGoal)
}

func (c *Client) CreateGoal(ctx context.Context, g domain.NewGoal) (*domain.Goal, error) {
	const op = "create_goal"

	payload := goalPayload{
		Title:        g.Title,
		Description:  g.Description,
		Type:         g.Type,
		Frequency:    g.Frequency,
		CaloriesGoal: g.CaloriesGoal,
		ProteinGoal:  g.ProteinGoal,
		CarbsGoal:    g.CarbsGoal,
		FatGoal:      g.FatGoal,
	}
	if g.Deadline != nil {
		d := g.Deadline.Format("2006-01-02")
		payload.Deadline = &d
	}

	var rec goalRecord
	if err := c.sendJSON(ctx, op, http.MethodPost, "/goals", payload, &rec); err != nil {
		return nil, err
	}
	goal, err := toGoal(rec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &goal, nil
}

// ── Daily summaries ──────────────────────────────────────────────────────────

func (c *Client) ListSummaries(ctx context.Context) ([]domain.DailySummary, error) {
	const op = "list_summaries"

	var recs []summaryRecord
	if err := c.getJSON(ctx, op, "/daily_summary", &recs); err != nil {
		return nil, err
	}
	return normalizeAll(op, recs, toSummary)
}

// GenerateTodaySummary asks the backend to build today's summary. A 400 means
// there is nothing to summarize yet and yields (nil, nil); every other
// failure is returned.
func (c *Client) GenerateTodaySummary(ctx context.Context) (*domain.DailySummary, error) {
	const op = "generate_today_summary"

	var rec summaryRecord
	if err := c.sendJSON(ctx, op, http.MethodPost, "/daily_summary/auto", nil, &rec); err != nil {
		if domain.StatusOf(err) == http.StatusBadRequest {
			c.log.Debug().Err(err).Msg("nothing to summarize yet")
			return nil, nil
		}
		return nil, err
	}
	sum, err := toSummary(rec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sum, nil
}

// ── Food catalog ─────────────────────────────────────────────────────────────

func (c *Client) ListFoods(ctx context.Context) ([]domain.Food, error) {
	const op = "list_foods"

	var recs []foodRecord
	if err := c.getJSON(ctx, op, "/foods_catalog", &recs); err != nil {
		return nil, err
	}
	return normalizeAll(op, recs, toFood)
}

// ── AI logs ──────────────────────────────────────────────────────────────────

func (c *Client) ListAILogs(ctx context.Context) ([]domain.AILog, error) {
	const op = "list_ai_logs"

	var recs []aiLogRecord
	if err := c.getJSON(ctx, op, "/ai_logs", &recs); err != nil {
		return nil, err
	}
	return normalizeAll(op, recs, toAILog)
}

func (c *Client) CreateAILog(ctx context.Context, l domain.NewAILog) (*domain.AILog, error) {
	const op = "create_ai_log"

	var rec aiLogRecord
	err := c.sendJSON(ctx, op, http.MethodPost, "/ai_logs", aiLogPayload{
		UserID:   l.UserID,
		Prompt:   l.Prompt,
		Response: l.Response,
	}, &rec)
	if err != nil {
		return nil, err
	}
	entry, err := toAILog(rec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &entry, nil
}
