package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/araddon/dateparse"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/domain"
	"github.com/Apolo-personal-assistant/Front-2.0/pkg/logger"
)

// objectID accepts the backend identifier either as a plain string or in
// extended-JSON form {"$oid": "..."}.
type objectID string

func (o *objectID) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*o = objectID(s)
		return nil
	}
	var ext struct {
		OID string `json:"$oid"`
	}
	if err := json.Unmarshal(b, &ext); err != nil {
		return fmt.Errorf("identifier: %w", err)
	}
	*o = objectID(ext.OID)
	return nil
}

// identifier picks the backend "_id", falling back to "id".
func identifier(primary, fallback objectID) (string, error) {
	if primary != "" {
		return string(primary), nil
	}
	if fallback != "" {
		return string(fallback), nil
	}
	return "", domain.ErrMissingIdentifier
}

// timestamp parses the backend's date strings, which may lack a zone.
// Zone-less values are taken as UTC. A value that cannot be parsed is logged
// and left as the zero time so one bad record does not fail a whole list.
type timestamp time.Time

func (t *timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil || s == "" {
		return nil
	}
	parsed, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		log := logger.For("gateway")
		log.Warn().Err(err).Str("value", s).Msg("unparseable timestamp")
		return nil
	}
	*t = timestamp(parsed.UTC())
	return nil
}

func (t timestamp) Time() time.Time { return time.Time(t) }

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func roundInt(f *float64) *int {
	if f == nil {
		return nil
	}
	v := int(math.Round(*f))
	return &v
}

// normalizeAll converts every record, failing on the first one that cannot
// be mapped. The result is never nil.
func normalizeAll[R, T any](op string, recs []R, fn func(R) (T, error)) ([]T, error) {
	out := make([]T, 0, len(recs))
	for i, r := range recs {
		v, err := fn(r)
		if err != nil {
			return nil, fmt.Errorf("%s: record %d: %w", op, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ── Users ────────────────────────────────────────────────────────────────────

type userRecord struct {
	MongoID     objectID  `json:"_id"`
	ID          objectID  `json:"id"`
	FullName    string    `json:"full_name"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        string    `json:"role"`
	CreatedAt   timestamp `json:"created_at"`
	AvatarURL   string    `json:"avatar_url"`
	AvatarCamel string    `json:"avatarUrl"`
}

func toIdentity(r userRecord) (domain.Identity, error) {
	id, err := identifier(r.MongoID, r.ID)
	if err != nil {
		return domain.Identity{}, err
	}
	role := domain.Role(r.Role)
	if role != domain.RoleAdmin {
		role = domain.RoleUser
	}
	return domain.Identity{
		ID:        id,
		Name:      coalesce(r.FullName, r.Name),
		Email:     r.Email,
		Role:      role,
		CreatedAt: r.CreatedAt.Time(),
		AvatarURL: coalesce(r.AvatarURL, r.AvatarCamel),
	}, nil
}

func toIdentityPtr(op string, r userRecord) (*domain.Identity, error) {
	ident, err := toIdentity(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &ident, nil
}

// ── Meals ────────────────────────────────────────────────────────────────────

type mealRecord struct {
	MongoID     objectID  `json:"_id"`
	ID          objectID  `json:"id"`
	UserID      string    `json:"user_id"`
	MealType    string    `json:"meal_type"`
	Datetime    timestamp `json:"datetime"`
	Date        timestamp `json:"date"`
	RawText     string    `json:"raw_text"`
	Description string    `json:"description"`
	Feedback    string    `json:"feedback"`
	Calories    *float64  `json:"calories"`
	CreatedAt   timestamp `json:"created_at"`
}

func toMeal(r mealRecord) (domain.Meal, error) {
	id, err := identifier(r.MongoID, r.ID)
	if err != nil {
		return domain.Meal{}, err
	}
	eaten := r.Datetime.Time()
	if eaten.IsZero() {
		eaten = r.Date.Time()
	}
	return domain.Meal{
		ID:          id,
		UserID:      r.UserID,
		Type:        domain.MealType(r.MealType),
		EatenAt:     eaten,
		Description: coalesce(r.RawText, r.Description),
		Feedback:    r.Feedback,
		Calories:    roundInt(r.Calories),
		CreatedAt:   r.CreatedAt.Time(),
	}, nil
}

// ── Goals ────────────────────────────────────────────────────────────────────

type goalRecord struct {
	MongoID      objectID  `json:"_id"`
	ID           objectID  `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Type         string    `json:"type"`
	Frequency    string    `json:"frequency"`
	Deadline     timestamp `json:"deadline"`
	CaloriesGoal *float64  `json:"calories_goal"`
	ProteinGoal  *float64  `json:"protein_goal"`
	CarbsGoal    *float64  `json:"carbs_goal"`
	FatGoal      *float64  `json:"fat_goal"`
	CreatedAt    timestamp `json:"created_at"`
}

func toGoal(r goalRecord) (domain.Goal, error) {
	id, err := identifier(r.MongoID, r.ID)
	if err != nil {
		return domain.Goal{}, err
	}
	return domain.Goal{
		ID:           id,
		UserID:       r.UserID,
		Title:        r.Title,
		Description:  r.Description,
		Type:         r.Type,
		Frequency:    r.Frequency,
		Deadline:     r.Deadline.Time(),
		CaloriesGoal: r.CaloriesGoal,
		ProteinGoal:  r.ProteinGoal,
		CarbsGoal:    r.CarbsGoal,
		FatGoal:      r.FatGoal,
		CreatedAt:    r.CreatedAt.Time(),
	}, nil
}

// ── Daily summaries ──────────────────────────────────────────────────────────

type nutrientsRecord struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

type summaryRecord struct {
	MongoID       objectID         `json:"_id"`
	ID            objectID         `json:"id"`
	UserID        string           `json:"user_id"`
	Date          timestamp        `json:"date"`
	TotalCalories float64          `json:"total_calories"`
	TotalMeals    int              `json:"total_meals"`
	Weight        *float64         `json:"weight"`
	GoalMet       bool             `json:"goal_met"`
	Nutrients     *nutrientsRecord `json:"nutrients"`
	Protein       float64          `json:"protein"`
	Carbs         float64          `json:"carbs"`
	Fat           float64          `json:"fat"`
	Feedback      string           `json:"feedback"`
}

func toSummary(r summaryRecord) (domain.DailySummary, error) {
	id, err := identifier(r.MongoID, r.ID)
	if err != nil {
		return domain.DailySummary{}, err
	}
	n := domain.Nutrients{Protein: r.Protein, Carbs: r.Carbs, Fat: r.Fat}
	if r.Nutrients != nil {
		n = domain.Nutrients{Protein: r.Nutrients.Protein, Carbs: r.Nutrients.Carbs, Fat: r.Nutrients.Fat}
	}
	return domain.DailySummary{
		ID:            id,
		UserID:        r.UserID,
		Date:          r.Date.Time(),
		TotalCalories: r.TotalCalories,
		TotalMeals:    r.TotalMeals,
		Weight:        r.Weight,
		GoalMet:       r.GoalMet,
		Nutrients:     n,
		Feedback:      r.Feedback,
	}, nil
}

// ── Food catalog ─────────────────────────────────────────────────────────────

type foodRecord struct {
	MongoID  objectID `json:"_id"`
	ID       objectID `json:"id"`
	Name     string   `json:"name"`
	Calories float64  `json:"calories"`
	Portion  string   `json:"portion"`
	Protein  float64  `json:"protein"`
	Carbs    float64  `json:"carbs"`
	Fat      float64  `json:"fat"`
}

func toFood(r foodRecord) (domain.Food, error) {
	id, err := identifier(r.MongoID, r.ID)
	if err != nil {
		return domain.Food{}, err
	}
	return domain.Food{
		ID:       id,
		Name:     r.Name,
		Calories: r.Calories,
		Portion:  r.Portion,
		Macros:   domain.Nutrients{Protein: r.Protein, Carbs: r.Carbs, Fat: r.Fat},
	}, nil
}

// ── AI logs ──────────────────────────────────────────────────────────────────

type aiLogRecord struct {
	MongoID   objectID  `json:"_id"`
	ID        objectID  `json:"id"`
	UserID    string    `json:"user_id"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response"`
	CreatedAt timestamp `json:"created_at"`
}

func toAILog(r aiLogRecord) (domain.AILog, error) {
	id, err := identifier(r.MongoID, r.ID)
	if err != nil {
		return domain.AILog{}, err
	}
	return domain.AILog{
		ID:        id,
		UserID:    r.UserID,
		Prompt:    r.Prompt,
		Response:  r.Response,
		CreatedAt: r.CreatedAt.Time(),
	}, nil
}
