package domain

import "time"

// MealType is the slot of the day a meal belongs to.
type MealType string

const (
	MealBreakfast MealType = "desayuno"
	MealLunch     MealType = "almuerzo"
	MealDinner    MealType = "cena"
	MealSnack     MealType = "snack"
)

// MealTypeOption describes a MealType for selection lists.
type MealTypeOption struct {
	Value MealType
	Label string
	Emoji string
}

// MealTypes lists the selectable meal types in display order.
var MealTypes = []MealTypeOption{
	{Value: MealBreakfast, Label: "Desayuno", Emoji: "🍳"},
	{Value: MealLunch, Label: "Almuerzo", Emoji: "🍲"},
	{Value: MealDinner, Label: "Cena", Emoji: "🍝"},
	{Value: MealSnack, Label: "Snack", Emoji: "🥜"},
}

// Option is a selectable value with its display label.
type Option struct {
	Value string
	Label string
}

// GoalTypes lists the goal kinds offered when creating a goal.
var GoalTypes = []Option{
	{Value: "bajar peso", Label: "Bajar peso"},
	{Value: "subir peso", Label: "Subir peso"},
	{Value: "mantenerse saludable", Label: "Mantenerse saludable"},
	{Value: "dieta personalizada", Label: "Dieta personalizada"},
}

// GoalFrequencies lists how often a goal is tracked.
var GoalFrequencies = []Option{
	{Value: "diaria", Label: "Diaria"},
	{Value: "semanal", Label: "Semanal"},
	{Value: "mensual", Label: "Mensual"},
}

// Meal is a logged food intake.
type Meal struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        MealType  `json:"meal_type"`
	EatenAt     time.Time `json:"datetime"`
	Description string    `json:"raw_text"`
	Feedback    string    `json:"feedback,omitempty"`
	Calories    *int      `json:"calories,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type NewMeal struct {
	Type        MealType
	EatenAt     time.Time
	Description string
	Calories    *int
}

// Goal is a nutrition or wellbeing target.
type Goal struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Type         string    `json:"type"`
	Frequency    string    `json:"frequency"`
	Deadline     time.Time `json:"deadline"`
	CaloriesGoal *float64  `json:"calories_goal,omitempty"`
	ProteinGoal  *float64  `json:"protein_goal,omitempty"`
	CarbsGoal    *float64  `json:"carbs_goal,omitempty"`
	FatGoal      *float64  `json:"fat_goal,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type NewGoal struct {
	Title        string
	Description  string
	Type         string
	Frequency    string
	Deadline     *time.Time
	CaloriesGoal *float64
	ProteinGoal  *float64
	CarbsGoal    *float64
	FatGoal      *float64
}

// Nutrients holds macronutrient totals in grams.
type Nutrients struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

// DailySummary is the backend's per-day roll-up of meals.
type DailySummary struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Date          time.Time `json:"date"`
	TotalCalories float64   `json:"total_calories"`
	TotalMeals    int       `json:"total_meals"`
	Weight        *float64  `json:"weight,omitempty"`
	GoalMet       bool      `json:"goal_met"`
	Nutrients     Nutrients `json:"nutrients"`
	Feedback      string    `json:"feedback,omitempty"`
}

// Food is an entry of the read-only food catalog.
type Food struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Calories float64   `json:"calories"`
	Portion  string    `json:"portion,omitempty"`
	Macros   Nutrients `json:"macros"`
}

// AILog records one prompt sent to the assistant.
type AILog struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Prompt    string    `json:"prompt"`
	Response  string    `json:"response,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type NewAILog struct {
	UserID   string
	Prompt   string
	Response string
}
