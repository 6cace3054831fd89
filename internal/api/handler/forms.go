package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/domain"
)

const dateLayout = "2006-01-02"

type loginForm struct {
	Email    string `form:"email" json:"email" validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required"`
}

type registerForm struct {
	FullName string `form:"full_name" json:"full_name" validate:"required,max=120"`
	Email    string `form:"email" json:"email" validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required,min=6"`
	Confirm  string `form:"confirm" json:"confirm" validate:"required,eqfield=Password"`
}

type mealForm struct {
	MealType string `form:"meal_type" validate:"required,oneof=desayuno almuerzo cena snack"`
	Date     string `form:"date" validate:"required,datetime=2006-01-02"`
	RawText  string `form:"raw_text" validate:"required,max=500"`
	Calories string `form:"calories" validate:"omitempty,numeric"`
}

// toNewMeal stamps the chosen day with the current time of day.
func (f mealForm) toNewMeal(now time.Time) domain.NewMeal {
	day, _ := time.ParseInLocation(dateLayout, f.Date, now.Location())
	eatenAt := time.Date(day.Year(), day.Month(), day.Day(), now.Hour(), now.Minute(), now.Second(), 0, now.Location())

	m := domain.NewMeal{
		Type:        domain.MealType(f.MealType),
		EatenAt:     eatenAt,
		Description: strings.TrimSpace(f.RawText),
	}
	if n, err := strconv.Atoi(strings.TrimSpace(f.Calories)); err == nil {
		m.Calories = &n
	}
	return m
}

type goalForm struct {
	Title        string `form:"title" validate:"required,max=120"`
	Description  string `form:"description" validate:"max=500"`
	Type         string `form:"type" validate:"required,oneof='bajar peso' 'subir peso' 'mantenerse saludable' 'dieta personalizada'"`
	Frequency    string `form:"frequency" validate:"required,oneof=diaria semanal mensual"`
	Deadline     string `form:"deadline" validate:"omitempty,datetime=2006-01-02"`
	CaloriesGoal string `form:"calories_goal" validate:"omitempty,numeric"`
	ProteinGoal  string `form:"protein_goal" validate:"omitempty,numeric"`
	CarbsGoal    string `form:"carbs_goal" validate:"omitempty,numeric"`
	FatGoal      string `form:"fat_goal" validate:"omitempty,numeric"`
}

func (f goalForm) toNewGoal() domain.NewGoal {
	g := domain.NewGoal{
		Title:        strings.TrimSpace(f.Title),
		Description:  strings.TrimSpace(f.Description),
		Type:         f.Type,
		Frequency:    f.Frequency,
		CaloriesGoal: optionalFloat(f.CaloriesGoal),
		ProteinGoal:  optionalFloat(f.ProteinGoal),
		CarbsGoal:    optionalFloat(f.CarbsGoal),
		FatGoal:      optionalFloat(f.FatGoal),
	}
	if d, err := time.Parse(dateLayout, f.Deadline); err == nil {
		g.Deadline = &d
	}
	return g
}

type profileForm struct {
	FullName  string `form:"full_name" validate:"required,max=120"`
	AvatarURL string `form:"avatar_url" validate:"omitempty,url"`
}

func (f profileForm) toUpdate() domain.IdentityUpdate {
	name := strings.TrimSpace(f.FullName)
	avatar := strings.TrimSpace(f.AvatarURL)
	return domain.IdentityUpdate{Name: &name, AvatarURL: &avatar}
}

type promptForm struct {
	Prompt string `form:"prompt" validate:"required,max=2000"`
}

func optionalFloat(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}
