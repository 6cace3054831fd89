// Package views renders the portal's server-side pages. Every page template
// is parsed together with the shared layout and executed through it.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"math"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/domain"
)

//go:embed templates/*.html
var files embed.FS

// Page names.
const (
	Login     = "login"
	Register  = "register"
	Loading   = "loading"
	Dashboard = "dashboard"
	Meals     = "meals"
	Goals     = "goals"
	Profile   = "profile"
	Summary   = "summary"
	Admin     = "admin"
	Error     = "error"
)

var pageNames = []string{Login, Register, Loading, Dashboard, Meals, Goals, Profile, Summary, Admin, Error}

// Page is the data every template receives.
type Page struct {
	Title    string
	Active   string
	Identity *domain.Identity
	Error    string
	Notice   string
	Form     any
	Data     any
}

// Renderer implements echo.Renderer over the embedded templates.
type Renderer struct {
	pages map[string]*template.Template
}

var _ echo.Renderer = (*Renderer)(nil)

func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("views: unknown page %q", name)
	}
	if data == nil {
		data = Page{}
	}
	return t.ExecuteTemplate(w, "layout", data)
}

var funcs = template.FuncMap{
	"date":     formatDate,
	"datetime": formatDateTime,
	"kcal":     func(f float64) string { return fmt.Sprintf("%.0f", f) },
	"grams":    func(f float64) string { return fmt.Sprintf("%.1f", f) },
	"percent":  percent,
	"mealType": mealTypeLabel,
	"optFloat": optFloat,
	"optInt":   optInt,
	"initial":  initial,
	"mealTypes": func() []domain.MealTypeOption {
		return domain.MealTypes
	},
	"goalTypes": func() []domain.Option {
		return domain.GoalTypes
	},
	"goalFrequencies": func() []domain.Option {
		return domain.GoalFrequencies
	},
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "Sin datos"
	}
	return t.Format("02/01/2006")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return "Sin datos"
	}
	return t.Format("02/01/2006 15:04")
}

// percent returns value as a share of goal, clamped to [0, 100].
func percent(value, goal float64) int {
	if goal <= 0 {
		return 0
	}
	p := math.Round(value / goal * 100)
	return int(math.Max(0, math.Min(100, p)))
}

func mealTypeLabel(t domain.MealType) string {
	for _, o := range domain.MealTypes {
		if o.Value == t {
			return o.Emoji + " " + o.Label
		}
	}
	return string(t)
}

func optFloat(f *float64) string {
	if f == nil {
		return "No registrado"
	}
	return fmt.Sprintf("%.0f", *f)
}

func optInt(i *int) string {
	if i == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *i)
}

func initial(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "?"
	}
	return strings.ToUpper(string([]rune(name)[0]))
}
