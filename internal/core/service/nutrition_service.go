package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/domain"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/ports"
)

const (
	defaultStaleTime    = 30 * time.Second
	defaultCaloriesGoal = 2000
	recentLogsShown     = 5
	weekDays            = 7
)

// Cached resources.
const (
	resMeals     = "meals"
	resGoals     = "goals"
	resSummaries = "summaries"
	resAILogs    = "ai_logs"
	resUsers     = "users"
	resFoods     = "foods"
)

// Viewer is the session a query runs on behalf of.
type Viewer interface {
	ports.TokenSource
	State() domain.SessionState
}

// QueryOptions tunes the query layer.
type QueryOptions struct {
	// StaleTime is how long a fetched result is served from cache.
	StaleTime time.Duration
	// OnLookup, when set, is told whether each read was served from cache.
	OnLookup func(resource string, hit bool)
	Now      func() time.Time
}

// NutritionService fetches view data through the backend, caching results
// per identity and collapsing identical in-flight requests.
type NutritionService struct {
	backend ports.Backend
	cache   ports.QueryCache
	opts    QueryOptions
	group   singleflight.Group
	log     zerolog.Logger
}

func NewNutritionService(backend ports.Backend, cache ports.QueryCache, opts QueryOptions, log zerolog.Logger) *NutritionService {
	if opts.StaleTime <= 0 {
		opts.StaleTime = defaultStaleTime
	}
	if opts.OnLookup == nil {
		opts.OnLookup = func(string, bool) {}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &NutritionService{backend: backend, cache: cache, opts: opts, log: log}
}

// DashboardView aggregates what the dashboard shows.
type DashboardView struct {
	Identity        domain.Identity
	Interactions    int
	RecentLogs      []domain.AILog
	LastInteraction time.Time
	Today           *domain.DailySummary
	CaloriesGoal    float64
	WeeklyCalories  float64
	WeeklyGoal      float64
}

// ProfileView aggregates what the profile page shows.
type ProfileView struct {
	Identity domain.Identity
	Goals    []domain.Goal
	Meals    []domain.Meal
}

func queryKey(scope, resource string) string {
	return "q:" + scope + ":" + resource
}

func identityOf(v Viewer) (*domain.Identity, error) {
	st := v.State()
	if !st.IsAuthenticated() {
		return nil, domain.ErrUnauthenticated
	}
	return st.Identity, nil
}

func adminOf(v Viewer) (*domain.Identity, error) {
	ident, err := identityOf(v)
	if err != nil {
		return nil, err
	}
	if !ident.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	return ident, nil
}

// query serves key from cache or loads it once for all concurrent callers.
// The load is detached from the caller's cancellation: a request that goes
// away does not abort the call other callers may be waiting on.
func query[T any](ctx context.Context, s *NutritionService, resource, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T

	raw, ok, err := s.cache.Get(ctx, key)
	switch {
	case err != nil:
		s.log.Warn().Err(err).Str("key", key).Msg("query cache read failed")
	case ok:
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			s.opts.OnLookup(resource, true)
			return v, nil
		}
		s.log.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	}
	s.opts.OnLookup(resource, false)

	res, err, _ := s.group.Do(key, func() (any, error) {
		loadCtx := context.WithoutCancel(ctx)
		v, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		if b, err := json.Marshal(v); err == nil {
			if err := s.cache.Set(loadCtx, key, b, s.opts.StaleTime); err != nil {
				s.log.Warn().Err(err).Str("key", key).Msg("query cache write failed")
			}
		}
		return v, nil
	})
	if err != nil {
		return zero, err
	}
	return res.(T), nil
}

func (s *NutritionService) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.log.Warn().Err(err).Strs("keys", keys).Msg("query cache invalidation failed")
	}
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *NutritionService) Meals(ctx context.Context, v Viewer) ([]domain.Meal, error) {
	ident, err := identityOf(v)
	if err != nil {
		return nil, err
	}
	return query(ctx, s, resMeals, queryKey(ident.ID, resMeals), func(ctx context.Context) ([]domain.Meal, error) {
		meals, err := s.backend.WithCredentials(v).ListMeals(ctx)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(meals, func(i, j int) bool { return meals[i].EatenAt.After(meals[j].EatenAt) })
		return meals, nil
	})
}

func (s *NutritionService) Goals(ctx context.Context, v Viewer) ([]domain.Goal, error) {
	ident, err := identityOf(v)
	if err != nil {
		return nil, err
	}
	return query(ctx, s, resGoals, queryKey(ident.ID, resGoals), func(ctx context.Context) ([]domain.Goal, error) {
		goals, err := s.backend.WithCredentials(v).ListGoals(ctx)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(goals, func(i, j int) bool { return goals[i].CreatedAt.After(goals[j].CreatedAt) })
		return goals, nil
	})
}

func (s *NutritionService) Summaries(ctx context.Context, v Viewer) ([]domain.DailySummary, error) {
	ident, err := identityOf(v)
	if err != nil {
		return nil, err
	}
	return query(ctx, s, resSummaries, queryKey(ident.ID, resSummaries), func(ctx context.Context) ([]domain.DailySummary, error) {
		sums, err := s.backend.WithCredentials(v).ListSummaries(ctx)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(sums, func(i, j int) bool { return sums[i].Date.After(sums[j].Date) })
		return sums, nil
	})
}

// Foods returns the shared food catalog.
func (s *NutritionService) Foods(ctx context.Context, v Viewer) ([]domain.Food, error) {
	if _, err := identityOf(v); err != nil {
		return nil, err
	}
	return query(ctx, s, resFoods, queryKey("catalog", resFoods), func(ctx context.Context) ([]domain.Food, error) {
		return s.backend.WithCredentials(v).ListFoods(ctx)
	})
}

func (s *NutritionService) allAILogs(ctx context.Context, v Viewer, scope string) ([]domain.AILog, error) {
	return query(ctx, s, resAILogs, queryKey(scope, resAILogs), func(ctx context.Context) ([]domain.AILog, error) {
		logs, err := s.backend.WithCredentials(v).ListAILogs(ctx)
		if err != nil {
			return nil, err
		}
		sort.SliceStable(logs, func(i, j int) bool { return logs[i].CreatedAt.After(logs[j].CreatedAt) })
		return logs, nil
	})
}

// AILogs returns the viewer's own assistant interactions, newest first.
func (s *NutritionService) AILogs(ctx context.Context, v Viewer) ([]domain.AILog, error) {
	ident, err := identityOf(v)
	if err != nil {
		return nil, err
	}
	logs, err := s.allAILogs(ctx, v, ident.ID)
	if err != nil {
		return nil, err
	}
	own := make([]domain.AILog, 0, len(logs))
	for _, l := range logs {
		if l.UserID == ident.ID {
			own = append(own, l)
		}
	}
	return own, nil
}

// AllAILogs returns every user's interactions. Admin only.
func (s *NutritionService) AllAILogs(ctx context.Context, v Viewer) ([]domain.AILog, error) {
	ident, err := adminOf(v)
	if err != nil {
		return nil, err
	}
	return s.allAILogs(ctx, v, ident.ID)
}

// Users lists every account. Admin only.
func (s *NutritionService) Users(ctx context.Context, v Viewer) ([]domain.Identity, error) {
	ident, err := adminOf(v)
	if err != nil {
		return nil, err
	}
	return query(ctx, s, resUsers, queryKey(ident.ID, resUsers), func(ctx context.Context) ([]domain.Identity, error) {
		return s.backend.WithCredentials(v).ListUsers(ctx)
	})
}

// Profile fetches goals and meals concurrently.
func (s *NutritionService) Profile(ctx context.Context, v Viewer) (*ProfileView, error) {
	ident, err := identityOf(v)
	if err != nil {
		return nil, err
	}
	view := &ProfileView{Identity: *ident}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		goals, err := s.Goals(gctx, v)
		view.Goals = goals
		return err
	})
	g.Go(func() error {
		meals, err := s.Meals(gctx, v)
		view.Meals = meals
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("profile: %w", err)
	}
	return view, nil
}

// Dashboard fetches logs, summaries and goals concurrently and derives the
// dashboard figures.
func (s *NutritionService) Dashboard(ctx context.Context, v Viewer) (*DashboardView, error) {
	ident, err := identityOf(v)
	if err != nil {
		return nil, err
	}

	var (
		logs  []domain.AILog
		sums  []domain.DailySummary
		goals []domain.Goal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		logs, err = s.AILogs(gctx, v)
		return err
	})
	g.Go(func() (err error) {
		sums, err = s.Summaries(gctx, v)
		return err
	})
	g.Go(func() (err error) {
		goals, err = s.Goals(gctx, v)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}

	view := &DashboardView{
		Identity:     *ident,
		Interactions: len(logs),
		RecentLogs:   logs[:min(len(logs), recentLogsShown)],
		CaloriesGoal: caloriesGoal(goals),
	}
	if len(logs) > 0 {
		view.LastInteraction = logs[0].CreatedAt
	}

	today := s.opts.Now().UTC()
	for i := range sums {
		if i < weekDays {
			view.WeeklyCalories += sums[i].TotalCalories
		}
		if view.Today == nil && sameDay(sums[i].Date, today) {
			sum := sums[i]
			view.Today = &sum
		}
	}
	view.WeeklyGoal = view.CaloriesGoal * weekDays
	return view, nil
}

// caloriesGoal picks the calorie target of the most recent goal that sets
// one. goals are expected newest first.
func caloriesGoal(goals []domain.Goal) float64 {
	for _, g := range goals {
		if g.CaloriesGoal != nil && *g.CaloriesGoal > 0 {
			return *g.CaloriesGoal
		}
	}
	return defaultCaloriesGoal
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// ── Writes ───────────────────────────────────────────────────────────────────

func (s *NutritionService) CreateMeal(ctx context.Context, v Viewer, m domain.NewMeal) (*domain.Meal, error) {
	ident, err := identityOf(v)
	if err != nil {
		return nil, err
	}
	meal, err := s.backend.WithCredentials(v).CreateMeal(ctx, m)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, queryKey(ident.ID, resMeals), queryKey(ident.ID, resSummaries))
	return meal, nil
}

func (s *NutritionService) CreateGoal(ctx context.Context, v Viewer, g domain.NewGoal) (*domain.Goal, error) {
	ident, err := identityOf(v)
	if err != nil {
		return nil, err
	}
	goal, err := s.backend.WithCredentials(v).CreateGoal(ctx, g)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, queryKey(ident.ID, resGoals))
	return goal, nil
}

// RecordPrompt stores a prompt the viewer sent to the assistant.
func (s *NutritionService) RecordPrompt(ctx context.Context, v Viewer, prompt, response string) (*domain.AILog, error) {
	ident, err := identityOf(v)
	if err != nil {
		return nil, err
	}
	entry, err := s.backend.WithCredentials(v).CreateAILog(ctx, domain.NewAILog{
		UserID:   ident.ID,
		Prompt:   prompt,
		Response: response,
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, queryKey(ident.ID, resAILogs))
	return entry, nil
}

// GenerateTodaySummary returns nil when there is nothing to summarize yet.
func (s *NutritionService) GenerateTodaySummary(ctx context.Context, v Viewer) (*domain.DailySummary, error) {
	ident, err := identityOf(v)
	if err != nil {
		return nil, err
	}
	sum, err := s.backend.WithCredentials(v).GenerateTodaySummary(ctx)
	if err != nil {
		return nil, err
	}
	if sum != nil {
		s.invalidate(ctx, queryKey(ident.ID, resSummaries))
	}
	return sum, nil
}

// UpdateProfile changes the viewer's own account.
func (s *NutritionService) UpdateProfile(ctx context.Context, v Viewer, upd domain.IdentityUpdate) (*domain.Identity, error) {
	ident, err := identityOf(v)
	if err != nil {
		return nil, err
	}
	upd.Role = nil
	updated, err := s.backend.WithCredentials(v).UpdateUser(ctx, ident.ID, upd)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, queryKey(ident.ID, resUsers))
	return updated, nil
}

// DeleteUser removes another account. Admin only; admins cannot delete
// themselves.
func (s *NutritionService) DeleteUser(ctx context.Context, v Viewer, id string) error {
	ident, err := adminOf(v)
	if err != nil {
		return err
	}
	if id == ident.ID {
		return domain.ErrForbidden
	}
	if err := s.backend.WithCredentials(v).DeleteUser(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, queryKey(ident.ID, resUsers))
	return nil
}
