package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/domain"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/ports"
)

// stubBackend answers from in-memory fixtures and counts calls per
// operation. Tokens seen by CurrentIdentity are looked up in identities.
type stubBackend struct {
	token string

	shared *stubBackendState
}

type stubBackendState struct {
	mu         sync.Mutex
	calls      map[string]int
	tokens     []string
	identities map[string]*domain.Identity
	passwords  map[string]string
	issued     map[string]string
	loginErr   error
	meals      []domain.Meal
	goals      []domain.Goal
	summaries  []domain.DailySummary
	logs       []domain.AILog
	users      []domain.Identity
	listErr    error
	generated  *domain.DailySummary
	deleted    []string
}

func newStubBackend() *stubBackend {
	return &stubBackend{shared: &stubBackendState{
		calls:      make(map[string]int),
		identities: make(map[string]*domain.Identity),
		passwords:  make(map[string]string),
		issued:     make(map[string]string),
	}}
}

// addAccount registers an account whose login yields token.
func (b *stubBackend) addAccount(ident domain.Identity, password, token string) {
	b.shared.mu.Lock()
	defer b.shared.mu.Unlock()
	cp := ident
	b.shared.identities[token] = &cp
	b.shared.passwords[ident.Email] = password
	b.shared.issued[ident.Email] = token
}

func (b *stubBackend) record(op string) {
	b.shared.mu.Lock()
	defer b.shared.mu.Unlock()
	b.shared.calls[op]++
	b.shared.tokens = append(b.shared.tokens, b.token)
}

func (b *stubBackend) callCount(op string) int {
	b.shared.mu.Lock()
	defer b.shared.mu.Unlock()
	return b.shared.calls[op]
}

func (b *stubBackend) WithCredentials(src ports.TokenSource) ports.Backend {
	return &stubBackend{token: src.Token(), shared: b.shared}
}

func (b *stubBackend) Login(_ context.Context, email, password string) (string, error) {
	b.record("login")
	s := b.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loginErr != nil {
		return "", s.loginErr
	}
	if pw, ok := s.passwords[email]; !ok || pw != password {
		return "", &domain.GatewayError{Op: "login", Status: 401, Detail: "Incorrect email or password", Err: domain.ErrInvalidCredentials}
	}
	return s.issued[email], nil
}

func (b *stubBackend) Register(_ context.Context, acc domain.NewAccount) (*domain.Identity, error) {
	b.record("register")
	s := b.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.passwords[acc.Email]; ok {
		return nil, &domain.GatewayError{Op: "register", Status: 409, Err: domain.ErrEmailTaken}
	}
	ident := &domain.Identity{ID: "u-" + acc.Email, Name: acc.Name, Email: acc.Email, Role: domain.RoleUser}
	token := "token-" + acc.Email
	s.identities[token] = ident
	s.passwords[acc.Email] = acc.Password
	s.issued[acc.Email] = token
	cp := *ident
	return &cp, nil
}

func (b *stubBackend) CurrentIdentity(context.Context) (*domain.Identity, error) {
	b.record("me")
	s := b.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	ident, ok := s.identities[b.token]
	if !ok {
		return nil, &domain.GatewayError{Op: "current identity", Status: 401, Err: domain.ErrUnauthenticated}
	}
	cp := *ident
	return &cp, nil
}

func (b *stubBackend) ListUsers(context.Context) ([]domain.Identity, error) {
	b.record("list users")
	s := b.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Identity(nil), s.users...), s.listErr
}

func (b *stubBackend) GetUser(context.Context, string) (*domain.Identity, error) {
	b.record("get user")
	return nil, domain.ErrNotFound
}

func (b *stubBackend) CreateUser(context.Context, domain.NewUser) (*domain.Identity, error) {
	b.record("create user")
	return nil, errors.New("not implemented")
}

func (b *stubBackend) UpdateUser(_ context.Context, id string, upd domain.IdentityUpdate) (*domain.Identity, error) {
	b.record("update user")
	s := b.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ident := range s.identities {
		if ident.ID != id {
			continue
		}
		if upd.Name != nil {
			ident.Name = *upd.Name
		}
		if upd.Email != nil {
			ident.Email = *upd.Email
		}
		if upd.Role != nil {
			ident.Role = *upd.Role
		}
		cp := *ident
		return &cp, nil
	}
	return nil, &domain.GatewayError{Op: "update user", Status: 404, Err: domain.ErrNotFound}
}

func (b *stubBackend) DeleteUser(_ context.Context, id string) error {
	b.record("delete user")
	s := b.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, id)
	return nil
}

func (b *stubBackend) ListMeals(context.Context) ([]domain.Meal, error) {
	b.record("list meals")
	s := b.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Meal(nil), s.meals...), s.listErr
}

func (b *stubBackend) GetMeal(context.Context, string) (*domain.Meal, error) {
	b.record("get meal")
	return nil, domain.ErrNotFound
}

func (b *stubBackend) CreateMeal(_ context.Context, m domain.NewMeal) (*domain.Meal, error) {
	b.record("create meal")
	s := b.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	meal := domain.Meal{ID: "m-new", Type: m.Type, EatenAt: m.EatenAt, Description: m.Description, Calories: m.Calories}
	s.meals = append(s.meals, meal)
	return &meal, nil
}

func (b *stubBackend) ListGoals(context.Context) ([]domain.Goal, error) {
	b.record("list goals")
	s := b.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Goal(nil), s.goals...), s.listErr
}

func (b *stubBackend) CreateGoal(_ context.Context, g domain.NewGoal) (*domain.Goal, error) {
	b.record("create goal")
	s := b.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	goal := domain.Goal{ID: "g-new", Title: g.Title, CaloriesGoal: g.CaloriesGoal}
	s.goals = append(s.goals, goal)
	return &goal, nil
}

func (b *stubBackend) ListSummaries(context.Context) ([]domain.DailySummary, error) {
	b.record("list summaries")
	s := b.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.DailySummary(nil), s.summaries...), s.listErr
}

func (b *stubBackend) GenerateTodaySummary(context.Context) (*domain.DailySummary, error) {
	b.record("generate summary")
	s := b.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generated, nil
}

func (b *stubBackend) ListFoods(context.Context) ([]domain.Food, error) {
	b.record("list foods")
	return []domain.Food{{ID: "f1", Name: "Manzana", Calories: 52}}, nil
}

func (b *stubBackend) ListAILogs(context.Context) ([]domain.AILog, error) {
	b.record("list ai logs")
	s := b.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AILog(nil), s.logs...), s.listErr
}

func (b *stubBackend) CreateAILog(_ context.Context, l domain.NewAILog) (*domain.AILog, error) {
	b.record("create ai log")
	s := b.shared
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := domain.AILog{ID: "l-new", UserID: l.UserID, Prompt: l.Prompt, Response: l.Response}
	s.logs = append(s.logs, entry)
	return &entry, nil
}

type stubTokenStore struct {
	mu     sync.Mutex
	tokens map[string]string
	ttls   map[string]time.Duration
	getErr error
	dels   int
}

func newStubTokenStore() *stubTokenStore {
	return &stubTokenStore{tokens: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (s *stubTokenStore) Get(_ context.Context, sid string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	tok, ok := s.tokens[sid]
	return tok, ok, nil
}

func (s *stubTokenStore) Set(_ context.Context, sid, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[sid] = token
	s.ttls[sid] = ttl
	return nil
}

func (s *stubTokenStore) Delete(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, sid)
	s.dels++
	return nil
}

func (s *stubTokenStore) lookup(sid string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[sid]
	return tok, ok
}

type stubCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string][]byte)}
}

func (c *stubCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok, nil
}

func (c *stubCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *stubCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	return nil
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice@example.com",
		"exp": exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
