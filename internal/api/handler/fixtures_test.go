package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/api/middleware"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/api/views"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/service"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/infrastructure/db/memory"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/infrastructure/gateway"
)

const (
	aliceEmail    = "alice@example.com"
	alicePassword = "secret1"
	aliceToken    = "tok-alice"
	takenEmail    = "taken@example.com"
	cookieName    = "sid"
)

// fakeBackend answers the auth endpoints the way the nutrition API does.
type fakeBackend struct {
	mu    sync.Mutex
	calls map[string]int
}

func (b *fakeBackend) count(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.calls[r.URL.Path]++
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/auth/login":
		_ = r.ParseForm()
		if r.PostForm.Get("username") != aliceEmail || r.PostForm.Get("password") != alicePassword {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Incorrect email or password"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": aliceToken, "token_type": "bearer"})
	case "/auth/me":
		if r.Header.Get("Authorization") != "Bearer "+aliceToken {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"_id":"u1","full_name":"Alice","email":"alice@example.com","role":"user","created_at":"2024-05-01T10:00:00"}`))
	case "/auth/register":
		var body struct {
			Email string `json:"email"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Email == takenEmail {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail":"Email already registered"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"_id":"u1","full_name":"Alice","email":"alice@example.com","role":"user"}`))
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"Not Found"}`))
	}
}

type harness struct {
	e        *echo.Echo
	backend  *fakeBackend
	sessions *service.Sessions
	mw       echo.MiddlewareFunc
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	fb := &fakeBackend{calls: make(map[string]int)}
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)
	return newHarnessWith(t, fb, srv.URL)
}

func newHarnessWith(t *testing.T, fb *fakeBackend, baseURL string) *harness {
	t.Helper()
	r, err := views.New()
	if err != nil {
		t.Fatalf("views: %v", err)
	}
	e := echo.New()
	e.Renderer = r
	e.Validator = NewValidator()

	sessions := service.NewSessions(gateway.New(baseURL), memory.NewTokenStore(), nil, service.SessionOptions{}, zerolog.Nop())
	return &harness{
		e:        e,
		backend:  fb,
		sessions: sessions,
		mw:       middleware.Sessions(middleware.SessionConfig{Cookie: cookieName, Sessions: sessions}),
	}
}

// openSession returns a settled anonymous session.
func (h *harness) openSession(t *testing.T) *service.SessionStore {
	t.Helper()
	store := h.sessions.Open(uuid.NewString())
	select {
	case <-store.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("session did not resolve")
	}
	return store
}

// loggedIn returns a session authenticated as alice.
func (h *harness) loggedIn(t *testing.T) *service.SessionStore {
	t.Helper()
	store := h.openSession(t)
	if err := store.Login(testContext(t), aliceEmail, alicePassword); err != nil {
		t.Fatalf("login: %v", err)
	}
	return store
}

// do runs fn for a request carrying store's cookie. A returned error is
// passed to the echo error handler like the router would.
func (h *harness) do(t *testing.T, fn echo.HandlerFunc, store *service.SessionStore, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	return h.serve(t, fn, store, req)
}

func (h *harness) doJSON(t *testing.T, fn echo.HandlerFunc, store *service.SessionStore, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return h.serve(t, fn, store, req)
}

func (h *harness) serve(t *testing.T, fn echo.HandlerFunc, store *service.SessionStore, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	req.AddCookie(&http.Cookie{Name: cookieName, Value: store.SessionID()})
	rec := httptest.NewRecorder()
	c := h.e.NewContext(req, rec)
	if err := h.mw(fn)(c); err != nil {
		h.e.HTTPErrorHandler(err, c)
	}
	return rec
}

// doParam posts to the admin delete route with the :id parameter set.
func (h *harness) doParam(t *testing.T, fn echo.HandlerFunc, store *service.SessionStore, id string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/admin/users/"+id+"/delete", nil)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: store.SessionID()})
	rec := httptest.NewRecorder()
	c := h.e.NewContext(req, rec)
	c.SetPath("/admin/users/:id/delete")
	c.SetParamNames("id")
	c.SetParamValues(id)
	if err := h.mw(fn)(c); err != nil {
		h.e.HTTPErrorHandler(err, c)
	}
	return rec
}

// current returns the store named by the session cookie in rec, failing
// unless exactly one such cookie was set.
func (h *harness) current(t *testing.T, rec *httptest.ResponseRecorder) *service.SessionStore {
	t.Helper()
	var sids []string
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == cookieName {
			sids = append(sids, ck.Value)
		}
	}
	if len(sids) != 1 {
		t.Fatalf("expected one %s cookie, got %v", cookieName, sids)
	}
	return h.sessions.Open(sids[0])
}

func expectRedirect(t *testing.T, rec *httptest.ResponseRecorder, code int, location string) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("expected %d, got %d: %s", code, rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get(echo.HeaderLocation); got != location {
		t.Fatalf("expected redirect to %q, got %q", location, got)
	}
}
