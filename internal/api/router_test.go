package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/api/views"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/service"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/infrastructure/db/memory"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/infrastructure/gateway"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.FormValue("username") != "bob@example.com" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Incorrect email or password"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"tok-bob","token_type":"bearer"}`))
	})
	mux.HandleFunc("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer tok-bob" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Not authenticated"}`))
			return
		}
		_, _ = w.Write([]byte(`{"_id":"u2","full_name":"Bob","email":"bob@example.com","role":"user"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestRouter(t *testing.T) *echo.Echo {
	t.Helper()
	r, err := views.New()
	if err != nil {
		t.Fatalf("views: %v", err)
	}
	backend := gateway.New(newBackend(t).URL)
	sessions := service.NewSessions(backend, memory.NewTokenStore(), nil, service.SessionOptions{}, zerolog.Nop())
	queries := service.NewNutritionService(backend, memory.NewQueryCache(), service.QueryOptions{}, zerolog.Nop())

	return NewRouter(Dependencies{
		Log:         zerolog.Nop(),
		Renderer:    r,
		Sessions:    sessions,
		Queries:     queries,
		Cookie:      "sid",
		ResolveWait: time.Second,
		Registerer:  prometheus.NewRegistry(),
	})
}

func serve(e *echo.Echo, method, target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sid" {
			return c
		}
	}
	t.Fatalf("no session cookie issued")
	return nil
}

func TestRouter_InfrastructureSkipsSessions(t *testing.T) {
	e := newTestRouter(t)

	rec := serve(e, http.MethodGet, "/health", nil, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Set-Cookie") != "" {
		t.Fatalf("health check must not open a session")
	}
}

func TestRouter_AnonymousVisitor(t *testing.T) {
	e := newTestRouter(t)

	cases := []struct {
		target   string
		code     int
		location string
	}{
		{"/", http.StatusFound, "/profile"},
		{"/meals", http.StatusFound, "/login"},
		{"/admin", http.StatusFound, "/login"},
	}
	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			rec := serve(e, http.MethodGet, tc.target, nil, nil)
			if rec.Code != tc.code || rec.Header().Get(echo.HeaderLocation) != tc.location {
				t.Fatalf("expected %d to %q, got %d to %q", tc.code, tc.location, rec.Code, rec.Header().Get(echo.HeaderLocation))
			}
		})
	}
}

func TestRouter_APIRequiresIdentity(t *testing.T) {
	e := newTestRouter(t)

	rec := serve(e, http.MethodPost, "/api/v1/summaries/today", nil, nil)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error"`) {
		t.Fatalf("expected a JSON error envelope, got %s", rec.Body.String())
	}
}

func TestRouter_UnknownPathRendersErrorPage(t *testing.T) {
	e := newTestRouter(t)

	rec := serve(e, http.MethodGet, "/nope", nil, nil)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get(echo.HeaderContentType), "text/html") {
		t.Fatalf("expected an HTML error page, got %q", rec.Header().Get(echo.HeaderContentType))
	}
}

func TestRouter_LoginThenRoleCheck(t *testing.T) {
	e := newTestRouter(t)

	page := serve(e, http.MethodGet, "/login", nil, nil)
	if page.Code != http.StatusOK {
		t.Fatalf("expected login page, got %d", page.Code)
	}
	cookie := sessionCookie(t, page)

	login := serve(e, http.MethodPost, "/login", url.Values{"email": {"bob@example.com"}, "password": {"pw"}}, cookie)
	if login.Code != http.StatusSeeOther || login.Header().Get(echo.HeaderLocation) != "/dashboard" {
		t.Fatalf("expected redirect to dashboard, got %d %q", login.Code, login.Header().Get(echo.HeaderLocation))
	}
	cookie = sessionCookie(t, login)

	admin := serve(e, http.MethodGet, "/admin", nil, cookie)
	if admin.Code != http.StatusFound || admin.Header().Get(echo.HeaderLocation) != "/dashboard" {
		t.Fatalf("expected a non-admin to be sent to the dashboard, got %d %q", admin.Code, admin.Header().Get(echo.HeaderLocation))
	}

	session := serve(e, http.MethodGet, "/api/v1/session", nil, cookie)
	if !strings.Contains(session.Body.String(), `"authenticated":true`) {
		t.Fatalf("expected an authenticated session, got %s", session.Body.String())
	}
}

func TestRouter_LoginIssuesFreshSessionID(t *testing.T) {
	e := newTestRouter(t)
	planted := &http.Cookie{Name: "sid", Value: "11111111-2222-3333-4444-555555555555"}

	login := serve(e, http.MethodPost, "/login", url.Values{"email": {"bob@example.com"}, "password": {"pw"}}, planted)
	if login.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after login, got %d", login.Code)
	}
	var issued []string
	for _, c := range login.Result().Cookies() {
		if c.Name == "sid" {
			issued = append(issued, c.Value)
		}
	}
	if len(issued) != 1 || issued[0] == planted.Value {
		t.Fatalf("expected exactly one new session cookie, got %v", issued)
	}

	replayed := serve(e, http.MethodGet, "/api/v1/session", nil, planted)
	if !strings.Contains(replayed.Body.String(), `"authenticated":false`) {
		t.Fatalf("the pre-login session id must stay anonymous, got %s", replayed.Body.String())
	}

	fresh := serve(e, http.MethodGet, "/api/v1/session", nil, &http.Cookie{Name: "sid", Value: issued[0]})
	if !strings.Contains(fresh.Body.String(), `"authenticated":true`) {
		t.Fatalf("expected the new session id to be authenticated, got %s", fresh.Body.String())
	}
}

func TestRouter_LogoutIssuesFreshSessionID(t *testing.T) {
	e := newTestRouter(t)

	login := serve(e, http.MethodPost, "/login", url.Values{"email": {"bob@example.com"}, "password": {"pw"}}, nil)
	cookie := sessionCookie(t, login)

	logout := serve(e, http.MethodPost, "/logout", nil, cookie)
	if logout.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect after logout, got %d", logout.Code)
	}
	if next := sessionCookie(t, logout); next.Value == cookie.Value {
		t.Fatalf("expected a new session id after logout")
	}

	replayed := serve(e, http.MethodGet, "/api/v1/session", nil, cookie)
	if !strings.Contains(replayed.Body.String(), `"authenticated":false`) {
		t.Fatalf("the logged out session id must stay anonymous, got %s", replayed.Body.String())
	}
}
