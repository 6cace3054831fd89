package handler

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func loginValues(email, password string) url.Values {
	return url.Values{"email": {email}, "password": {password}}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	h := newHarness(t)
	handler := NewAuthHandler(zerolog.Nop())
	store := h.openSession(t)

	rec := h.do(t, handler.Login, store, http.MethodPost, "/login", loginValues(aliceEmail, alicePassword))

	expectRedirect(t, rec, http.StatusSeeOther, "/dashboard")
	current := h.current(t, rec)
	if current.SessionID() == store.SessionID() {
		t.Fatalf("expected a new session id after login")
	}
	st := current.State()
	if !st.IsAuthenticated() || st.Identity.ID != "u1" || st.Identity.Name != "Alice" {
		t.Fatalf("expected alice to be logged in, got %+v", st.Identity)
	}
	if store.State().IsAuthenticated() || store.Token() != "" {
		t.Fatalf("the pre-login session must stay anonymous")
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := newHarness(t)
	handler := NewAuthHandler(zerolog.Nop())
	store := h.openSession(t)

	rec := h.do(t, handler.Login, store, http.MethodPost, "/login", loginValues(aliceEmail, "wrong-password"))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, msgLoginFailed) {
		t.Fatalf("expected login error message, got %s", body)
	}
	if !strings.Contains(body, aliceEmail) {
		t.Fatalf("expected the email to be kept in the form")
	}
	if store.State().IsAuthenticated() {
		t.Fatalf("session must stay anonymous")
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	h := newHarness(t)
	handler := NewAuthHandler(zerolog.Nop())
	store := h.openSession(t)

	rec := h.do(t, handler.Login, store, http.MethodPost, "/login", loginValues("not-an-email", ""))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if n := h.backend.count("/auth/login"); n != 0 {
		t.Fatalf("backend must not be called, got %d calls", n)
	}
}

func TestAuthHandler_Login_BackendUnreachable(t *testing.T) {
	h := newHarnessWith(t, &fakeBackend{calls: map[string]int{}}, "http://127.0.0.1:1")
	handler := NewAuthHandler(zerolog.Nop())
	store := h.openSession(t)

	rec := h.do(t, handler.Login, store, http.MethodPost, "/login", loginValues(aliceEmail, alicePassword))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No se pudo conectar") {
		t.Fatalf("expected connection message, got %s", rec.Body.String())
	}
}

func TestAuthHandler_LoginPage_RedirectsWhenLoggedIn(t *testing.T) {
	h := newHarness(t)
	handler := NewAuthHandler(zerolog.Nop())
	store := h.loggedIn(t)

	rec := h.do(t, handler.LoginPage, store, http.MethodGet, "/login", nil)

	expectRedirect(t, rec, http.StatusFound, "/dashboard")
}

func TestAuthHandler_LoginPage_RendersForm(t *testing.T) {
	h := newHarness(t)
	handler := NewAuthHandler(zerolog.Nop())
	store := h.openSession(t)

	rec := h.do(t, handler.LoginPage, store, http.MethodGet, "/login", nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `name="password"`) {
		t.Fatalf("expected the login form")
	}
}

func TestAuthHandler_Register_Success(t *testing.T) {
	h := newHarness(t)
	handler := NewAuthHandler(zerolog.Nop())
	store := h.openSession(t)

	form := url.Values{
		"full_name": {"Alice"},
		"email":     {aliceEmail},
		"password":  {alicePassword},
		"confirm":   {alicePassword},
	}
	rec := h.do(t, handler.Register, store, http.MethodPost, "/register", form)

	expectRedirect(t, rec, http.StatusSeeOther, "/dashboard")
	if current := h.current(t, rec); current == store || !current.State().IsAuthenticated() {
		t.Fatalf("expected registration to log a new session in")
	}
	if store.State().IsAuthenticated() {
		t.Fatalf("the pre-registration session must stay anonymous")
	}
	if h.backend.count("/auth/register") != 1 || h.backend.count("/auth/login") != 1 {
		t.Fatalf("expected one register and one login call")
	}
}

func TestAuthHandler_Register_PasswordMismatch(t *testing.T) {
	h := newHarness(t)
	handler := NewAuthHandler(zerolog.Nop())
	store := h.openSession(t)

	form := url.Values{
		"full_name": {"Alice"},
		"email":     {aliceEmail},
		"password":  {alicePassword},
		"confirm":   {"something-else"},
	}
	rec := h.do(t, handler.Register, store, http.MethodPost, "/register", form)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), msgPasswordsDiffer) {
		t.Fatalf("expected mismatch message, got %s", rec.Body.String())
	}
	if n := h.backend.count("/auth/register"); n != 0 {
		t.Fatalf("backend must not be called, got %d calls", n)
	}
}

func TestAuthHandler_Register_EmailTaken(t *testing.T) {
	h := newHarness(t)
	handler := NewAuthHandler(zerolog.Nop())
	store := h.openSession(t)

	form := url.Values{
		"full_name": {"Bob"},
		"email":     {takenEmail},
		"password":  {"hunter22"},
		"confirm":   {"hunter22"},
	}
	rec := h.do(t, handler.Register, store, http.MethodPost, "/register", form)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), msgEmailTaken) {
		t.Fatalf("expected email taken message, got %s", rec.Body.String())
	}
	if h.backend.count("/auth/login") != 0 {
		t.Fatalf("login must not follow a failed registration")
	}
}

func TestAuthHandler_Logout(t *testing.T) {
	h := newHarness(t)
	handler := NewAuthHandler(zerolog.Nop())
	store := h.loggedIn(t)

	rec := h.do(t, handler.Logout, store, http.MethodPost, "/logout", nil)

	expectRedirect(t, rec, http.StatusSeeOther, "/login")
	if store.State().Identity != nil || store.Token() != "" {
		t.Fatalf("expected identity and token to be cleared")
	}
	if current := h.current(t, rec); current.SessionID() == store.SessionID() || current.State().IsAuthenticated() {
		t.Fatalf("expected a fresh anonymous session after logout")
	}
}
