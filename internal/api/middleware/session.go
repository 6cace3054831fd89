package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/domain"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/service"
)

const (
	sessionContextKey = "session"
	sessionConfigKey  = "session.config"
)

// Session is the part of a Session Store the gate consults.
type Session interface {
	State() domain.SessionState
	Await(ctx context.Context, wait time.Duration) domain.SessionState
}

// SessionOpener yields the Session Store for a session id and moves a
// store to a fresh id when its privilege level changes.
type SessionOpener interface {
	Open(sid string) *service.SessionStore
	Rotate(ctx context.Context, old *service.SessionStore) (*service.SessionStore, error)
}

type SessionConfig struct {
	Skipper  echomiddleware.Skipper
	Cookie   string
	Domain   string
	Secure   bool
	MaxAge   time.Duration
	Sessions SessionOpener
}

// Sessions attaches the visitor's Session Store to the request. The session
// id lives in an HttpOnly cookie and is issued on first contact.
func Sessions(cfg SessionConfig) echo.MiddlewareFunc {
	if cfg.Skipper == nil {
		cfg.Skipper = echomiddleware.DefaultSkipper
	}
	if cfg.Cookie == "" {
		cfg.Cookie = "portal_session"
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) {
				return next(c)
			}

			sid := ""
			if ck, err := c.Cookie(cfg.Cookie); err == nil {
				if id, err := uuid.Parse(ck.Value); err == nil {
					sid = id.String()
				}
			}
			if sid == "" {
				sid = uuid.NewString()
			}

			cfg.setCookie(c, sid)
			c.Set(sessionConfigKey, &cfg)
			c.Set(sessionContextKey, cfg.Sessions.Open(sid))
			return next(c)
		}
	}
}

func (cfg *SessionConfig) setCookie(c echo.Context, sid string) {
	c.SetCookie(&http.Cookie{
		Name:     cfg.Cookie,
		Value:    sid,
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   int(cfg.MaxAge.Seconds()),
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// RotateSession moves the request's session to a new id after login,
// registration or logout. The response carries only the new cookie and the
// rest of the request sees the new store.
func RotateSession(c echo.Context) (*service.SessionStore, error) {
	cfg, _ := c.Get(sessionConfigKey).(*SessionConfig)
	old := SessionFrom(c)
	if cfg == nil || old == nil {
		return nil, errors.New("no session to rotate")
	}

	store, err := cfg.Sessions.Rotate(c.Request().Context(), old)
	if err != nil {
		return nil, err
	}

	h := c.Response().Header()
	var kept []string
	for _, v := range h.Values(echo.HeaderSetCookie) {
		if !strings.HasPrefix(v, cfg.Cookie+"=") {
			kept = append(kept, v)
		}
	}
	h.Del(echo.HeaderSetCookie)
	for _, v := range kept {
		h.Add(echo.HeaderSetCookie, v)
	}
	cfg.setCookie(c, store.SessionID())

	c.Set(sessionContextKey, store)
	return store, nil
}

// SessionFrom returns the Session Store attached by Sessions, or nil.
func SessionFrom(c echo.Context) *service.SessionStore {
	s, _ := c.Get(sessionContextKey).(*service.SessionStore)
	return s
}

func sessionOf(c echo.Context) (Session, bool) {
	s, ok := c.Get(sessionContextKey).(Session)
	return s, ok && s != nil
}
