package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/domain"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/ports"
)

// Resolution outcomes reported through SessionOptions.OnResolved.
const (
	OutcomeAnonymous     = "anonymous"
	OutcomeAuthenticated = "authenticated"
	OutcomeExpired       = "expired"
	OutcomeRejected      = "rejected"
	OutcomeStoreError    = "store_error"
)

const defaultTokenTTL = 24 * time.Hour

// SessionOptions tunes Session Stores and the registry that owns them.
type SessionOptions struct {
	// TokenTTL bounds how long an opaque token is persisted. JWTs are kept
	// until their own expiry.
	TokenTTL time.Duration
	// IdleTTL is how long an unused store stays in the registry.
	IdleTTL time.Duration
	// OnResolved, when set, is told the outcome of every identity resolution.
	OnResolved func(outcome string)
	// OnActive, when set, is told the registry size after every change.
	OnActive func(n int)
	Now      func() time.Time
}

func (o SessionOptions) withDefaults() SessionOptions {
	if o.TokenTTL <= 0 {
		o.TokenTTL = defaultTokenTTL
	}
	if o.IdleTTL <= 0 {
		o.IdleTTL = defaultIdleTTL
	}
	if o.OnResolved == nil {
		o.OnResolved = func(string) {}
	}
	if o.OnActive == nil {
		o.OnActive = func(int) {}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// SessionStore owns the identity and credential token of one visitor
// session. It starts out resolving; Resolve settles it exactly once.
type SessionStore struct {
	sid     string
	backend ports.Backend
	tokens  ports.TokenStore
	opts    SessionOptions
	log     zerolog.Logger

	once sync.Once
	done chan struct{}

	mu        sync.RWMutex
	identity  *domain.Identity
	token     string
	resolving bool
}

var _ ports.ResolveJob = (*SessionStore)(nil)
var _ ports.TokenSource = (*SessionStore)(nil)

func NewSessionStore(sid string, backend ports.Backend, tokens ports.TokenStore, opts SessionOptions, log zerolog.Logger) *SessionStore {
	return &SessionStore{
		sid:       sid,
		backend:   backend,
		tokens:    tokens,
		opts:      opts.withDefaults(),
		log:       log.With().Str("session", shortID(sid)).Logger(),
		done:      make(chan struct{}),
		resolving: true,
	}
}

func (s *SessionStore) SessionID() string { return s.sid }

// Token returns the current credential token, or "" when anonymous.
func (s *SessionStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// State returns a snapshot of the session.
func (s *SessionStore) State() domain.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := domain.SessionState{Resolving: s.resolving}
	if s.identity != nil {
		ident := *s.identity
		st.Identity = &ident
	}
	return st
}

// Done is closed once the initial resolution has completed.
func (s *SessionStore) Done() <-chan struct{} { return s.done }

// Await waits up to wait for the initial resolution and returns the state
// observed at that point, which may still be resolving.
func (s *SessionStore) Await(ctx context.Context, wait time.Duration) domain.SessionState {
	if wait > 0 {
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case <-s.done:
		case <-t.C:
		case <-ctx.Done():
		}
	}
	return s.State()
}

// Resolve performs the initial token check. Only the first call does any
// work. Failures never surface: the session just ends up anonymous.
func (s *SessionStore) Resolve(ctx context.Context) {
	s.once.Do(func() {
		defer s.finish()
		s.opts.OnResolved(s.resolve(ctx))
	})
}

func (s *SessionStore) resolve(ctx context.Context) string {
	token, found, err := s.tokens.Get(ctx, s.sid)
	if err != nil {
		s.log.Warn().Err(err).Msg("read stored token")
		return OutcomeStoreError
	}
	if !found || token == "" {
		return OutcomeAnonymous
	}

	if exp, ok := tokenExpiry(token); ok && !exp.After(s.opts.Now()) {
		s.log.Debug().Time("expired_at", exp).Msg("stored token expired")
		s.discardToken(ctx)
		return OutcomeExpired
	}

	ident, err := s.backend.WithCredentials(ports.StaticToken(token)).CurrentIdentity(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("stored token rejected, clearing session")
		s.discardToken(ctx)
		return OutcomeRejected
	}

	s.mu.Lock()
	s.identity = ident
	s.token = token
	s.mu.Unlock()

	s.log.Debug().Str("user_id", ident.ID).Msg("session resolved")
	return OutcomeAuthenticated
}

func (s *SessionStore) finish() {
	s.mu.Lock()
	s.resolving = false
	s.mu.Unlock()
	close(s.done)
}

// settle ends the resolution phase before an explicit login or logout. If a
// resolution is in flight it is waited for; otherwise the stored token is
// not looked at.
func (s *SessionStore) settle() {
	s.once.Do(s.finish)
}

// Login exchanges credentials for a token, persists it and resolves the
// identity it belongs to. Errors propagate unchanged for the caller to show.
func (s *SessionStore) Login(ctx context.Context, email, password string) error {
	s.settle()

	token, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return err
	}

	now := s.opts.Now()
	ttl := tokenTTL(token, now, s.opts.TokenTTL)
	if ttl <= 0 {
		return fmt.Errorf("login: %w", domain.ErrSessionExpired)
	}

	// The identity is checked before anything is persisted so a failed
	// login leaves the current session untouched.
	ident, err := s.backend.WithCredentials(ports.StaticToken(token)).CurrentIdentity(ctx)
	if err != nil {
		return fmt.Errorf("login: resolve identity: %w", err)
	}
	if err := s.tokens.Set(ctx, s.sid, token, ttl); err != nil {
		return fmt.Errorf("login: persist token: %w", err)
	}

	s.mu.Lock()
	s.identity = ident
	s.token = token
	s.mu.Unlock()

	s.log.Info().Str("user_id", ident.ID).Msg("logged in")
	return nil
}

// Register creates the account and then logs in with the same credentials.
func (s *SessionStore) Register(ctx context.Context, name, email, password string) error {
	s.settle()

	if _, err := s.backend.Register(ctx, domain.NewAccount{Name: name, Email: email, Password: password}); err != nil {
		return err
	}
	return s.Login(ctx, email, password)
}

// Logout forgets identity and token immediately. Removing the persisted
// token is best effort and never fails the logout.
func (s *SessionStore) Logout(ctx context.Context) {
	s.settle()
	userID := s.clear(ctx)
	s.log.Info().Str("user_id", userID).Msg("logged out")
}

// clear drops identity and token from memory and from the token store,
// returning the id of the user that was signed in, if any.
func (s *SessionStore) clear(ctx context.Context) string {
	s.mu.Lock()
	userID := ""
	if s.identity != nil {
		userID = s.identity.ID
	}
	s.identity = nil
	s.token = ""
	s.mu.Unlock()

	s.discardToken(ctx)
	return userID
}

// credentials returns a copy of what a rotation carries over.
func (s *SessionStore) credentials() (*domain.Identity, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil, s.token
	}
	ident := *s.identity
	return &ident, s.token
}

// adopt settles a fresh store directly into the given state, skipping the
// token store lookup.
func (s *SessionStore) adopt(ident *domain.Identity, token string) {
	s.mu.Lock()
	s.identity = ident
	s.token = token
	s.mu.Unlock()
	s.settle()
}

// Refresh replaces the cached identity after a profile change.
func (s *SessionStore) Refresh(ident *domain.Identity) {
	if ident == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity != nil && s.identity.ID == ident.ID {
		cp := *ident
		s.identity = &cp
	}
}

func (s *SessionStore) discardToken(ctx context.Context) {
	if err := s.tokens.Delete(ctx, s.sid); err != nil {
		s.log.Warn().Err(err).Msg("delete stored token")
	}
}

func shortID(sid string) string {
	if len(sid) > 8 {
		return sid[:8]
	}
	return sid
}
