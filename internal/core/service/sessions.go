package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/domain"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/ports"
)

const defaultIdleTTL = 30 * time.Minute

type sessionEntry struct {
	store    *SessionStore
	lastSeen time.Time
}

// Sessions is the process-lived registry of Session Stores, one per visitor
// session id. Stores are created on first use and resolved off the request
// path through the scheduler.
type Sessions struct {
	backend   ports.Backend
	tokens    ports.TokenStore
	scheduler ports.ResolveScheduler
	opts      SessionOptions
	log       zerolog.Logger

	mu      sync.Mutex
	entries map[string]*sessionEntry
}

func NewSessions(backend ports.Backend, tokens ports.TokenStore, scheduler ports.ResolveScheduler, opts SessionOptions, log zerolog.Logger) *Sessions {
	return &Sessions{
		backend:   backend,
		tokens:    tokens,
		scheduler: scheduler,
		opts:      opts.withDefaults(),
		log:       log,
		entries:   make(map[string]*sessionEntry),
	}
}

// Open returns the store for sid, creating it and scheduling its resolution
// when it is not known yet.
func (s *Sessions) Open(sid string) *SessionStore {
	now := s.opts.Now()

	s.mu.Lock()
	if e, ok := s.entries[sid]; ok {
		e.lastSeen = now
		s.mu.Unlock()
		return e.store
	}
	store := NewSessionStore(sid, s.backend, s.tokens, s.opts, s.log)
	s.entries[sid] = &sessionEntry{store: store, lastSeen: now}
	n := len(s.entries)
	s.mu.Unlock()

	s.opts.OnActive(n)
	if s.scheduler != nil {
		s.scheduler.Schedule(store)
	} else {
		go store.Resolve(context.Background())
	}
	return store
}

// Forget drops the store for sid. The persisted token is left alone.
func (s *Sessions) Forget(sid string) {
	s.mu.Lock()
	delete(s.entries, sid)
	n := len(s.entries)
	s.mu.Unlock()
	s.opts.OnActive(n)
}

// Rotate moves the state of old onto a newly issued session id and returns
// the store for it. The token is persisted under the new id first; only then
// is old cleared, its stored token deleted and its registry entry dropped.
// A session id seen before authentication is therefore never one that
// carries credentials afterwards.
func (s *Sessions) Rotate(ctx context.Context, old *SessionStore) (*SessionStore, error) {
	now := s.opts.Now()
	sid := uuid.NewString()
	ident, token := old.credentials()

	if token != "" {
		ttl := tokenTTL(token, now, s.opts.TokenTTL)
		if ttl <= 0 {
			return nil, fmt.Errorf("rotate session: %w", domain.ErrSessionExpired)
		}
		if err := s.tokens.Set(ctx, sid, token, ttl); err != nil {
			return nil, fmt.Errorf("rotate session: persist token: %w", err)
		}
	}

	store := NewSessionStore(sid, s.backend, s.tokens, s.opts, s.log)
	store.adopt(ident, token)
	old.clear(ctx)

	s.mu.Lock()
	delete(s.entries, old.sid)
	s.entries[sid] = &sessionEntry{store: store, lastSeen: now}
	n := len(s.entries)
	s.mu.Unlock()

	s.opts.OnActive(n)
	s.log.Debug().Str("from", shortID(old.sid)).Str("to", shortID(sid)).Msg("session id rotated")
	return store, nil
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep evicts stores idle for longer than IdleTTL and returns how many were
// removed. Stores still resolving are kept.
func (s *Sessions) Sweep() int {
	cutoff := s.opts.Now().Add(-s.opts.IdleTTL)

	s.mu.Lock()
	removed := 0
	for sid, e := range s.entries {
		if e.lastSeen.After(cutoff) || e.store.State().Resolving {
			continue
		}
		delete(s.entries, sid)
		removed++
	}
	n := len(s.entries)
	s.mu.Unlock()

	if removed > 0 {
		s.opts.OnActive(n)
		s.log.Debug().Int("evicted", removed).Int("active", n).Msg("idle sessions swept")
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Sweep()
		}
	}
}
