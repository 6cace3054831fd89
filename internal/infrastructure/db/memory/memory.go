// Package memory provides process-local TokenStore and QueryCache
// implementations for development and single-instance deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/ports"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/pkg/sessionkey"
)

type entry struct {
	value   []byte
	expires time.Time
}

func (e entry) live(now time.Time) bool {
	return e.expires.IsZero() || now.Before(e.expires)
}

// table is a mutex-guarded map with per-entry expiry. Expired entries are
// dropped on access and by purge.
type table struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func newTable() *table {
	return &table{entries: make(map[string]entry), now: time.Now}
}

func (t *table) get(key string) ([]byte, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[key]
	if !ok {
		return nil, false
	}
	if !e.live(t.now()) {
		delete(t.entries, key)
		return nil, false
	}
	return e.value, true
}

func (t *table) set(key string, value []byte, ttl time.Duration) {
	e := entry{value: value}
	if ttl > 0 {
		e.expires = t.now().Add(ttl)
	}
	t.mu.Lock()
	t.entries[key] = e
	t.mu.Unlock()
}

func (t *table) delete(keys ...string) {
	t.mu.Lock()
	for _, k := range keys {
		delete(t.entries, k)
	}
	t.mu.Unlock()
}

// purge drops every expired entry and returns how many were removed.
func (t *table) purge() int {
	now := t.now()
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for k, e := range t.entries {
		if !e.live(now) {
			delete(t.entries, k)
			n++
		}
	}
	return n
}

func (t *table) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// run purges every interval until ctx is cancelled.
func (t *table) run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			t.purge()
		}
	}
}

// TokenStore keeps session tokens in process memory.
type TokenStore struct {
	t *table
}

var _ ports.TokenStore = (*TokenStore)(nil)

func NewTokenStore() *TokenStore {
	return &TokenStore{t: newTable()}
}

func (s *TokenStore) Get(_ context.Context, sid string) (string, bool, error) {
	b, ok := s.t.get(tokenKey(sid))
	return string(b), ok, nil
}

func (s *TokenStore) Set(_ context.Context, sid, token string, ttl time.Duration) error {
	s.t.set(tokenKey(sid), []byte(token), ttl)
	return nil
}

func (s *TokenStore) Delete(_ context.Context, sid string) error {
	s.t.delete(tokenKey(sid))
	return nil
}

// Purge removes expired tokens and returns how many were dropped.
func (s *TokenStore) Purge() int { return s.t.purge() }

// Run purges expired tokens every interval until ctx is cancelled.
func (s *TokenStore) Run(ctx context.Context, interval time.Duration) { s.t.run(ctx, interval) }

func tokenKey(sid string) string {
	return sessionkey.Hash(sid) + ":" + sessionkey.TokenField
}

// QueryCache keeps serialized query results in process memory.
type QueryCache struct {
	t *table
}

var _ ports.QueryCache = (*QueryCache)(nil)

func NewQueryCache() *QueryCache {
	return &QueryCache{t: newTable()}
}

func (c *QueryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, ok := c.t.get(key)
	return b, ok, nil
}

func (c *QueryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.t.set(key, append([]byte(nil), value...), ttl)
	return nil
}

func (c *QueryCache) Delete(_ context.Context, keys ...string) error {
	c.t.delete(keys...)
	return nil
}

// Purge removes expired results and returns how many were dropped.
func (c *QueryCache) Purge() int { return c.t.purge() }

// Run purges expired results every interval until ctx is cancelled.
func (c *QueryCache) Run(ctx context.Context, interval time.Duration) { c.t.run(ctx, interval) }
