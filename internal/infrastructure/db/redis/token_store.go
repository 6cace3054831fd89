package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/ports"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/pkg/sessionkey"
)

// TokenStore persists session tokens in Redis.
// Key format: session:<hashed sid>:token
type TokenStore struct {
	client *redis.Client
}

var _ ports.TokenStore = (*TokenStore)(nil)

func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

func (s *TokenStore) Get(ctx context.Context, sid string) (string, bool, error) {
	token, err := s.client.Get(ctx, s.key(sid)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get token: %w", err)
	}
	return token, true, nil
}

func (s *TokenStore) Set(ctx context.Context, sid, token string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.client.Set(ctx, s.key(sid), token, ttl).Err(); err != nil {
		return fmt.Errorf("set token: %w", err)
	}
	return nil
}

func (s *TokenStore) Delete(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, s.key(sid)).Err(); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

func (s *TokenStore) key(sid string) string {
	return "session:" + sessionkey.Hash(sid) + ":" + sessionkey.TokenField
}
