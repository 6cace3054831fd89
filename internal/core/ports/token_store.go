package ports

import (
	"context"
	"time"
)

// TokenStore persists one credential token per visitor session.
type TokenStore interface {
	Get(ctx context.Context, sid string) (token string, found bool, err error)
	// Set stores token for sid. A ttl <= 0 means no expiry.
	Set(ctx context.Context, sid, token string, ttl time.Duration) error
	Delete(ctx context.Context, sid string) error
}

// QueryCache holds serialized query results for a bounded time.
type QueryCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
