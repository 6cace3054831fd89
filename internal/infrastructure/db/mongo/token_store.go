package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/ports"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/pkg/sessionkey"
)

const sessionCollection = "portal_sessions"

// TokenStore persists session tokens in MongoDB, one document per session.
// Expired documents are removed by a TTL index on expires_at and are ignored
// on read until then.
type TokenStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

var _ ports.TokenStore = (*TokenStore)(nil)

func NewTokenStore(db *mongo.Database) *TokenStore {
	return &TokenStore{coll: db.Collection(sessionCollection), now: time.Now}
}

type sessionDoc struct {
	ID        string     `bson:"_id"`
	Token     string     `bson:"token"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

// EnsureIndexes creates the TTL index that purges expired sessions.
func (s *TokenStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("create session ttl index: %w", err)
	}
	return nil
}

func (s *TokenStore) Get(ctx context.Context, sid string) (string, bool, error) {
	var doc sessionDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": sessionkey.Hash(sid)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find session: %w", err)
	}
	if doc.ExpiresAt != nil && !doc.ExpiresAt.After(s.now()) {
		return "", false, nil
	}
	return doc.Token, doc.Token != "", nil
}

func (s *TokenStore) Set(ctx context.Context, sid, token string, ttl time.Duration) error {
	now := s.now().UTC()
	doc := sessionDoc{
		ID:        sessionkey.Hash(sid),
		Token:     token,
		UpdatedAt: now,
	}
	if ttl > 0 {
		exp := now.Add(ttl)
		doc.ExpiresAt = &exp
	}

	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

func (s *TokenStore) Delete(ctx context.Context, sid string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": sessionkey.Hash(sid)}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
