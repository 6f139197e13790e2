// Package csrf issues and verifies the short-lived anti-forgery tokens
// required on state-mutating requests. Tokens are opaque random values kept
// in Redis with a TTL, so every auth proxy replica sees the same set.
package csrf

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "gk:csrf:"

// Store keeps valid tokens in Redis.
type Store struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewStore(rdb redis.UniversalClient, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

// Create mints a fresh token valid for the store's TTL.
func (s *Store) Create(ctx context.Context) (string, error) {
	token := uuid.NewString()
	if err := s.rdb.Set(ctx, keyPrefix+token, "1", s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store csrf token: %w", err)
	}
	return token, nil
}

// Verify reports whether token is currently valid. Tokens stay valid until
// their TTL lapses; verification does not consume them, so a form with
// several mutating calls can reuse one token.
func (s *Store) Verify(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	n, err := s.rdb.Exists(ctx, keyPrefix+token).Result()
	if err != nil {
		return false, fmt.Errorf("failed to verify csrf token: %w", err)
	}
	return n > 0, nil
}
