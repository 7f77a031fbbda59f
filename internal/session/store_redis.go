package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/p-n-ai/pai-papers/internal/platform/cache"
)

const keyPrefix = "papers:session:"

// RedisStore keeps session papers in Redis as JSON with a sliding TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store. A zero ttl keeps
// papers until they are deleted.
func NewRedisStore(client *redis.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, p Paper) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal session paper: %w", err)
	}
	if err := s.client.Set(ctx, key(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session paper: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (*Paper, error) {
	data, err := s.client.Get(ctx, key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoPaper
		}
		return nil, fmt.Errorf("load session paper: %w", err)
	}

	var p Paper
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode session paper: %w", err)
	}

	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key(sessionID), s.ttl).Err(); err != nil {
			slog.Warn("failed to refresh session paper ttl", "session_id", sessionID, "error", err)
		}
	}
	return &p, nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session paper: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	n, err := cache.DeleteByPrefix(ctx, s.client, keyPrefix)
	if err != nil {
		return fmt.Errorf("clear session papers: %w", err)
	}
	slog.Debug("session papers cleared", "count", n)
	return nil
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}
