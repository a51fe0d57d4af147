package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/crm/internal/core/session"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps sessions in Redis as JSON under prefix+token, expiring
// together with the token.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(token string) string {
	return s.prefix + token
}

func (s *RedisStore) Save(ctx context.Context, token string, detail *session.Detail, ttl time.Duration) error {
	payload, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(token), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, token string) (*session.Detail, error) {
	payload, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var detail session.Detail
	if err := json.Unmarshal(payload, &detail); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &detail, nil
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}
