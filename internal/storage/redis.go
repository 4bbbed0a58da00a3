package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps snapshots as plain string keys "<prefix>:snapshot:<name>".
// It lets several processes on different hosts share one set of registries.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore wraps an existing client.  A nil client is rejected so
// callers that got nil from config.NewRedisClient fall back explicitly.
func NewRedisStore(client *redis.Client, prefix string) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis store: no redis client")
	}
	if prefix == "" {
		prefix = "hotel"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

// Key returns the Redis key a snapshot name maps to.
func (s *RedisStore) Key(name string) string {
	return s.prefix + ":snapshot:" + name
}

// Read returns the snapshot stored under name.
func (s *RedisStore) Read(ctx context.Context, name string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.Key(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%s: %w", s.Key(name), ErrNotFound)
		}
		return nil, fmt.Errorf("redis get %s: %w", s.Key(name), err)
	}
	return data, nil
}

// Write stores data under name with no expiry.
func (s *RedisStore) Write(ctx context.Context, name string, data []byte) error {
	if err := s.client.Set(ctx, s.Key(name), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.Key(name), err)
	}
	return nil
}
