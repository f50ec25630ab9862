package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "gardengallery:auth:token"

// RedisStore reads the bearer token from a redis string key. The key is
// written by whatever process owns the login/refresh flow.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Token(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token from redis key %s: %w", s.key, err)
	}
	return token, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
