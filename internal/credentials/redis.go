package credentials

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyAccessToken = "access_token"
	redisKeyUser        = "user"
)

// RedisStore reads credentials from Redis. Used by bridge deployments
// where a separate refresher process rotates the access token; because
// Load hits Redis on every authenticate attempt, rotated tokens are
// picked up without restarting the client.
type RedisStore struct {
	rdb       *redis.Client
	keyPrefix string
}

func NewRedisStore(rdb *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{rdb: rdb, keyPrefix: keyPrefix}
}

func (s *RedisStore) key(name string) string {
	if s.keyPrefix == "" {
		return name
	}
	return s.keyPrefix + ":" + name
}

func (s *RedisStore) Load(ctx context.Context) (*Credentials, error) {
	values, err := s.rdb.MGet(ctx, s.key(redisKeyAccessToken), s.key(redisKeyUser)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load credentials from redis: %w", err)
	}

	creds := &Credentials{}
	if v, ok := values[0].(string); ok {
		creds.AccessToken = v
	}
	if v, ok := values[1].(string); ok {
		creds.UserID = v
	}
	if creds.AccessToken == "" || creds.UserID == "" {
		return nil, ErrNoSession
	}
	return creds, nil
}

func (s *RedisStore) Save(ctx context.Context, creds *Credentials) error {
	if err := s.rdb.MSet(ctx,
		s.key(redisKeyAccessToken), creds.AccessToken,
		s.key(redisKeyUser), creds.UserID,
	).Err(); err != nil {
		return fmt.Errorf("failed to save credentials to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key(redisKeyAccessToken), s.key(redisKeyUser)).Err(); err != nil {
		return fmt.Errorf("failed to clear credentials in redis: %w", err)
	}
	return nil
}
