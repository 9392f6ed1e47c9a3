package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	apperrors "insight-workers/internal/common/errors"
)

const redisKeyPrefix = "cas:"

// RedisStore keeps blobs under cas:<sha256>. Blobs never expire and are
// written with SETNX, so a second Put of the same bytes is a no-op.
type RedisStore struct {
	client redis.Cmdable
}

func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, data []byte) (string, error) {
	id := ContentID(data)
	if _, err := s.client.SetNX(ctx, redisKeyPrefix+id, data, 0).Result(); err != nil {
		return "", apperrors.NewUnavailableError("redis", err)
	}
	return id, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) ([]byte, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.NewContentNotFoundError(id)
	}
	if err != nil {
		return nil, apperrors.NewUnavailableError("redis", err)
	}
	return data, nil
}

func (s *RedisStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		return false, apperrors.NewUnavailableError("redis", err)
	}
	return n > 0, nil
}
