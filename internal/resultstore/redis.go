package resultstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"taskqueue/internal/model"
)

// DefaultKeyPrefix prefixes every result key written to Redis when no
// prefix is configured.
const DefaultKeyPrefix = "taskqueue:result"

// RedisResultStore stores each result as a single Redis string key holding
// the record's JSON-encoded Task, set with the TTL as the key's own expiry.
// Redis performs expiry; there is no local reaper. ExpiresAt is not stored,
// so records returned by Get have a zero ExpiresAt.
type RedisResultStore struct {
	client *redis.Client
	prefix string
}

// NewRedisResultStore returns a RedisResultStore using client and prefix.
// If prefix is empty, DefaultKeyPrefix is used.
func NewRedisResultStore(client *redis.Client, prefix string) *RedisResultStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisResultStore{client: client, prefix: prefix}
}

func (s *RedisResultStore) key(id string) string {
	return fmt.Sprintf("%s:%s", s.prefix, id)
}

func (s *RedisResultStore) Put(ctx context.Context, id string, rec *model.Record, ttl time.Duration) error {
	data, err := json.Marshal(rec.Task)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := s.client.Set(ctx, s.key(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}
	return nil
}

func (s *RedisResultStore) Get(ctx context.Context, id string) (*model.Record, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}

	var task model.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrMalformedEntry, err)
	}
	return &model.Record{Task: task}, nil
}

func (s *RedisResultStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}
	return nil
}

func (s *RedisResultStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}
	return n > 0, nil
}
