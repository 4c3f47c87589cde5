package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"taskqueue/internal/model"
	"taskqueue/internal/stats"
)

// DefaultListKey is the well-known Redis list key the queue pushes onto and
// blocking-pops from when no key is configured.
const DefaultListKey = "taskqueue:queue:tasks"

// RedisQueue implements Queue against a Redis list using LPUSH/BRPOP/LLEN.
type RedisQueue struct {
	client  *redis.Client
	listKey string
	log     *slog.Logger
	stats   *stats.Counters

	malformed atomic.Int64
}

// NewRedisQueue returns a RedisQueue using client and listKey. If listKey is
// empty, DefaultListKey is used. log and counters may both be nil, in which
// case slog.Default and a private, unreported counter set are used.
func NewRedisQueue(client *redis.Client, listKey string, log *slog.Logger, counters *stats.Counters) *RedisQueue {
	if listKey == "" {
		listKey = DefaultListKey
	}
	if log == nil {
		log = slog.Default()
	}
	if counters == nil {
		counters = &stats.Counters{}
	}
	return &RedisQueue{client: client, listKey: listKey, log: log, stats: counters}
}

// MalformedCount returns the number of queue entries discarded because they
// could not be decoded as a Task.
func (q *RedisQueue) MalformedCount() int64 {
	return q.malformed.Load()
}

func (q *RedisQueue) Push(ctx context.Context, t *model.Task) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if err := q.client.LPush(ctx, q.listKey, data).Err(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}
	return nil
}

func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (*model.Task, error) {
	for {
		result, err := q.client.BRPop(ctx, timeout, q.listKey).Result()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
		}
		if len(result) != 2 {
			return nil, fmt.Errorf("%w: unexpected BRPOP result shape", model.ErrBackendUnavailable)
		}

		var task model.Task
		if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
			q.malformed.Add(1)
			q.stats.IncMalformedEntry()
			q.log.Warn("discarding malformed queue entry", "error", err)
			continue
		}
		return &task, nil
	}
}

func (q *RedisQueue) Length(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.listKey).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", model.ErrBackendUnavailable, err)
	}
	return n, nil
}
