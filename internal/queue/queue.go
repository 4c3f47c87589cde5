// Package queue defines the Queue backend abstraction and its two
// implementations: an in-process memory queue and a Redis-backed queue.
package queue

import (
	"context"
	"time"

	"taskqueue/internal/model"
)

// Queue is the FIFO channel from submitters to workers. Push appends to the
// tail; Pop removes and returns the head, blocking up to timeout; Length is
// a best-effort current count. Every implementation must be safe for
// concurrent use by many submitters and many poppers.
type Queue interface {
	// Push appends t to the tail of the queue. It returns
	// model.ErrBackendUnavailable if the underlying transport is down.
	Push(ctx context.Context, t *model.Task) error

	// Pop removes and returns the head of the queue, blocking up to
	// timeout. It returns (nil, nil) if timeout elapses with nothing to
	// pop, and model.ErrBackendUnavailable on transport failure.
	Pop(ctx context.Context, timeout time.Duration) (*model.Task, error)

	// Length returns a best-effort current count of queued tasks. It may
	// be stale under concurrent mutation.
	Length(ctx context.Context) (int64, error)
}
