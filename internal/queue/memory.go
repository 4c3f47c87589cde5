package queue

import (
	"context"
	"sync"
	"time"

	"taskqueue/internal/model"
)

// MemoryQueue is an in-process FIFO guarded by a mutex and a condition
// variable. Push appends and wakes one waiter; Pop blocks until an item
// arrives or its timeout elapses. Concurrent poppers each receive distinct
// entries; FIFO order is preserved among non-blocked submissions.
type MemoryQueue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []*model.Task
}

// NewMemoryQueue returns an empty, ready-to-use MemoryQueue.
func NewMemoryQueue() *MemoryQueue {
	q := &MemoryQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *MemoryQueue) Push(ctx context.Context, t *model.Task) error {
	q.mu.Lock()
	q.items = append(q.items, t)
	q.mu.Unlock()
	q.cond.Signal()
	return nil
}

func (q *MemoryQueue) Pop(ctx context.Context, timeout time.Duration) (*model.Task, error) {
	deadline := time.Now().Add(timeout)

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return nil, nil
		}
		q.waitUpTo(ctx, remaining)
	}

	t := q.items[0]
	q.items = q.items[1:]
	return t, nil
}

// waitUpTo blocks on q.cond until signaled, d elapses, or ctx is done,
// whichever comes first. q.mu must be held on entry; it is released and
// reacquired by cond.Wait.
func (q *MemoryQueue) waitUpTo(ctx context.Context, d time.Duration) {
	// Taking q.mu before broadcasting means the wakeup cannot land before
	// this goroutine is parked in cond.Wait, which releases q.mu.
	wake := func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	}

	timer := time.AfterFunc(d, wake)
	defer timer.Stop()

	stop := context.AfterFunc(ctx, wake)
	defer stop()

	q.cond.Wait()
}

func (q *MemoryQueue) Length(ctx context.Context) (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return int64(len(q.items)), nil
}
