// Package worker implements the worker runtime: a handler registry and a
// pool of executors that pop tasks from a Queue, run the registered
// handler, and publish the outcome to a ResultStore.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"taskqueue/internal/model"
	"taskqueue/internal/queue"
	"taskqueue/internal/resultstore"
	"taskqueue/internal/stats"
)

// Config controls pool sizing and the timing constants the spec fixes
// defaults for.
type Config struct {
	// Size is the number of concurrent executors. Defaults to 1 if <= 0.
	Size int

	// PollTimeout bounds each Queue.Pop call. Defaults to 2s.
	PollTimeout time.Duration

	// HandlerTimeout bounds handler invocation. Zero means no deadline.
	HandlerTimeout time.Duration

	// ResultTTL is passed to ResultStore.Put for every published record.
	// Defaults to 1h.
	ResultTTL time.Duration

	// MaxPublishAttempts bounds the result-publish retry loop. Defaults
	// to 5.
	MaxPublishAttempts int

	// ShutdownGrace bounds how long Shutdown waits for in-flight
	// executors before detaching them. Defaults to 30s.
	ShutdownGrace time.Duration

	Logger *slog.Logger
	Stats  *stats.Counters
}

func (c *Config) setDefaults() {
	if c.Size <= 0 {
		c.Size = 1
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 2 * time.Second
	}
	if c.ResultTTL <= 0 {
		c.ResultTTL = time.Hour
	}
	if c.MaxPublishAttempts <= 0 {
		c.MaxPublishAttempts = 5
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Stats == nil {
		c.Stats = &stats.Counters{}
	}
}

// Pool is a fixed-size set of executors draining a single Queue and
// publishing to a single ResultStore.
type Pool struct {
	queue    queue.Queue
	store    resultstore.ResultStore
	registry *Registry
	cfg      Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool constructs a Pool. Call Start to begin executing.
func NewPool(q queue.Queue, store resultstore.ResultStore, reg *Registry, cfg Config) *Pool {
	cfg.setDefaults()
	return &Pool{queue: q, store: store, registry: reg, cfg: cfg}
}

// Start launches cfg.Size executors, each draining the queue until parent
// is done or Shutdown is called.
func (p *Pool) Start(parent context.Context) {
	p.ctx, p.cancel = context.WithCancel(parent)
	for i := 0; i < p.cfg.Size; i++ {
		p.wg.Add(1)
		go p.runExecutor(i + 1)
	}
}

// Shutdown stops executors from picking up new work and waits for in-flight
// tasks to finish, up to cfg.ShutdownGrace. Executors still running past the
// grace deadline are detached; their in-flight result may be lost.
func (p *Pool) Shutdown() {
	if p.cancel == nil {
		return
	}
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(p.cfg.ShutdownGrace):
		p.cfg.Logger.Warn("shutdown grace period elapsed, detaching remaining executors")
	}
}

func (p *Pool) runExecutor(id int) {
	defer p.wg.Done()
	log := p.cfg.Logger.With("executor", id)

	for {
		task, err := p.queue.Pop(p.ctx, p.cfg.PollTimeout)
		if err != nil {
			if p.ctx.Err() != nil {
				log.Info("shutting down")
				return
			}
			log.Warn("pop error", "error", err)
			continue
		}
		if task == nil {
			if p.ctx.Err() != nil {
				log.Info("shutting down")
				return
			}
			continue
		}

		p.execute(log, task)
	}
}

// execute runs task to a terminal outcome and publishes the result. It uses
// a context independent of the pool's shutdown signal so an in-flight task
// finishes even after Shutdown has been requested.
func (p *Pool) execute(log *slog.Logger, task *model.Task) {
	task.Status = model.StatusRunning
	task.StartedAt = model.NewTimestamp(time.Now())

	result, outcomeErr := p.invoke(task)

	task.FinishedAt = model.NewTimestamp(time.Now())
	if outcomeErr != nil {
		task.Status = model.StatusFailed
		task.Error = outcomeErr.Error()
	} else {
		task.Status = model.StatusSucceeded
		task.Result = result
	}

	rec := &model.Record{Task: *task}
	if err := p.publish(context.Background(), task.ID, rec); err != nil {
		p.cfg.Stats.IncResultPublishLost()
		log.Error("result publish lost after retries", "task_id", task.ID, "error", err)
		return
	}
	if task.Status == model.StatusSucceeded {
		p.cfg.Stats.IncSucceeded()
	}
	log.Info("task processed", "task_id", task.ID, "kind", task.Kind, "status", task.Status)
}

// invoke looks up and runs the handler for task.Kind, bounded by
// cfg.HandlerTimeout if set. A panicking handler is recovered and reported
// as a failed outcome rather than terminating the executor.
func (p *Pool) invoke(task *model.Task) (any, error) {
	handler, ok := p.registry.Lookup(task.Kind)
	if !ok {
		p.cfg.Stats.IncUnknownKind()
		return nil, errUnknownKind(task.Kind)
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if p.cfg.HandlerTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, p.cfg.HandlerTimeout)
		defer cancel()
	}

	type outcome struct {
		result any
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{nil, fmt.Errorf("handler panic: %v", r)}
			}
		}()
		res, err := handler(ctx, task.Payload)
		done <- outcome{res, err}
	}()

	select {
	case o := <-done:
		if ctx.Err() != nil {
			// The handler only returned because its deadline fired, not
			// because it reported its own outcome; always surface this as
			// a timeout rather than racing on whichever case select picks.
			p.cfg.Stats.IncHandlerTimeout()
			return nil, errors.New("timeout")
		}
		if o.err != nil {
			p.cfg.Stats.IncHandlerFailure()
		}
		return o.result, o.err
	case <-ctx.Done():
		p.cfg.Stats.IncHandlerTimeout()
		return nil, errors.New("timeout")
	}
}

// publish retries ResultStore.Put with bounded exponential backoff
// (base 100ms, cap 5s, cfg.MaxPublishAttempts attempts total). Non-transient
// errors are not retried.
func (p *Pool) publish(ctx context.Context, id string, rec *model.Record) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0

	bounded := backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.cfg.MaxPublishAttempts-1)), ctx)

	return backoff.Retry(func() error {
		err := p.store.Put(ctx, id, rec, p.cfg.ResultTTL)
		if err != nil && !errors.Is(err, model.ErrBackendUnavailable) {
			return backoff.Permanent(err)
		}
		return err
	}, bounded)
}
