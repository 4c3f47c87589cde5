package worker

import (
	"context"
	"fmt"
	"sync"

	"taskqueue/internal/model"
)

// Handler processes a task's payload and returns its result, or an error if
// the task should be recorded as failed.
type Handler func(ctx context.Context, payload map[string]any) (result any, err error)

// Registry maps a task kind to its Handler. Registration is expected to
// happen before Pool.Start, but the registry is guarded so later mutation
// (a non-goal, but not undefined behavior) is race-free rather than racy.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register associates kind with h, replacing any existing handler for kind.
func (r *Registry) Register(kind string, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = h
}

// Lookup returns the handler registered for kind, if any.
func (r *Registry) Lookup(kind string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}

func errUnknownKind(kind string) error {
	return fmt.Errorf("%w %s", model.ErrUnknownKind, kind)
}
