// Package submit implements the submission API: validating and enqueuing a
// task specification and handing the caller back its id.
package submit

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskqueue/internal/model"
	"taskqueue/internal/queue"
)

// ErrEmptyKind is returned when Submit is called with an empty kind.
var ErrEmptyKind = errors.New("kind must not be empty")

// Submitter accepts task specifications and enqueues them.
type Submitter struct {
	q queue.Queue
}

// New returns a Submitter that pushes onto q.
func New(q queue.Queue) *Submitter {
	return &Submitter{q: q}
}

// Submit validates kind and payload, assigns an id, stamps submitted_at
// with the submitter's own clock, and pushes the resulting pending task
// onto the queue. On a backend failure no id is returned and the caller
// may retry.
func (s *Submitter) Submit(ctx context.Context, kind string, payload map[string]any) (string, error) {
	if kind == "" {
		return "", ErrEmptyKind
	}
	if _, err := json.Marshal(payload); err != nil {
		return "", fmt.Errorf("submit: payload not serializable: %w", err)
	}

	id := newID()
	task := &model.Task{
		ID:          id,
		Kind:        kind,
		Payload:     payload,
		Status:      model.StatusPending,
		SubmittedAt: model.NewTimestamp(time.Now()),
	}

	if err := s.q.Push(ctx, task); err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}
	return id, nil
}

// newID generates a 128-bit random identifier rendered as 32 lowercase hex
// digits (the UUID's raw bytes, not its dashed canonical form).
func newID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
