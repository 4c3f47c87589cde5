package submit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskqueue/internal/model"
	"taskqueue/internal/queue"
)

func TestSubmitAssignsIDAndEnqueues(t *testing.T) {
	q := queue.NewMemoryQueue()
	s := New(q)

	id, err := s.Submit(context.Background(), "square", map[string]any{"x": float64(7)})
	require.NoError(t, err)
	assert.Len(t, id, 32, "id must be 32 lowercase hex digits")
	assert.Regexp(t, "^[0-9a-f]{32}$", id)

	task, err := q.Pop(context.Background(), 0)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, id, task.ID)
	assert.Equal(t, model.StatusPending, task.Status)
	assert.False(t, task.SubmittedAt.IsZero())
}

func TestSubmitRejectsEmptyKind(t *testing.T) {
	q := queue.NewMemoryQueue()
	s := New(q)

	_, err := s.Submit(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrEmptyKind)
}

func TestSubmitIDsAreUnique(t *testing.T) {
	q := queue.NewMemoryQueue()
	s := New(q)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := s.Submit(context.Background(), "noop", nil)
		require.NoError(t, err)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

type failingQueue struct{ queue.Queue }

func (failingQueue) Push(ctx context.Context, t *model.Task) error {
	return model.ErrBackendUnavailable
}

func TestSubmitPropagatesBackendUnavailable(t *testing.T) {
	s := New(failingQueue{})

	id, err := s.Submit(context.Background(), "square", nil)
	assert.ErrorIs(t, err, model.ErrBackendUnavailable)
	assert.Empty(t, id)
}
