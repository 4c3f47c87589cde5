package resultstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskqueue/internal/model"
)

func newTestRecord(id string) *model.Record {
	return &model.Record{
		Task: model.Task{
			ID:     id,
			Kind:   "square",
			Status: model.StatusSucceeded,
			Result: float64(49),
		},
	}
}

func TestMemoryResultStorePutGet(t *testing.T) {
	s := NewMemoryResultStoreWithInterval(time.Hour)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "t1", newTestRecord("t1"), time.Minute))

	rec, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "t1", rec.Task.ID)
}

func TestMemoryResultStoreGetAbsent(t *testing.T) {
	s := NewMemoryResultStoreWithInterval(time.Hour)
	defer s.Close()

	rec, err := s.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestMemoryResultStoreLazyExpiry(t *testing.T) {
	s := NewMemoryResultStoreWithInterval(time.Hour)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "t1", newTestRecord("t1"), 10*time.Millisecond))

	rec, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.NotNil(t, rec)

	time.Sleep(30 * time.Millisecond)

	rec, err = s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, rec, "expired record must not be returned even before the reaper runs")
}

func TestMemoryResultStoreReaperRemovesExpiredEntries(t *testing.T) {
	s := NewMemoryResultStoreWithInterval(20 * time.Millisecond)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "t1", newTestRecord("t1"), 5*time.Millisecond))

	require.Eventually(t, func() bool {
		s.mu.RLock()
		_, ok := s.entries["t1"]
		s.mu.RUnlock()
		return !ok
	}, time.Second, 10*time.Millisecond, "reaper should have removed the expired entry")
}

func TestMemoryResultStoreDeleteIsIdempotent(t *testing.T) {
	s := NewMemoryResultStoreWithInterval(time.Hour)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "t1", newTestRecord("t1"), time.Minute))
	require.NoError(t, s.Delete(ctx, "t1"))
	require.NoError(t, s.Delete(ctx, "t1"))
	require.NoError(t, s.Delete(ctx, "never-existed"))

	exists, err := s.Exists(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryResultStoreExists(t *testing.T) {
	s := NewMemoryResultStoreWithInterval(time.Hour)
	defer s.Close()
	ctx := context.Background()

	exists, err := s.Exists(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.Put(ctx, "t1", newTestRecord("t1"), time.Minute))

	exists, err = s.Exists(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestMemoryResultStoreCloseStopsReaper(t *testing.T) {
	s := NewMemoryResultStoreWithInterval(5 * time.Millisecond)
	s.Close()

	select {
	case <-s.done:
	default:
		t.Fatal("reaper goroutine should have exited after Close")
	}
}
