// Package retrieve implements the retrieval API: reading and deleting
// results by task id. It never blocks waiting for a result to appear;
// polling is the client's responsibility.
package retrieve

import (
	"context"

	"taskqueue/internal/model"
	"taskqueue/internal/resultstore"
)

// Retriever reads and deletes results from a ResultStore.
type Retriever struct {
	store resultstore.ResultStore
}

// New returns a Retriever backed by store.
func New(store resultstore.ResultStore) *Retriever {
	return &Retriever{store: store}
}

// Get returns the record for id, or (nil, nil) if no non-expired record
// exists.
func (r *Retriever) Get(ctx context.Context, id string) (*model.Record, error) {
	return r.store.Get(ctx, id)
}

// Delete idempotently removes the record for id.
func (r *Retriever) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, id)
}

// Exists reports whether a non-expired record exists for id.
func (r *Retriever) Exists(ctx context.Context, id string) (bool, error) {
	return r.store.Exists(ctx, id)
}
