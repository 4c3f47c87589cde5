// Package resultstore defines the ResultStore backend abstraction and its
// two implementations: an in-process TTL map with a background reaper, and
// a Redis-backed store that relies on Redis's own per-key expiry.
package resultstore

import (
	"context"
	"time"

	"taskqueue/internal/model"
)

// ResultStore is the TTL-bound store from which clients retrieve terminal
// task records. Every operation is atomic with respect to other operations
// on the same id.
type ResultStore interface {
	// Put stores rec under id, overwriting any prior record, with expiry
	// set to now + ttl. It returns model.ErrBackendUnavailable on
	// transport failure.
	Put(ctx context.Context, id string, rec *model.Record, ttl time.Duration) error

	// Get returns the record for id, or (nil, nil) if absent or expired.
	Get(ctx context.Context, id string) (*model.Record, error)

	// Delete removes the record for id. It is idempotent: deleting an
	// absent id succeeds.
	Delete(ctx context.Context, id string) error

	// Exists reports whether a non-expired record exists for id.
	Exists(ctx context.Context, id string) (bool, error)
}
