// Package model defines the Task and Record types that flow through the
// queue and the result store, along with the error taxonomy shared by both.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state of a Task. Transitions are monotonic:
// Pending -> Running -> {Succeeded, Failed}. There are no back-transitions.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether s is one of the two states a Task's result
// store record may hold.
func (s Status) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Timestamp wraps time.Time and marshals as integer milliseconds since the
// Unix epoch, per the wire format required by the task protocol. The zero
// value marshals to null and is treated as "absent" on decode.
type Timestamp struct {
	time.Time
}

// NewTimestamp returns a Timestamp wrapping t, normalized to UTC and
// truncated to the millisecond resolution of the wire format, so that a
// JSON round trip yields an equal value.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Millisecond)}
}

func (t Timestamp) IsZero() bool {
	return t.Time.IsZero()
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UnixMilli())
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	t.Time = time.UnixMilli(ms).UTC()
	return nil
}

// Task is the canonical record passed through the queue and the result
// store. Payload and Result are opaque key-value bags under the task
// protocol's self-describing encoding.
type Task struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	Payload     map[string]any `json:"payload"`
	Status      Status         `json:"status"`
	Result      any            `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	SubmittedAt Timestamp      `json:"submitted_at"`
	StartedAt   Timestamp      `json:"started_at,omitempty"`
	FinishedAt  Timestamp      `json:"finished_at,omitempty"`
}

// Record is a Task in a terminal status plus its absolute expiry in the
// result store. It is only ever constructed by a worker on completion.
type Record struct {
	Task      Task      `json:"task"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the record's TTL has elapsed as of now.
func (r *Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// Error taxonomy shared by the queue, result store, and worker runtime (§7).
var (
	// ErrBackendUnavailable indicates a transient transport fault talking to
	// a backend (Redis connection refused, timeout, etc). The worker's
	// publish path retries it with bounded backoff; the submission path
	// returns it to its caller. It is never surfaced as a terminal task
	// outcome.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrMalformedEntry indicates a queue entry that could not be decoded.
	// The entry is discarded and counted, never re-enqueued.
	ErrMalformedEntry = errors.New("malformed queue entry")

	// ErrUnknownKind indicates no handler is registered for a task's kind.
	ErrUnknownKind = errors.New("no handler for kind")

	// ErrNotFound indicates a retrieval request for an id with no record.
	ErrNotFound = errors.New("result not found")
)
