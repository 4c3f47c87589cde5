// Package stats holds lightweight in-process counters for the error
// taxonomy the worker runtime and backends observe, plus the logger
// construction helper used throughout the service.
package stats

import (
	"log/slog"
	"os"
	"sync/atomic"
)

// Counters tracks observability-only counts that have no other externally
// visible effect: a malformed queue entry is already discarded, a lost
// publish already dropped the result. These exist so operators (and tests)
// can see that it happened.
type Counters struct {
	malformedEntries  atomic.Int64
	unknownKind       atomic.Int64
	handlerFailures   atomic.Int64
	handlerTimeouts   atomic.Int64
	resultPublishLost atomic.Int64
	succeeded         atomic.Int64
}

func (c *Counters) IncMalformedEntry()    { c.malformedEntries.Add(1) }
func (c *Counters) IncUnknownKind()       { c.unknownKind.Add(1) }
func (c *Counters) IncHandlerFailure()    { c.handlerFailures.Add(1) }
func (c *Counters) IncHandlerTimeout()    { c.handlerTimeouts.Add(1) }
func (c *Counters) IncResultPublishLost() { c.resultPublishLost.Add(1) }
func (c *Counters) IncSucceeded()         { c.succeeded.Add(1) }

// Snapshot is a point-in-time read of every counter, safe to log or assert
// on in tests.
type Snapshot struct {
	MalformedEntries  int64
	UnknownKind       int64
	HandlerFailures   int64
	HandlerTimeouts   int64
	ResultPublishLost int64
	Succeeded         int64
}

func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		MalformedEntries:  c.malformedEntries.Load(),
		UnknownKind:       c.unknownKind.Load(),
		HandlerFailures:   c.handlerFailures.Load(),
		HandlerTimeouts:   c.handlerTimeouts.Load(),
		ResultPublishLost: c.resultPublishLost.Load(),
		Succeeded:         c.succeeded.Load(),
	}
}

// NewLogger builds a slog.Logger writing JSON to stderr when json is true,
// otherwise a human-readable text handler. level is one of
// "debug"/"info"/"warn"/"error".
func NewLogger(jsonOutput bool, level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
