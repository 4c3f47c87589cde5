// Command taskqueue wires configuration, backends, the worker pool, and the
// HTTP transport together, and handles signal-based graceful shutdown.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"taskqueue/internal/config"
	"taskqueue/internal/httpapi"
	"taskqueue/internal/queue"
	"taskqueue/internal/resultstore"
	"taskqueue/internal/retrieve"
	"taskqueue/internal/stats"
	"taskqueue/internal/submit"
	"taskqueue/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := stats.NewLogger(cfg.Log.JSON, cfg.Log.Level)
	slog.SetDefault(logger)
	counters := &stats.Counters{}

	q, closeQueue, err := buildQueue(cfg, logger, counters)
	if err != nil {
		logger.Error("failed to build queue backend", "error", err)
		os.Exit(1)
	}
	defer closeQueue()

	store, closeStore, err := buildResultStore(cfg, logger)
	if err != nil {
		logger.Error("failed to build result store backend", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	registry := worker.NewRegistry()
	registerBuiltinHandlers(registry)

	pool := worker.NewPool(q, store, registry, worker.Config{
		Size:           cfg.Worker.PoolSize,
		PollTimeout:    cfg.Worker.PollTimeout,
		HandlerTimeout: cfg.Worker.HandlerTimeout,
		ResultTTL:      cfg.ResultStore.TTL,
		ShutdownGrace:  cfg.Worker.ShutdownGrace,
		Logger:         logger,
		Stats:          counters,
	})

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	submitter := submit.New(q)
	retriever := retrieve.New(store)
	server := httpapi.NewServer(cfg.API.Addr, cfg.API.APIKey, submitter, retriever, logger)

	go func() {
		logger.Info("starting HTTP server", "addr", cfg.API.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), httpapi.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	pool.Shutdown()
	snap := counters.Snapshot()
	logger.Info("all workers stopped",
		"succeeded", snap.Succeeded,
		"result_publish_lost", snap.ResultPublishLost,
		"unknown_kind", snap.UnknownKind,
		"handler_failures", snap.HandlerFailures,
		"handler_timeouts", snap.HandlerTimeouts,
	)
}

func buildQueue(cfg *config.Config, logger *slog.Logger, counters *stats.Counters) (queue.Queue, func(), error) {
	switch cfg.Queue.Type {
	case config.BackendMemory:
		return queue.NewMemoryQueue(), func() {}, nil
	case config.BackendRemote:
		opts, err := redis.ParseURL(cfg.Queue.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewClient(opts)
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, nil, err
		}
		q := queue.NewRedisQueue(client, queue.DefaultListKey, logger, counters)
		return q, func() { _ = client.Close() }, nil
	default:
		return nil, nil, errUnknownBackend(string(cfg.Queue.Type))
	}
}

func buildResultStore(cfg *config.Config, logger *slog.Logger) (resultstore.ResultStore, func(), error) {
	switch cfg.ResultStore.Type {
	case config.BackendMemory:
		s := resultstore.NewMemoryResultStore()
		return s, s.Close, nil
	case config.BackendRemote:
		opts, err := redis.ParseURL(cfg.ResultStore.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		client := redis.NewClient(opts)
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, nil, err
		}
		s := resultstore.NewRedisResultStore(client, cfg.ResultStore.KeyPrefix)
		return s, func() { _ = client.Close() }, nil
	default:
		return nil, nil, errUnknownBackend(string(cfg.ResultStore.Type))
	}
}

func errUnknownBackend(t string) error {
	return &unknownBackendError{t: t}
}

type unknownBackendError struct{ t string }

func (e *unknownBackendError) Error() string { return "unknown backend type: " + e.t }

// registerBuiltinHandlers registers the example handlers exercised by the
// happy-path test scenarios; real deployments register their own kinds
// before calling pool.Start.
func registerBuiltinHandlers(r *worker.Registry) {
	r.Register("square", func(ctx context.Context, payload map[string]any) (any, error) {
		x, ok := payload["x"].(float64)
		if !ok {
			return nil, errBadPayload("x")
		}
		return x * x, nil
	})

	r.Register("sleep", func(ctx context.Context, payload map[string]any) (any, error) {
		d, _ := payload["ms"].(float64)
		select {
		case <-time.After(time.Duration(d) * time.Millisecond):
			return "done", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
}

func errBadPayload(field string) error {
	return &badPayloadError{field: field}
}

type badPayloadError struct{ field string }

func (e *badPayloadError) Error() string { return "missing or invalid payload field: " + e.field }
