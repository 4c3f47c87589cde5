// Package config loads and validates the typed configuration surface the
// core reads: backend selection, Redis endpoints, result TTL, and worker
// pool sizing.
package config

import "time"

// BackendType selects which Queue or ResultStore implementation to
// construct.
type BackendType string

const (
	BackendMemory BackendType = "memory"
	BackendRemote BackendType = "remote"
)

// Config holds all configuration the core reads. Field groups mirror the
// configuration surface the spec defines; mapstructure tags match the
// lower-cased keys used in a config file, while Load binds the
// corresponding environment variables directly.
type Config struct {
	Queue       QueueConfig       `mapstructure:"queue"`
	ResultStore ResultStoreConfig `mapstructure:"result_store"`
	Worker      WorkerConfig      `mapstructure:"worker"`
	API         APIConfig         `mapstructure:"api"`
	Log         LogConfig         `mapstructure:"log"`
}

// QueueConfig selects and configures the task queue backend.
type QueueConfig struct {
	Type     BackendType `mapstructure:"type" validate:"required,oneof=memory remote"`
	RedisURL string      `mapstructure:"redis_url" validate:"required_if=Type remote"`
}

// ResultStoreConfig selects and configures the result store backend.
type ResultStoreConfig struct {
	Type      BackendType   `mapstructure:"type" validate:"required,oneof=memory remote"`
	TTL       time.Duration `mapstructure:"ttl" validate:"required,gt=0"`
	RedisURL  string        `mapstructure:"redis_url" validate:"required_if=Type remote"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

// WorkerConfig sizes and bounds the worker pool.
type WorkerConfig struct {
	PoolSize       int           `mapstructure:"pool_size" validate:"required,gt=0"`
	PollTimeout    time.Duration `mapstructure:"poll_timeout" validate:"required,gt=0"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout"`
	ShutdownGrace  time.Duration `mapstructure:"shutdown_grace" validate:"required,gt=0"`
}

// APIConfig configures the HTTP transport. APIKey is optional: an empty
// key disables bearer authentication entirely (see internal/httpapi).
type APIConfig struct {
	Addr   string `mapstructure:"addr" validate:"required"`
	APIKey string `mapstructure:"api_key"`
}

// LogConfig configures the slog logger built at startup.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}
