package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envBindings maps each config key to the literal environment variable
// name the spec's configuration surface defines (§6). Precedence is
// env > file > default, which is exactly the order viper applies these
// sources in.
var envBindings = map[string]string{
	"queue.type":             "QUEUE_TYPE",
	"queue.redis_url":        "REDIS_URL",
	"result_store.type":      "RESULT_STORE_TYPE",
	"result_store.ttl":       "RESULT_STORE_TTL",
	"result_store.redis_url": "RESULT_STORE_REDIS_URL",
	"worker.pool_size":       "API_WORKERS",
}

// Load reads configuration from an optional .env file (local development,
// matching the teacher's own godotenv.Load call), an optional config file
// named taskqueue (yaml/json/toml, searched in the current directory),
// then the environment variables the spec names, in that precedence order,
// and validates the result. A validation failure is a fatal startup error.
func Load() (*Config, error) {
	// Best-effort: a missing .env file is not an error, mirroring the
	// teacher's main.go which only logs a warning.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("taskqueue")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("config: bind env %s: %w", env, err)
		}
	}

	// RESULT_STORE_TTL is documented in seconds; viper.BindEnv alone
	// leaves it a string, so decode it explicitly before unmarshalling
	// the rest through the duration hook.
	if raw := v.GetString("result_store.ttl"); raw != "" {
		if secs, err := time.ParseDuration(raw + "s"); err == nil {
			v.Set("result_store.ttl", secs)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc())); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("queue.type", string(BackendMemory))
	v.SetDefault("result_store.type", string(BackendMemory))
	v.SetDefault("result_store.ttl", 3600*time.Second)
	v.SetDefault("result_store.key_prefix", "taskqueue:result")
	v.SetDefault("worker.pool_size", 4)
	v.SetDefault("worker.poll_timeout", 2*time.Second)
	v.SetDefault("worker.handler_timeout", 0)
	v.SetDefault("worker.shutdown_grace", 30*time.Second)
	v.SetDefault("api.addr", ":8080")
	v.SetDefault("api.api_key", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
}
