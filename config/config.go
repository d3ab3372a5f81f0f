// Package config loads the task manager configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from every environment variable the loader reads.
const EnvPrefix = "TASKMGR_"

// Config holds the runtime settings.
type Config struct {
	DBPath          string        `koanf:"db_path"`
	DBDebug         bool          `koanf:"db_debug"`
	HTTPPort        int           `koanf:"http_port"`
	RedisAddr       string        `koanf:"redis_addr"`
	CachePrefix     string        `koanf:"cache_prefix"`
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	GraceWindow     time.Duration `koanf:"grace_window"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	LogLevel        string        `koanf:"log_level"`
}

// CacheEnabled reports whether a Redis address was configured.
func (c *Config) CacheEnabled() bool {
	return c.RedisAddr != ""
}

// Load reads TASKMGR_* environment variables, then applies defaults and validates.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment win.
//
//	TASKMGR_DB_PATH     -> db_path
//	TASKMGR_CACHE_TTL   -> cache_ttl
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.DBPath == "" {
		cfg.DBPath = "tasks.db"
	}
	if cfg.HTTPPort == 0 {
		cfg.HTTPPort = 3000
	}
	if cfg.CachePrefix == "" {
		cfg.CachePrefix = "task:"
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.GraceWindow == 0 {
		cfg.GraceWindow = 5 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port: %d (must be 1-65535)", c.HTTPPort)
	}
	if c.CacheTTL < 0 {
		return errors.New("cache ttl must not be negative")
	}
	if c.GraceWindow < 0 {
		return errors.New("grace window must not be negative")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	switch c.LogLevel {
	case "info", "error":
	default:
		return fmt.Errorf("invalid log level: %q (must be info or error)", c.LogLevel)
	}
	return nil
}
