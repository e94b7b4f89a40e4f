// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the task server configuration.
//
// Values are layered as defaults < YAML file < A2A_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/go-a2a/a2a-taskserver/agent"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreMySQL  = "mysql"
	StoreRedis  = "redis"
)

// Config is the complete daemon configuration.
type Config struct {
	Server  Server  `yaml:"server"`
	Store   Store   `yaml:"store"`
	Log     Log     `yaml:"log"`
	Metrics Metrics `yaml:"metrics"`
	Agents  []Agent `yaml:"agents"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr string `yaml:"addr"`
	// BaseURL is advertised in agent cards. Empty derives it from each request.
	BaseURL         string        `yaml:"base_url"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	Organization    string        `yaml:"organization"`
}

// Store selects and configures the task store backend.
type Store struct {
	Backend string `yaml:"backend"`
	// DSN is a file name or ":memory:" for sqlite, a go-sql-driver DSN for
	// mysql and a redis:// URL for redis.
	DSN       string        `yaml:"dsn"`
	TableName string        `yaml:"table_name"`
	Prefix    string        `yaml:"prefix"`
	TTL       time.Duration `yaml:"ttl"`
	// CacheSize enables an LRU cache of that many records in front of the backend.
	CacheSize int `yaml:"cache_size"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Metrics configures the Prometheus endpoint.
type Metrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Agent declares one echo agent served by the daemon.
type Agent struct {
	ID          string        `yaml:"id"`
	Description string        `yaml:"description"`
	Prefix      string        `yaml:"prefix"`
	ChunkSize   int           `yaml:"chunk_size"`
	Delay       time.Duration `yaml:"delay"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			MaxBodyBytes:    4 << 20,
			ReadTimeout:     30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: Store{
			Backend:   StoreMemory,
			TableName: "tasks",
			Prefix:    "a2a:task:",
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Metrics: Metrics{
			Enabled: true,
			Path:    "/metrics",
		},
		Agents: []Agent{{ID: "echo", ChunkSize: 8}},
	}
}

// Load reads the YAML file at path over [Default], applies the environment
// and validates the result. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Addr, "A2A_ADDR")
	setString(&c.Server.BaseURL, "A2A_BASE_URL")
	setString(&c.Store.Backend, "A2A_STORE_BACKEND")
	setString(&c.Store.DSN, "A2A_STORE_DSN")
	setString(&c.Log.Level, "A2A_LOG_LEVEL")
	setString(&c.Log.Format, "A2A_LOG_FORMAT")
	return setInt(&c.Store.CacheSize, "A2A_STORE_CACHE_SIZE")
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("server.max_body_bytes must be positive")
	}
	if !slices.Contains([]string{StoreMemory, StoreSQLite, StoreMySQL, StoreRedis}, c.Store.Backend) {
		return fmt.Errorf("store.backend %q is not one of memory, sqlite, mysql, redis", c.Store.Backend)
	}
	if c.Store.Backend != StoreMemory && c.Store.DSN == "" {
		return fmt.Errorf("store.dsn is required for backend %s", c.Store.Backend)
	}
	if c.Store.CacheSize < 0 {
		return errors.New("store.cache_size must not be negative")
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format %q is not text or json", c.Log.Format)
	}
	if len(c.Agents) == 0 {
		return errors.New("at least one agent is required")
	}
	seen := make(map[string]bool, len(c.Agents))
	for i, a := range c.Agents {
		if a.ID == "" {
			return fmt.Errorf("agents[%d].id is required", i)
		}
		if err := agent.ValidateID(a.ID); err != nil {
			return fmt.Errorf("agents[%d].id: %w", i, err)
		}
		if seen[a.ID] {
			return fmt.Errorf("agents[%d].id %q is duplicated", i, a.ID)
		}
		seen[a.ID] = true
		if a.ChunkSize < 0 {
			return fmt.Errorf("agents[%d].chunk_size must not be negative", i)
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
