// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	gocmp "github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := gocmp.Diff(Default(), *cfg); diff != "" {
		t.Errorf("Load(\"\") mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
server:
  addr: 127.0.0.1:9000
  shutdown_timeout: 3s
store:
  backend: sqlite
  dsn: tasks.db
  cache_size: 128
log:
  level: debug
  format: json
agents:
  - id: alpha
    prefix: "alpha: "
    chunk_size: 2
  - id: beta
    delay: 5ms
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Default()
	want.Server.Addr = "127.0.0.1:9000"
	want.Server.ShutdownTimeout = 3 * time.Second
	want.Store.Backend = StoreSQLite
	want.Store.DSN = "tasks.db"
	want.Store.CacheSize = 128
	want.Log = Log{Level: "debug", Format: "json"}
	want.Agents = []Agent{
		{ID: "alpha", Prefix: "alpha: ", ChunkSize: 2},
		{ID: "beta", Delay: 5 * time.Millisecond},
	}
	if diff := gocmp.Diff(want, *cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("A2A_ADDR", ":7070")
	t.Setenv("A2A_STORE_BACKEND", "redis")
	t.Setenv("A2A_STORE_DSN", "redis://localhost:6379/0")
	t.Setenv("A2A_LOG_LEVEL", "warn")
	t.Setenv("A2A_STORE_CACHE_SIZE", "16")

	cfg, err := Load(writeFile(t, "server:\n  addr: :1111\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got := []any{cfg.Server.Addr, cfg.Store.Backend, cfg.Store.DSN, cfg.Log.Level, cfg.Store.CacheSize}
	want := []any{":7070", StoreRedis, "redis://localhost:6379/0", "warn", 16}
	if diff := gocmp.Diff(want, got); diff != "" {
		t.Errorf("env overrides mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]struct {
		yaml    string
		env     map[string]string
		wantErr string
	}{
		"bad yaml": {
			yaml:    "server: [",
			wantErr: "parse config",
		},
		"unknown backend": {
			yaml:    "store:\n  backend: etcd\n",
			wantErr: "store.backend",
		},
		"missing dsn": {
			yaml:    "store:\n  backend: mysql\n",
			wantErr: "store.dsn",
		},
		"bad level": {
			yaml:    "log:\n  level: loud\n",
			wantErr: "log.level",
		},
		"duplicate agent": {
			yaml:    "agents:\n  - id: a\n  - id: a\n",
			wantErr: "duplicated",
		},
		"agent id with key separator": {
			yaml:    "agents:\n  - id: \"a::b\"\n",
			wantErr: "contains",
		},
		"no agents": {
			yaml:    "agents: []\n",
			wantErr: "at least one agent",
		},
		"bad cache size env": {
			env:     map[string]string{"A2A_STORE_CACHE_SIZE": "many"},
			wantErr: "A2A_STORE_CACHE_SIZE",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(writeFile(t, tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() of a missing file succeeded")
	}
}
