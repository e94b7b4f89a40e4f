// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	a2a "github.com/go-a2a/a2a-taskserver"
	"github.com/go-a2a/a2a-taskserver/config"
	"github.com/go-a2a/a2a-taskserver/internal/telemetry"
	"github.com/go-a2a/a2a-taskserver/server/task"
)

func TestOpenStore(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := map[string]config.Store{
		"memory": {Backend: config.StoreMemory},
		"sqlite": {Backend: config.StoreSQLite, DSN: filepath.Join(t.TempDir(), "tasks.db"), TableName: "tasks"},
		"redis":  {Backend: config.StoreRedis, DSN: "redis://" + mr.Addr(), Prefix: "test:"},
		"cached": {Backend: config.StoreMemory, CacheSize: 4},
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			store, closeFn, err := openStore(t.Context(), cfg)
			if err != nil {
				t.Fatalf("openStore() error = %v", err)
			}
			defer closeFn()

			want := a2a.NewTask(a2a.NewUserTextMessage("hi"), nil)
			if err := store.Save(t.Context(), "echo", want.ID, want); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			got, err := store.Load(t.Context(), "echo", want.ID)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if got.ID != want.ID || got.Status.State != want.Status.State {
				t.Errorf("Load() = %s %s, want %s %s", got.ID, got.Status.State, want.ID, want.Status.State)
			}
			if name == "cached" {
				if _, ok := store.(*task.CachedStore); !ok {
					t.Errorf("store = %T, want *task.CachedStore", store)
				}
			}
		})
	}
}

func TestOpenStoreErrors(t *testing.T) {
	tests := map[string]config.Store{
		"bad redis url": {Backend: config.StoreRedis, DSN: "http://nope"},
		"unknown":       {Backend: "etcd"},
	}
	for name, cfg := range tests {
		t.Run(name, func(t *testing.T) {
			if _, _, err := openStore(t.Context(), cfg); err == nil {
				t.Error("openStore() succeeded")
			}
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	provider, h, err := newMetrics()
	if err != nil {
		t.Fatalf("newMetrics() error = %v", err)
	}
	defer provider.Shutdown(t.Context())

	m := telemetry.NewMetrics(provider.Meter(telemetry.InstrumentationName))
	m.RecordChunk(t.Context(), "echo")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if rec.Code != http.StatusOK || !strings.Contains(string(body), "a2a_stream_chunks") {
		t.Errorf("metrics = %d\n%s", rec.Code, body)
	}
}

func TestBuildAgents(t *testing.T) {
	agents := buildAgents([]config.Agent{
		{ID: "a", Description: "first"},
		{ID: "b", ChunkSize: 2},
	})
	if len(agents) != 2 || agents[0].Info().ID != "a" || agents[0].Info().Description != "first" || agents[1].Info().ID != "b" {
		t.Errorf("buildAgents() = %+v", agents)
	}
}

func TestVersionCmd(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "a2a-taskserver dev") {
		t.Errorf("output = %q", out.String())
	}
}

func TestServeRejectsBadConfig(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"serve", "--config", filepath.Join(t.TempDir(), "missing.yaml")})
	if err := cmd.Execute(); err == nil {
		t.Error("serve with a missing config succeeded")
	}
}
