// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/go-a2a/a2a-taskserver/agent"
	"github.com/go-a2a/a2a-taskserver/internal/telemetry"
	"github.com/go-a2a/a2a-taskserver/server/task"
)

// Option represents an option for configuring the [TaskManager].
type Option func(*TaskManager)

// WithStore sets the [task.Store] records are persisted to.
func WithStore(store task.Store) Option {
	return func(tm *TaskManager) {
		tm.store = store
	}
}

// WithAgents sets the configured agents. They win over registry agents with
// the same id.
func WithAgents(agents ...agent.Agent) Option {
	return func(tm *TaskManager) {
		tm.agents = append(tm.agents, agents...)
	}
}

// WithAgentRegistry sets the registry of agents added at runtime.
func WithAgentRegistry(registry *agent.Registry) Option {
	return func(tm *TaskManager) {
		tm.registry = registry
	}
}

// WithAgentFilter sets the filter applied to the candidate agents of every call.
func WithAgentFilter(filter AgentFilter) Option {
	return func(tm *TaskManager) {
		tm.filter = filter
	}
}

// WithOperationRegistry sets the registry of in-flight operations.
func WithOperationRegistry(ops *task.OperationRegistry) Option {
	return func(tm *TaskManager) {
		tm.ops = ops
	}
}

// WithLogger sets the [*slog.Logger] for the [TaskManager].
func WithLogger(logger *slog.Logger) Option {
	return func(tm *TaskManager) {
		tm.logger = logger
	}
}

// WithTracer sets the [trace.Tracer] for the [TaskManager].
func WithTracer(tracer trace.Tracer) Option {
	return func(tm *TaskManager) {
		tm.tracer = tracer
	}
}

// WithMetrics sets the [*telemetry.Metrics] for the [TaskManager].
func WithMetrics(metrics *telemetry.Metrics) Option {
	return func(tm *TaskManager) {
		tm.metrics = metrics
	}
}
