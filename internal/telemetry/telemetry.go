// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry holds the OpenTelemetry instruments of the task server.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName names the meter and tracer of this module.
const InstrumentationName = "github.com/go-a2a/a2a-taskserver"

// Attribute keys.
const (
	AttrAgentID = attribute.Key("a2a.agent_id")
	AttrTaskID  = attribute.Key("a2a.task_id")
	AttrMethod  = attribute.Key("rpc.method")
	AttrCode    = attribute.Key("rpc.jsonrpc.error_code")
	AttrState   = attribute.Key("a2a.task_state")
)

// Metrics records server activity. The zero value is not usable; use
// [NewMetrics] or [Default].
type Metrics struct {
	requests    metric.Int64Counter
	latency     metric.Float64Histogram
	transitions metric.Int64Counter
	chunks      metric.Int64Counter
	active      metric.Int64UpDownCounter
}

// NewMetrics creates the instruments on m. An instrument that cannot be
// created is reported through [otel.Handle] and replaced by a no-op.
func NewMetrics(m metric.Meter) *Metrics {
	var (
		mt  Metrics
		err error
	)

	mt.requests, err = m.Int64Counter("a2a.rpc.requests",
		metric.WithDescription("Count of handled JSON-RPC requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		otel.Handle(err)
		mt.requests = noop.Int64Counter{}
	}

	mt.latency, err = m.Float64Histogram("a2a.rpc.duration",
		metric.WithDescription("Duration of JSON-RPC requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		otel.Handle(err)
		mt.latency = noop.Float64Histogram{}
	}

	mt.transitions, err = m.Int64Counter("a2a.task.transitions",
		metric.WithDescription("Count of persisted task state transitions"),
	)
	if err != nil {
		otel.Handle(err)
		mt.transitions = noop.Int64Counter{}
	}

	mt.chunks, err = m.Int64Counter("a2a.stream.chunks",
		metric.WithDescription("Count of agent chunks applied to streaming tasks"),
	)
	if err != nil {
		otel.Handle(err)
		mt.chunks = noop.Int64Counter{}
	}

	mt.active, err = m.Int64UpDownCounter("a2a.task.active_operations",
		metric.WithDescription("In-flight send and stream operations"),
	)
	if err != nil {
		otel.Handle(err)
		mt.active = noop.Int64UpDownCounter{}
	}

	return &mt
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns metrics recorded on the global meter provider.
func Default() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = NewMetrics(otel.GetMeterProvider().Meter(InstrumentationName))
	})
	return defaultMetrics
}

// Tracer returns the tracer of this module from the global tracer provider.
func Tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(InstrumentationName)
}

// RecordRequest counts one request for method and its duration. code is the
// JSON-RPC error code, or zero on success.
func (m *Metrics) RecordRequest(ctx context.Context, method string, code int, d time.Duration) {
	attrs := metric.WithAttributes(AttrMethod.String(method), AttrCode.Int(code))
	m.requests.Add(ctx, 1, attrs)
	m.latency.Record(ctx, d.Seconds(), attrs)
}

// RecordTransition counts one persisted transition of a task of agentID into state.
func (m *Metrics) RecordTransition(ctx context.Context, agentID, state string) {
	m.transitions.Add(ctx, 1, metric.WithAttributes(AttrAgentID.String(agentID), AttrState.String(state)))
}

// RecordChunk counts one non-empty chunk streamed by agentID.
func (m *Metrics) RecordChunk(ctx context.Context, agentID string) {
	m.chunks.Add(ctx, 1, metric.WithAttributes(AttrAgentID.String(agentID)))
}

// AddActive adjusts the number of in-flight operations.
func (m *Metrics) AddActive(ctx context.Context, delta int) {
	m.active.Add(ctx, int64(delta))
}
