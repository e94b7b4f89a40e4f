// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(t.Context(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()

	sum, ok := data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("aggregation %T is not Sum[int64]", data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { provider.Shutdown(t.Context()) })

	m := NewMetrics(provider.Meter(InstrumentationName))
	ctx := t.Context()

	m.RecordRequest(ctx, "message/send", 0, 20*time.Millisecond)
	m.RecordRequest(ctx, "tasks/get", -32001, time.Millisecond)
	m.RecordTransition(ctx, "echo", "working")
	m.RecordTransition(ctx, "echo", "completed")
	m.RecordChunk(ctx, "echo")
	m.AddActive(ctx, 1)
	m.AddActive(ctx, 1)
	m.AddActive(ctx, -1)

	got := collect(t, reader)

	tests := map[string]int64{
		"a2a.rpc.requests":           2,
		"a2a.task.transitions":       2,
		"a2a.stream.chunks":          1,
		"a2a.task.active_operations": 1,
	}
	for name, want := range tests {
		data, ok := got[name]
		if !ok {
			t.Errorf("metric %q not recorded", name)
			continue
		}
		if total := sumOf(t, data); total != want {
			t.Errorf("%s = %d, want %d", name, total, want)
		}
	}

	hist, ok := got["a2a.rpc.duration"].(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("a2a.rpc.duration is %T, want Histogram[float64]", got["a2a.rpc.duration"])
	}
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	if count != 2 {
		t.Errorf("a2a.rpc.duration count = %d, want 2", count)
	}
}

func TestDefault(t *testing.T) {
	t.Parallel()

	if Default() != Default() {
		t.Error("Default() returned different instances")
	}
	if Tracer() == nil {
		t.Error("Tracer() = nil")
	}
}
