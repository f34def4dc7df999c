package middleware_test

import (
	"context"
	"errors"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	mw "github.com/xraph/tempo/middleware"
)

func setupTestMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return reader, mp
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func statusOf(dp metricdata.DataPoint[int64]) string {
	for _, attr := range dp.Attributes.ToSlice() {
		if string(attr.Key) == "status" {
			return attr.Value.AsString()
		}
	}
	return ""
}

func TestMetrics_RecordsDuration(t *testing.T) {
	reader, mp := setupTestMeter()
	m := mw.MetricsWithMeter(mp.Meter("test"))

	_ = m(context.Background(), newTestDelivery(), func(_ context.Context) error { return nil })

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "tempo.handler.duration")
	if metric == nil {
		t.Fatal("tempo.handler.duration metric not found")
	}
	hist, ok := metric.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("expected Histogram[float64] data type")
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("no data points recorded for duration")
	}
	if hist.DataPoints[0].Count != 1 {
		t.Errorf("expected count=1, got %d", hist.DataPoints[0].Count)
	}
}

func TestMetrics_RecordsExecutionsByStatus(t *testing.T) {
	reader, mp := setupTestMeter()
	m := mw.MetricsWithMeter(mp.Meter("test"))

	_ = m(context.Background(), newTestDelivery(), func(_ context.Context) error { return nil })
	_ = m(context.Background(), newTestDelivery(), func(_ context.Context) error { return nil })
	_ = m(context.Background(), newTestDelivery(), func(_ context.Context) error { return errors.New("boom") })

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "tempo.handler.executions")
	if metric == nil {
		t.Fatal("tempo.handler.executions metric not found")
	}
	sum, ok := metric.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("expected Sum[int64] data type")
	}

	got := map[string]int64{}
	for _, dp := range sum.DataPoints {
		got[statusOf(dp)] = dp.Value
	}
	if got["ok"] != 2 {
		t.Errorf("status=ok: expected 2, got %d", got["ok"])
	}
	if got["error"] != 1 {
		t.Errorf("status=error: expected 1, got %d", got["error"])
	}
}

func TestMetrics_DefaultNoopSafe(t *testing.T) {
	m := mw.Metrics()

	called := false
	err := m(context.Background(), newTestDelivery(), func(_ context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("handler was not called")
	}
}
