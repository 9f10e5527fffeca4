package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumOf(t *testing.T, m metricdata.Metrics) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMeters_RecordsEvents(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewMeters(provider)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 30; i++ {
		m.SampleDrawn(ctx)
	}
	m.MeasurementRecorded(ctx, "Cesium (Cs)", 10)
	m.MeasurementRecorded(ctx, "Gold (Au)", 10)
	m.SweepStep(ctx)
	m.SweepStep(ctx)
	m.SweepFinished(ctx, 2, 150*time.Millisecond, true)

	metrics := collect(t, reader)
	assert.Equal(t, int64(30), sumOf(t, metrics["photolab_samples_total"]))
	assert.Equal(t, int64(2), sumOf(t, metrics["photolab_measurements_total"]))
	assert.Equal(t, int64(2), sumOf(t, metrics["photolab_sweep_steps_total"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["photolab_sweeps_total"]))

	hist, ok := metrics["photolab_sweep_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestSetup_DisabledReturnsNoop(t *testing.T) {
	rec, shutdown, err := Setup(context.Background(), Config{Enabled: false, Endpoint: "localhost:4317"}, "test")
	require.NoError(t, err)
	assert.IsType(t, Noop{}, rec)
	assert.NoError(t, shutdown(context.Background()))

	rec, _, err = Setup(context.Background(), Config{Enabled: true}, "test")
	require.NoError(t, err)
	assert.IsType(t, Noop{}, rec)
}

func TestNoop_IsSafe(t *testing.T) {
	var r Recorder = Noop{}
	ctx := context.Background()
	r.SampleDrawn(ctx)
	r.MeasurementRecorded(ctx, "x", 1)
	r.SweepStep(ctx)
	r.SweepFinished(ctx, 0, 0, false)
}
