// Package telemetry records OpenTelemetry metrics about simulated measurements.
// A Noop recorder is used unless an OTLP endpoint is configured.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/nvandessel/photolab"

// Recorder receives measurement lifecycle events.
type Recorder interface {
	// SampleDrawn counts one noisy current sample.
	SampleDrawn(ctx context.Context)
	// MeasurementRecorded counts one aggregated reading added to the dataset.
	MeasurementRecorded(ctx context.Context, material string, rounds int)
	// SweepStep counts one completed sweep step.
	SweepStep(ctx context.Context)
	// SweepFinished records the outcome of a sweep.
	SweepFinished(ctx context.Context, steps int, elapsed time.Duration, cancelled bool)
}

// Noop discards every event.
type Noop struct{}

func (Noop) SampleDrawn(context.Context)                             {}
func (Noop) MeasurementRecorded(context.Context, string, int)        {}
func (Noop) SweepStep(context.Context)                               {}
func (Noop) SweepFinished(context.Context, int, time.Duration, bool) {}

// Meters records events as OpenTelemetry instruments.
type Meters struct {
	samples       metric.Int64Counter
	measurements  metric.Int64Counter
	rounds        metric.Int64Histogram
	sweepSteps    metric.Int64Counter
	sweeps        metric.Int64Counter
	sweepDuration metric.Float64Histogram
}

// NewMeters creates the photolab instruments on the given provider.
func NewMeters(mp metric.MeterProvider) (*Meters, error) {
	meter := mp.Meter(meterName)

	samples, err := meter.Int64Counter(
		"photolab_samples_total",
		metric.WithDescription("Noisy current samples drawn"),
		metric.WithUnit("{sample}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating samples counter: %w", err)
	}

	measurements, err := meter.Int64Counter(
		"photolab_measurements_total",
		metric.WithDescription("Aggregated readings recorded"),
		metric.WithUnit("{measurement}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating measurements counter: %w", err)
	}

	rounds, err := meter.Int64Histogram(
		"photolab_measurement_rounds",
		metric.WithDescription("Samples averaged per recorded reading"),
		metric.WithUnit("{sample}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rounds histogram: %w", err)
	}

	sweepSteps, err := meter.Int64Counter(
		"photolab_sweep_steps_total",
		metric.WithDescription("Completed voltage sweep steps"),
		metric.WithUnit("{step}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sweep steps counter: %w", err)
	}

	sweeps, err := meter.Int64Counter(
		"photolab_sweeps_total",
		metric.WithDescription("Finished voltage sweeps by outcome"),
		metric.WithUnit("{sweep}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sweeps counter: %w", err)
	}

	sweepDuration, err := meter.Float64Histogram(
		"photolab_sweep_duration_seconds",
		metric.WithDescription("Wall-clock duration of voltage sweeps"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating sweep duration histogram: %w", err)
	}

	return &Meters{
		samples:       samples,
		measurements:  measurements,
		rounds:        rounds,
		sweepSteps:    sweepSteps,
		sweeps:        sweeps,
		sweepDuration: sweepDuration,
	}, nil
}

func (m *Meters) SampleDrawn(ctx context.Context) {
	m.samples.Add(ctx, 1)
}

func (m *Meters) MeasurementRecorded(ctx context.Context, material string, rounds int) {
	attrs := metric.WithAttributes(attribute.String("material", material))
	m.measurements.Add(ctx, 1, attrs)
	m.rounds.Record(ctx, int64(rounds), attrs)
}

func (m *Meters) SweepStep(ctx context.Context) {
	m.sweepSteps.Add(ctx, 1)
}

func (m *Meters) SweepFinished(ctx context.Context, steps int, elapsed time.Duration, cancelled bool) {
	outcome := "completed"
	if cancelled {
		outcome = "cancelled"
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.sweeps.Add(ctx, 1, attrs)
	m.sweepDuration.Record(ctx, elapsed.Seconds(), attrs)
}
