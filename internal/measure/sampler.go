// Package measure turns the physics and noise models into instrument readings:
// single noisy samples and repeated-sample statistics at a fixed voltage.
package measure

import (
	"context"
	"log/slog"
	"time"

	"github.com/nvandessel/photolab/internal/logging"
	"github.com/nvandessel/photolab/internal/noise"
	"github.com/nvandessel/photolab/internal/physics"
	"github.com/nvandessel/photolab/internal/telemetry"
)

// Conditions fixes everything about a reading except the applied voltage.
type Conditions struct {
	Material       physics.Material
	WavelengthNm   float64
	IntensityUwCm2 float64
	NoiseLevel     float64
}

// Emission returns the derived photoelectric quantities for c.
func (c Conditions) Emission() physics.Emission {
	return physics.NewEmission(c.WavelengthNm, c.Material.WorkFunctionEv)
}

// Delay is the settling strategy run between consecutive samples. It should
// return early when ctx is done; it must not abort the measurement itself.
type Delay func(ctx context.Context)

// NoDelay returns immediately. Tests use it to sample deterministically and fast.
func NoDelay(context.Context) {}

// Sleep returns a Delay that waits d, or less if ctx is cancelled first.
func Sleep(d time.Duration) Delay {
	if d <= 0 {
		return NoDelay
	}
	return func(ctx context.Context) {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	}
}

// Sampler draws noisy photocurrent samples. It is not safe for concurrent
// use unless its Source is; a session runs at most one measurement at a time.
type Sampler struct {
	source   noise.Source
	delay    Delay
	recorder telemetry.Recorder
	logger   *slog.Logger
}

// Option configures a Sampler.
type Option func(*Sampler)

// WithDelay sets the inter-sample settling strategy.
func WithDelay(d Delay) Option {
	return func(s *Sampler) {
		if d != nil {
			s.delay = d
		}
	}
}

// WithRecorder sets the telemetry recorder.
func WithRecorder(r telemetry.Recorder) Option {
	return func(s *Sampler) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger sets the logger used for per-sample trace output.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sampler) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSampler creates a Sampler drawing randomness from src.
func NewSampler(src noise.Source, opts ...Option) *Sampler {
	s := &Sampler{
		source:   src,
		delay:    NoDelay,
		recorder: telemetry.Noop{},
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sample returns one noisy current reading in nA at voltageV.
func (s *Sampler) Sample(c Conditions, voltageV float64) float64 {
	ideal := c.Emission().CurrentNa(voltageV, c.IntensityUwCm2)
	return noise.Apply(ideal, c.NoiseLevel, s.source)
}

// SampleRepeated draws rounds independent samples at voltageV, waiting on the
// delay strategy between them, and summarizes them. Sample order is preserved
// in the returned Raw slice. Rounds below one yield empty Statistics.
func (s *Sampler) SampleRepeated(ctx context.Context, c Conditions, voltageV float64, rounds int) Statistics {
	if rounds < 1 {
		return Summarize(nil)
	}

	samples := make([]float64, 0, rounds)
	for i := 0; i < rounds; i++ {
		if i > 0 {
			s.delay(ctx)
		}
		v := s.Sample(c, voltageV)
		samples = append(samples, v)
		s.recorder.SampleDrawn(ctx)
		s.logger.Log(ctx, logging.LevelTrace, "sample drawn",
			"voltage", voltageV, "round", i+1, "current_na", v)
	}
	return Summarize(samples)
}
