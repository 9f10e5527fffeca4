package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nvandessel/photolab/internal/constants"
	"github.com/nvandessel/photolab/internal/dataset"
	"github.com/nvandessel/photolab/internal/logging"
	"github.com/nvandessel/photolab/internal/measure"
	"github.com/nvandessel/photolab/internal/sweep"
	"github.com/nvandessel/photolab/internal/telemetry"
)

// Session is the controller of one bench. Parameters may be changed at any
// time; measurements and sweeps snapshot them when they start.
type Session struct {
	id      string
	store   dataset.Store
	sampler *measure.Sampler

	mu     sync.RWMutex
	params Parameters
	plan   sweep.Plan

	busy atomic.Bool

	logger   *slog.Logger
	trace    *logging.TraceLogger
	recorder telemetry.Recorder
	now      func() time.Time
	epsilon  float64
}

// Option configures a Session.
type Option func(*Session)

// WithParameters sets the initial parameters. They are not validated until
// a measurement uses them.
func WithParameters(p Parameters) Option {
	return func(s *Session) { s.params = p }
}

// WithPlan sets the default sweep plan.
func WithPlan(p sweep.Plan) Option {
	return func(s *Session) { s.plan = p }
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTraceLogger sets the JSONL trace logger. A nil trace logger is valid.
func WithTraceLogger(tl *logging.TraceLogger) Option {
	return func(s *Session) { s.trace = tl }
}

// WithRecorder sets the telemetry recorder.
func WithRecorder(r telemetry.Recorder) Option {
	return func(s *Session) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithClock sets the time source used for data point timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCurrentEpsilon sets the current above which a point counts toward the
// threshold voltage.
func WithCurrentEpsilon(eps float64) Option {
	return func(s *Session) { s.epsilon = eps }
}

// NewSession creates a session recording into store and sampling with sampler.
func NewSession(store dataset.Store, sampler *measure.Sampler, opts ...Option) *Session {
	s := &Session{
		id:       uuid.NewString(),
		store:    store,
		sampler:  sampler,
		params:   DefaultParameters(),
		plan:     sweep.DefaultPlan(),
		logger:   logging.Discard(),
		recorder: telemetry.Noop{},
		now:      time.Now,
		epsilon:  constants.DefaultCurrentEpsilon,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the random identifier of the session.
func (s *Session) ID() string { return s.id }

// Busy reports whether a measurement or sweep is in progress.
func (s *Session) Busy() bool { return s.busy.Load() }

// Parameters returns a copy of the current parameters.
func (s *Session) Parameters() Parameters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

// SetParameters replaces the parameters after validating them.
func (s *Session) SetParameters(p Parameters) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.params = p
	s.mu.Unlock()
	return nil
}

// Update applies fn to a copy of the parameters and stores the result if it
// validates. The parameters are unchanged when an error is returned.
func (s *Session) Update(fn func(*Parameters)) (Parameters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.params
	fn(&p)
	if err := p.Validate(); err != nil {
		return s.params, err
	}
	s.params = p
	return p, nil
}

// Plan returns the default sweep plan.
func (s *Session) Plan() sweep.Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plan
}

// SetPlan replaces the default sweep plan after validating it.
func (s *Session) SetPlan(p sweep.Plan) error {
	if err := p.Validate(); err != nil {
		return &ParameterError{Field: "sweep_plan", Value: p, Reason: err.Error()}
	}
	s.mu.Lock()
	s.plan = p
	s.mu.Unlock()
	return nil
}

// Readout recomputes the derived quantities of the current parameters.
func (s *Session) Readout() (Readout, error) {
	return s.Parameters().Readout()
}

func (s *Session) acquire() error {
	if !s.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

func (s *Session) release() { s.busy.Store(false) }

// Measure takes one aggregated reading at the current voltage and appends it
// to the data set.
func (s *Session) Measure(ctx context.Context) (dataset.DataPoint, error) {
	if err := s.acquire(); err != nil {
		return dataset.DataPoint{}, err
	}
	defer s.release()

	p := s.Parameters()
	cond, err := p.conditions("measure")
	if err != nil {
		return dataset.DataPoint{}, err
	}

	s.logger.Debug("measurement started",
		"material", cond.Material.Name, "wavelength", p.WavelengthNm,
		"voltage", p.VoltageV, "rounds", p.MeasurementRounds)

	stats := s.sampler.SampleRepeated(ctx, cond, p.VoltageV, p.MeasurementRounds)
	dp, err := s.record(ctx, cond, p.VoltageV, stats)
	if err != nil {
		return dataset.DataPoint{}, err
	}

	s.logger.Debug("measurement recorded", "current_na", dp.CurrentNa, "error_na", dp.ErrorNa)
	return dp, nil
}

// SweepResult describes a finished or cancelled sweep.
type SweepResult struct {
	Plan      sweep.Plan          `json:"plan"`
	Total     int                 `json:"total"`
	Points    []dataset.DataPoint `json:"points"`
	Cancelled bool                `json:"cancelled"`
	Elapsed   time.Duration       `json:"elapsed_ns"`
}

// Sweep walks plan with the current parameters, appending one point per step.
// Cancelling ctx stops the sweep between steps; points already taken stay in
// the data set and the result reports Cancelled without an error.
func (s *Session) Sweep(ctx context.Context, plan sweep.Plan, progress func(sweep.Progress)) (*SweepResult, error) {
	if err := s.acquire(); err != nil {
		return nil, err
	}
	defer s.release()

	p := s.Parameters()
	cond, err := p.conditions("sweep")
	if err != nil {
		return nil, err
	}

	ctl := sweep.NewController(
		func(ctx context.Context, v float64, rounds int) measure.Statistics {
			return s.sampler.SampleRepeated(ctx, cond, v, rounds)
		},
		sweep.WithProgress(progress),
		sweep.WithRecorder(s.recorder),
	)
	run, err := ctl.Start(ctx, plan, p.MeasurementRounds)
	if err != nil {
		return nil, &ParameterError{Field: "sweep_plan", Value: plan, Reason: err.Error()}
	}

	start := s.now()
	s.logger.Debug("sweep started",
		"material", cond.Material.Name, "wavelength", p.WavelengthNm,
		"min", plan.MinV, "max", plan.MaxV, "step", plan.StepV, "steps", run.Total())
	s.trace.Log(s.id, logging.EventSweepStarted, map[string]any{
		"min_v": plan.MinV, "max_v": plan.MaxV, "step_v": plan.StepV,
		"steps": run.Total(), "rounds": p.MeasurementRounds,
	})

	res := &SweepResult{Plan: plan, Total: run.Total(), Points: make([]dataset.DataPoint, 0, run.Total())}
	for step, err := range run.Steps() {
		if err != nil {
			return res, err
		}
		dp, err := s.record(ctx, cond, step.VoltageV, step.Stats)
		if err != nil {
			return res, err
		}
		res.Points = append(res.Points, dp)
	}
	res.Cancelled = run.Cancelled()
	res.Elapsed = s.now().Sub(start)

	if res.Cancelled {
		s.logger.Info("sweep cancelled", "completed", len(res.Points), "total", res.Total)
	} else {
		s.logger.Debug("sweep finished", "points", len(res.Points), "elapsed", res.Elapsed)
	}
	s.trace.Log(s.id, logging.EventSweepFinished, map[string]any{
		"points": len(res.Points), "total": res.Total, "cancelled": res.Cancelled,
	})
	return res, nil
}

// record turns stats into a data point and appends it. The store write uses
// a context detached from cancellation so a completed step is never lost.
func (s *Session) record(ctx context.Context, cond measure.Conditions, voltageV float64, stats measure.Statistics) (dataset.DataPoint, error) {
	dp := dataset.DataPoint{
		ID:              uuid.NewString(),
		VoltageV:        voltageV,
		CurrentNa:       stats.Mean,
		ErrorNa:         stats.StandardError,
		WavelengthNm:    cond.WavelengthNm,
		IntensityUwCm2:  cond.IntensityUwCm2,
		Material:        cond.Material.Name,
		Timestamp:       s.now(),
		RawMeasurements: stats.Raw,
	}
	if err := s.store.Append(context.WithoutCancel(ctx), dp); err != nil {
		return dataset.DataPoint{}, fmt.Errorf("recording data point: %w", err)
	}

	s.recorder.MeasurementRecorded(ctx, cond.Material.Name, stats.Count)
	s.trace.Log(s.id, logging.EventMeasurement, map[string]any{
		"material":   dp.Material,
		"wavelength": dp.WavelengthNm,
		"intensity":  dp.IntensityUwCm2,
		"voltage":    dp.VoltageV,
		"current":    dp.CurrentNa,
		"error":      dp.ErrorNa,
		"rounds":     stats.Count,
	})
	return dp, nil
}

// Snapshot returns a point-in-time copy of the data set.
func (s *Session) Snapshot(ctx context.Context) ([]dataset.DataPoint, error) {
	return s.store.Snapshot(ctx)
}

// Groups returns the data set partitioned by (material, wavelength).
func (s *Session) Groups(ctx context.Context) ([]dataset.Group, error) {
	return s.store.Groups(ctx)
}

// Statistics is the derived-statistics view reported to users.
type Statistics struct {
	dataset.Summary
	NoiseLevel float64 `json:"noise_level"`
}

// Statistics computes threshold voltage and correlation over a snapshot.
func (s *Session) Statistics(ctx context.Context) (Statistics, error) {
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return Statistics{}, err
	}
	return Statistics{
		Summary:    dataset.Summarize(snap, s.epsilon),
		NoiseLevel: s.Parameters().NoiseLevel,
	}, nil
}

// Clear empties the data set. It is refused while a measurement is running.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.acquire(); err != nil {
		return err
	}
	defer s.release()

	n, err := s.store.Len(ctx)
	if err != nil {
		return err
	}
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	s.logger.Debug("data set cleared", "points", n)
	s.trace.Log(s.id, logging.EventCleared, map[string]any{"points": n})
	return nil
}

// Close releases the data set and the trace file.
func (s *Session) Close() error {
	s.trace.Close()
	return s.store.Close()
}
