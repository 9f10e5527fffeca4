package sweep

import (
	"context"
	"errors"
	"iter"
	"sync"
	"time"

	"github.com/nvandessel/photolab/internal/measure"
	"github.com/nvandessel/photolab/internal/telemetry"
)

// ErrRunConsumed is yielded when a one-shot Run is iterated a second time.
var ErrRunConsumed = errors.New("sweep run already consumed")

// MeasureFunc takes one aggregated reading at voltageV.
type MeasureFunc func(ctx context.Context, voltageV float64, rounds int) measure.Statistics

// Step is one completed point of a sweep.
type Step struct {
	Index    int                `json:"index"`
	Total    int                `json:"total"`
	VoltageV float64            `json:"voltage"`
	Stats    measure.Statistics `json:"stats"`
}

// Progress is emitted after each step has been handed to the consumer.
type Progress struct {
	Index    int     `json:"index"`
	Total    int     `json:"total"`
	VoltageV float64 `json:"voltage"`
	Fraction float64 `json:"fraction"`
}

// Controller starts sweeps over a measurement function.
type Controller struct {
	measure  MeasureFunc
	progress func(Progress)
	recorder telemetry.Recorder
	now      func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithProgress registers a callback invoked once per completed step.
func WithProgress(fn func(Progress)) Option {
	return func(c *Controller) { c.progress = fn }
}

// WithRecorder sets the telemetry recorder.
func WithRecorder(r telemetry.Recorder) Option {
	return func(c *Controller) {
		if r != nil {
			c.recorder = r
		}
	}
}

// NewController creates a Controller that measures each step with fn.
func NewController(fn MeasureFunc, opts ...Option) *Controller {
	c := &Controller{
		measure:  fn,
		recorder: telemetry.Noop{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start validates plan and returns a Run ready to be iterated. Rounds is
// captured here, so later parameter changes do not affect the run.
func (c *Controller) Start(ctx context.Context, plan Plan, rounds int) (*Run, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &Run{
		ctl:      c,
		ctx:      ctx,
		voltages: plan.Voltages(),
		rounds:   rounds,
	}, nil
}

// Run is a single pass over a sweep plan. It can be iterated only once.
type Run struct {
	ctl      *Controller
	ctx      context.Context
	voltages []float64
	rounds   int

	mu        sync.Mutex
	consumed  bool
	cancelled bool
	completed int
}

// Total returns the number of steps the run would take if not cancelled.
func (r *Run) Total() int { return len(r.voltages) }

// Rounds returns the number of samples taken per step.
func (r *Run) Rounds() int { return r.rounds }

// Completed returns how many steps have been yielded so far.
func (r *Run) Completed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completed
}

// Cancelled reports whether the run stopped early because its context ended.
func (r *Run) Cancelled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}

// Steps returns the lazy, ascending sequence of sweep steps. The context is
// checked between steps only; a step that has started always completes.
// Cancellation ends the sequence without an error. Iterating a second time
// yields a single ErrRunConsumed.
func (r *Run) Steps() iter.Seq2[Step, error] {
	return func(yield func(Step, error) bool) {
		r.mu.Lock()
		if r.consumed {
			r.mu.Unlock()
			yield(Step{}, ErrRunConsumed)
			return
		}
		r.consumed = true
		r.mu.Unlock()

		ctl := r.ctl
		start := ctl.now()
		total := len(r.voltages)
		cancelled := false
		defer func() {
			ctl.recorder.SweepFinished(r.ctx, r.Completed(), ctl.now().Sub(start), cancelled)
		}()

		for i, v := range r.voltages {
			if r.ctx.Err() != nil {
				cancelled = true
				r.mu.Lock()
				r.cancelled = true
				r.mu.Unlock()
				return
			}

			stats := ctl.measure(r.ctx, v, r.rounds)
			ctl.recorder.SweepStep(r.ctx)

			r.mu.Lock()
			r.completed = i + 1
			r.mu.Unlock()

			if !yield(Step{Index: i, Total: total, VoltageV: v, Stats: stats}, nil) {
				return
			}
			if ctl.progress != nil {
				ctl.progress(Progress{
					Index:    i,
					Total:    total,
					VoltageV: v,
					Fraction: float64(i+1) / float64(total),
				})
			}
		}
	}
}
