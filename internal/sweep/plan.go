// Package sweep walks an ordered voltage range, taking one aggregated
// measurement per step and reporting progress as it goes.
package sweep

import (
	"errors"
	"fmt"
	"math"

	"github.com/nvandessel/photolab/internal/constants"
)

// ErrInvalidPlan is returned by Plan.Validate for unusable bounds.
var ErrInvalidPlan = errors.New("invalid sweep plan")

// stepTolerance absorbs float error when counting steps so that an
// inclusive upper bound such as 2.0 is not lost to 1.9999999999.
const stepTolerance = 1e-9

// Plan is an inclusive voltage range walked in fixed increments.
type Plan struct {
	MinV  float64 `json:"min_v" yaml:"min_v"`
	MaxV  float64 `json:"max_v" yaml:"max_v"`
	StepV float64 `json:"step_v" yaml:"step_v"`
}

// DefaultPlan returns the bench default of -3 V to 2 V in 0.1 V steps.
func DefaultPlan() Plan {
	return Plan{
		MinV:  constants.DefaultSweepMinV,
		MaxV:  constants.DefaultSweepMaxV,
		StepV: constants.DefaultSweepStepV,
	}
}

// Validate checks that the plan describes a finite, ascending walk whose
// steps survive rounding to the sweep resolution.
func (p Plan) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{{"min", p.MinV}, {"max", p.MaxV}, {"step", p.StepV}} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s voltage must be finite", ErrInvalidPlan, f.name)
		}
	}
	if p.StepV <= 0 {
		return fmt.Errorf("%w: step must be positive, got %g", ErrInvalidPlan, p.StepV)
	}
	if p.StepV < constants.SweepResolutionV-stepTolerance {
		return fmt.Errorf("%w: step %g is finer than the %g V resolution",
			ErrInvalidPlan, p.StepV, constants.SweepResolutionV)
	}
	if p.MaxV < p.MinV {
		return fmt.Errorf("%w: max %g is below min %g", ErrInvalidPlan, p.MaxV, p.MinV)
	}
	if math.Abs(p.MinV) > constants.MaxSweepAbsVoltageV || math.Abs(p.MaxV) > constants.MaxSweepAbsVoltageV {
		return fmt.Errorf("%w: bounds must lie within ±%g V", ErrInvalidPlan, constants.MaxSweepAbsVoltageV)
	}
	// Counted in float64 so the int conversion in Len cannot overflow.
	if steps := math.Floor((p.MaxV-p.MinV)/p.StepV+stepTolerance) + 1; steps > constants.MaxSweepSteps {
		return fmt.Errorf("%w: %.0f steps exceeds the limit of %d",
			ErrInvalidPlan, steps, constants.MaxSweepSteps)
	}
	return nil
}

// Len returns the number of steps in the plan. Invalid plans have zero steps.
func (p Plan) Len() int {
	if p.Validate() != nil {
		return 0
	}
	return int(math.Floor((p.MaxV-p.MinV)/p.StepV+stepTolerance)) + 1
}

// Voltages returns the ascending voltages of the plan. Each value is computed
// from its index rather than by repeated addition and is rounded to one
// decimal place, so keys built from it never drift.
func (p Plan) Voltages() []float64 {
	n := p.Len()
	out := make([]float64, n)
	for i := range n {
		out[i] = RoundVoltage(p.MinV + float64(i)*p.StepV)
	}
	return out
}

// RoundVoltage rounds v to the sweep resolution.
func RoundVoltage(v float64) float64 {
	scale := 1 / constants.SweepResolutionV
	return math.Round(v*scale) / scale
}
