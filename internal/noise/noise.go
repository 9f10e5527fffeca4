// Package noise injects bounded pseudo-random perturbation into ideal
// photocurrent samples.
package noise

import (
	"math"
	"math/rand/v2"
	"sync"

	"github.com/nvandessel/photolab/internal/constants"
)

// Source yields uniform values in [0, 1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// NewSource returns a deterministic source for the given seed.
func NewSource(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Apply perturbs an ideal current by a uniform draw scaled by level and by
// max(0.01, ideal), then clamps the result at zero. It never fails; a level of
// zero returns the ideal current unchanged (after the clamp).
func Apply(idealCurrentNa, level float64, src Source) float64 {
	u := src.Float64()
	perturbation := (u - 0.5) * 2 * level * math.Max(constants.NoiseMagnitudeFloor, idealCurrentNa)
	return math.Max(0, idealCurrentNa+perturbation)
}

// Locked wraps a Source with a mutex so that one seeded stream can be shared
// by the MCP and HTTP surfaces of a single session.
type Locked struct {
	mu  sync.Mutex
	src Source
}

// NewLocked wraps src.
func NewLocked(src Source) *Locked {
	return &Locked{src: src}
}

// Float64 returns the next value of the wrapped source.
func (l *Locked) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Float64()
}

// Replay is a Source that cycles through a fixed list of values. It is used to
// pin noise draws in tests and demos. An empty Replay always yields 0.5, the
// zero-perturbation draw.
type Replay struct {
	values []float64
	next   int
}

// NewReplay returns a Replay over values.
func NewReplay(values ...float64) *Replay {
	return &Replay{values: values}
}

// Float64 returns the next value, wrapping around at the end.
func (r *Replay) Float64() float64 {
	if len(r.values) == 0 {
		return 0.5
	}
	v := r.values[r.next%len(r.values)]
	r.next++
	return v
}
