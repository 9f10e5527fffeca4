// Package ratelimit throttles the MCP tools that drive the simulated
// instrument, using one token bucket per tool.
package ratelimit

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

// Tool names guarded by the default limiters.
const (
	ToolMaterials = "photolab_materials"
	ToolConfigure = "photolab_configure"
	ToolReadout   = "photolab_readout"
	ToolMeasure   = "photolab_measure"
	ToolSweep     = "photolab_sweep"
	ToolStats     = "photolab_stats"
	ToolClear     = "photolab_clear"
	ToolExport    = "photolab_export"
)

// ErrRateLimited is matched by every *LimitError.
var ErrRateLimited = errors.New("rate limit exceeded")

// LimitError reports a rejected call and when the next one may succeed.
type LimitError struct {
	Tool       string
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	if e.RetryAfter <= 0 || e.RetryAfter == math.MaxInt64 {
		return fmt.Sprintf("rate limit exceeded for %s, please try again shortly", e.Tool)
	}
	return fmt.Sprintf("rate limit exceeded for %s, retry in %s", e.Tool, e.RetryAfter.Round(time.Millisecond))
}

// Unwrap returns ErrRateLimited.
func (e *LimitError) Unwrap() error { return ErrRateLimited }

// Limiter is a token bucket per key. Every bucket starts full.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64          // tokens per second
	burst   int              // bucket capacity
	nowFunc func() time.Time // injectable clock for testing
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// NewLimiter creates a limiter refilling rate tokens per second up to burst.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// PerMinute creates a limiter allowing n calls per minute with the given burst.
func PerMinute(n float64, burst int) *Limiter {
	return NewLimiter(n/60.0, burst)
}

// Allow takes a token for key and reports whether one was available.
func (l *Limiter) Allow(key string) bool {
	return l.Reserve(key) == 0
}

// Reserve takes a token for key. It returns zero on success, or the time
// until a token will be available. With a zero rate and an empty bucket
// that time is unbounded and math.MaxInt64 is returned.
func (l *Limiter) Reserve(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFunc()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), lastCheck: now}
		l.buckets[key] = b
	}

	if elapsed := now.Sub(b.lastCheck).Seconds(); elapsed > 0 {
		b.tokens = math.Min(float64(l.burst), b.tokens+l.rate*elapsed)
		b.lastCheck = now
	}

	if b.tokens >= 1.0 {
		b.tokens--
		return 0
	}
	if l.rate <= 0 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration((1.0 - b.tokens) / l.rate * float64(time.Second))
}

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters creates the default per-tool limits. Read-only tools are
// generous; tools that run the instrument are tighter, sweeps most of all.
func NewToolLimiters() ToolLimiters {
	return ToolLimiters{
		ToolMaterials: PerMinute(60, 10),
		ToolConfigure: PerMinute(60, 10),
		ToolReadout:   PerMinute(60, 10),
		ToolMeasure:   PerMinute(30, 5),
		ToolSweep:     PerMinute(6, 2),
		ToolStats:     PerMinute(60, 10),
		ToolClear:     PerMinute(10, 2),
		ToolExport:    PerMinute(10, 3),
	}
}

// CheckLimit returns nil if toolName may run now, or a *LimitError.
// Tools without a configured limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}
	if wait := limiter.Reserve(toolName); wait > 0 {
		return &LimitError{Tool: toolName, RetryAfter: wait}
	}
	return nil
}
