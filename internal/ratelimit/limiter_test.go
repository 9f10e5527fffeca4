package ratelimit

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestNewLimiter(t *testing.T) {
	l := NewLimiter(10.0, 5)
	if l == nil {
		t.Fatal("NewLimiter returned nil")
	}
	if l.rate != 10.0 {
		t.Errorf("rate = %f, want 10.0", l.rate)
	}
	if l.burst != 5 {
		t.Errorf("burst = %d, want 5", l.burst)
	}
}

func TestPerMinute(t *testing.T) {
	l := PerMinute(30, 2)
	if l.rate != 0.5 {
		t.Errorf("rate = %f, want 0.5", l.rate)
	}
}

func TestAllow_WithinBurst(t *testing.T) {
	l := NewLimiter(1.0, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow("key1") {
			t.Errorf("request %d should be allowed (within burst)", i+1)
		}
	}
	if l.Allow("key1") {
		t.Error("request after burst exhaustion should be rejected")
	}
}

func TestAllow_RefillAfterWait(t *testing.T) {
	now := time.Now()
	l := NewLimiter(10.0, 2) // 10 tokens/sec
	l.nowFunc = func() time.Time { return now }

	l.Allow("key1")
	l.Allow("key1")
	if l.Allow("key1") {
		t.Error("expected rejection after burst")
	}

	// 200ms at 10/s refills two tokens
	now = now.Add(200 * time.Millisecond)
	if !l.Allow("key1") {
		t.Error("expected allow after token refill")
	}
}

func TestAllow_IndependentKeys(t *testing.T) {
	l := NewLimiter(1.0, 1)

	l.Allow("key1")
	if l.Allow("key1") {
		t.Error("key1 should be exhausted")
	}
	if !l.Allow("key2") {
		t.Error("key2 should be allowed (independent bucket)")
	}
}

func TestAllow_BurstDoesNotExceedMax(t *testing.T) {
	now := time.Now()
	l := NewLimiter(100.0, 3)
	l.nowFunc = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		l.Allow("key1")
	}

	// Would refill 1000 tokens uncapped
	now = now.Add(10 * time.Second)

	for i := 0; i < 3; i++ {
		if !l.Allow("key1") {
			t.Errorf("request %d should be allowed after refill capped at burst", i+1)
		}
	}
	if l.Allow("key1") {
		t.Error("4th request should be rejected (burst cap)")
	}
}

func TestReserve_ReportsWait(t *testing.T) {
	now := time.Now()
	l := NewLimiter(2.0, 1) // one token every 500ms
	l.nowFunc = func() time.Time { return now }

	if wait := l.Reserve("k"); wait != 0 {
		t.Fatalf("first reserve wait = %v, want 0", wait)
	}
	if wait := l.Reserve("k"); wait != 500*time.Millisecond {
		t.Errorf("wait = %v, want 500ms", wait)
	}

	now = now.Add(250 * time.Millisecond)
	if wait := l.Reserve("k"); wait != 250*time.Millisecond {
		t.Errorf("wait after partial refill = %v, want 250ms", wait)
	}
}

func TestReserve_ZeroRate(t *testing.T) {
	l := NewLimiter(0.0, 2)

	if !l.Allow("key1") || !l.Allow("key1") {
		t.Fatal("initial burst should be allowed")
	}
	if wait := l.Reserve("key1"); wait != time.Duration(math.MaxInt64) {
		t.Errorf("wait = %v, want unbounded", wait)
	}
}

func TestAllow_ConcurrentAccess(t *testing.T) {
	l := NewLimiter(1000.0, 100)

	var wg sync.WaitGroup
	allowed := make(chan bool, 200)

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.Allow("concurrent-key")
		}()
	}

	wg.Wait()
	close(allowed)

	allowedCount := 0
	for a := range allowed {
		if a {
			allowedCount++
		}
	}

	// Roughly the burst, with slack for refill during the run
	if allowedCount < 90 || allowedCount > 110 {
		t.Errorf("allowed %d requests, expected ~100 (burst limit)", allowedCount)
	}
}

func TestNewToolLimiters(t *testing.T) {
	limiters := NewToolLimiters()

	for _, tool := range []string{
		ToolMaterials, ToolConfigure, ToolReadout, ToolMeasure,
		ToolSweep, ToolStats, ToolClear, ToolExport,
	} {
		if _, ok := limiters[tool]; !ok {
			t.Errorf("missing limiter for %s", tool)
		}
	}
}

func TestToolRateLimits(t *testing.T) {
	tests := []struct {
		name      string
		tool      string
		wantBurst int
	}{
		{"measure burst", ToolMeasure, 5},
		{"sweep burst", ToolSweep, 2},
		{"clear burst", ToolClear, 2},
		{"export burst", ToolExport, 3},
		{"readout burst", ToolReadout, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiters := NewToolLimiters()
			l := limiters[tt.tool]
			now := time.Now()
			l.nowFunc = func() time.Time { return now }

			for i := 0; i < tt.wantBurst; i++ {
				if !l.Allow(tt.tool) {
					t.Fatalf("request %d should be allowed", i+1)
				}
			}
			if l.Allow(tt.tool) {
				t.Errorf("request %d should be rejected", tt.wantBurst+1)
			}
		})
	}
}

func TestCheckLimit(t *testing.T) {
	limiters := NewToolLimiters()
	now := time.Now()
	limiters[ToolSweep].nowFunc = func() time.Time { return now }

	if err := CheckLimit(limiters, ToolSweep); err != nil {
		t.Errorf("unexpected error for first sweep: %v", err)
	}
	CheckLimit(limiters, ToolSweep)

	err := CheckLimit(limiters, ToolSweep)
	if err == nil {
		t.Fatal("expected rate limit error after burst")
	}
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("error should match ErrRateLimited: %v", err)
	}
	var le *LimitError
	if !errors.As(err, &le) {
		t.Fatalf("error should be *LimitError, got %T", err)
	}
	if le.Tool != ToolSweep || le.RetryAfter != 10*time.Second {
		t.Errorf("LimitError = %+v, want tool %s retry 10s", le, ToolSweep)
	}
	if !strings.Contains(err.Error(), "retry in 10s") {
		t.Errorf("error message = %q", err.Error())
	}

	if err := CheckLimit(limiters, "unknown_tool"); err != nil {
		t.Errorf("unknown tool should not be limited: %v", err)
	}
}
