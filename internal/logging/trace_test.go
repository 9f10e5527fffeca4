package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func readTraceEvents(t *testing.T, path string) []TraceEvent {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open trace file: %v", err)
	}
	defer f.Close()

	var events []TraceEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev TraceEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("unmarshal line %q: %v", scanner.Text(), err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan trace file: %v", err)
	}
	return events
}

func TestNewTraceLogger_InfoLevelReturnsNil(t *testing.T) {
	dir := t.TempDir()
	for _, level := range []string{"info", "warn", ""} {
		if tl := NewTraceLogger(dir, level); tl != nil {
			t.Errorf("NewTraceLogger(%q) = non-nil, want nil", level)
			tl.Close()
		}
	}

	if _, err := os.Stat(filepath.Join(dir, TraceFileName)); !os.IsNotExist(err) {
		t.Errorf("trace file should not exist at info level, stat err = %v", err)
	}
}

func TestTraceLogger_WritesAtDebugAndTrace(t *testing.T) {
	for _, level := range []string{"debug", "trace"} {
		t.Run(level, func(t *testing.T) {
			dir := t.TempDir()
			tl := NewTraceLogger(dir, level)
			if tl == nil {
				t.Fatalf("NewTraceLogger(%q) returned nil", level)
			}

			tl.Log("s-1", EventMeasurement, map[string]any{"voltage": 0.5, "material": "Cesium"})
			tl.Close()

			events := readTraceEvents(t, filepath.Join(dir, TraceFileName))
			if len(events) != 1 {
				t.Fatalf("got %d events, want 1", len(events))
			}
			ev := events[0]
			if ev.Session != "s-1" || ev.Kind != EventMeasurement {
				t.Errorf("event = %+v, want session s-1 kind %s", ev, EventMeasurement)
			}
			if ev.Fields["material"] != "Cesium" {
				t.Errorf("material field = %v, want Cesium", ev.Fields["material"])
			}
			if ev.Time.IsZero() {
				t.Error("event time should be set")
			}
		})
	}
}

func TestTraceLogger_MultipleWrites(t *testing.T) {
	dir := t.TempDir()
	tl := NewTraceLogger(dir, "debug")
	if tl == nil {
		t.Fatal("NewTraceLogger returned nil")
	}

	kinds := []string{EventSweepStarted, EventMeasurement, EventMeasurement, EventSweepFinished, EventCleared}
	for _, k := range kinds {
		tl.Log("s-2", k, nil)
	}
	tl.Close()

	events := readTraceEvents(t, filepath.Join(dir, TraceFileName))
	if len(events) != len(kinds) {
		t.Fatalf("got %d events, want %d", len(events), len(kinds))
	}
	for i, ev := range events {
		if ev.Kind != kinds[i] {
			t.Errorf("event %d kind = %q, want %q", i, ev.Kind, kinds[i])
		}
		if ev.Fields != nil {
			t.Errorf("event %d fields = %v, want nil", i, ev.Fields)
		}
	}
}

func TestTraceLogger_NilSafe(t *testing.T) {
	var tl *TraceLogger
	tl.Log("s", EventCleared, map[string]any{"points": 3})
	tl.Close()
}

func TestTraceLogger_DoesNotRetainCallerMap(t *testing.T) {
	dir := t.TempDir()
	tl := NewTraceLogger(dir, "debug")
	if tl == nil {
		t.Fatal("NewTraceLogger returned nil")
	}

	fields := map[string]any{"voltage": 1.0}
	tl.Log("s-3", EventMeasurement, fields)
	fields["voltage"] = 99.0
	fields["extra"] = true
	tl.Close()

	events := readTraceEvents(t, filepath.Join(dir, TraceFileName))
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if got := events[0].Fields["voltage"]; got != 1.0 {
		t.Errorf("voltage = %v, want 1", got)
	}
	if _, ok := events[0].Fields["extra"]; ok {
		t.Error("extra key leaked into written event")
	}
	if len(fields) != 2 {
		t.Errorf("caller map mutated, len = %d", len(fields))
	}
}

func TestTraceLogger_LogAfterClose(t *testing.T) {
	dir := t.TempDir()
	tl := NewTraceLogger(dir, "debug")
	if tl == nil {
		t.Fatal("NewTraceLogger returned nil")
	}

	tl.Log("s-4", EventMeasurement, nil)
	tl.Close()
	tl.Log("s-4", EventMeasurement, nil)
	tl.Close()

	events := readTraceEvents(t, filepath.Join(dir, TraceFileName))
	if len(events) != 1 {
		t.Errorf("got %d events, want 1", len(events))
	}
}

func TestTraceLogger_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "photolab")
	tl := NewTraceLogger(dir, "trace")
	if tl == nil {
		t.Fatal("NewTraceLogger returned nil")
	}
	defer tl.Close()

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected a directory")
	}
}

func TestTraceLogger_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	tl := NewTraceLogger(dir, "debug")
	if tl == nil {
		t.Fatal("NewTraceLogger returned nil")
	}
	tl.Log("s-5", EventMeasurement, nil)
	tl.Close()

	info, err := os.Stat(filepath.Join(dir, TraceFileName))
	if err != nil {
		t.Fatalf("stat trace file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file permissions = %o, want 0600", perm)
	}
}
