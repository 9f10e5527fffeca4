package logging

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TraceFileName is the JSONL file written inside the trace directory.
const TraceFileName = "trace.jsonl"

// Event kinds written by the experiment session.
const (
	EventMeasurement   = "measurement"
	EventSweepStarted  = "sweep_started"
	EventSweepFinished = "sweep_finished"
	EventCleared       = "cleared"
)

// TraceEvent is one line of the measurement trace.
type TraceEvent struct {
	Time    time.Time      `json:"time"`
	Session string         `json:"session"`
	Kind    string         `json:"kind"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// TraceLogger appends measurement events to a JSONL file for offline review.
// It is safe for concurrent use. A nil TraceLogger is safe to use;
// all methods are no-ops on nil receiver.
type TraceLogger struct {
	mu   sync.Mutex
	file *os.File
	now  func() time.Time
}

// NewTraceLogger creates a trace logger writing to dir/trace.jsonl.
// At "info" level (the default) or above, returns nil and no file is created.
// At "debug" or "trace" level, the file is opened for append.
// Returns nil if the file cannot be opened. All methods are nil-safe.
func NewTraceLogger(dir string, level string) *TraceLogger {
	if ParseLevel(level) > slog.LevelDebug {
		return nil
	}

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil
	}

	path := filepath.Join(dir, TraceFileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil
	}

	return &TraceLogger{file: f, now: time.Now}
}

// Log writes one event. The caller's fields map is copied, not retained.
// Safe to call on nil receiver.
func (tl *TraceLogger) Log(session, kind string, fields map[string]any) {
	if tl == nil {
		return
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.file == nil {
		return
	}

	ev := TraceEvent{
		Time:    tl.now().UTC(),
		Session: session,
		Kind:    kind,
	}
	if len(fields) > 0 {
		ev.Fields = make(map[string]any, len(fields))
		for k, v := range fields {
			ev.Fields[k] = v
		}
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	data = append(data, '\n')
	_, _ = tl.file.Write(data)
}

// Close closes the underlying file. Safe to call on nil receiver.
func (tl *TraceLogger) Close() {
	if tl == nil {
		return
	}

	tl.mu.Lock()
	defer tl.mu.Unlock()

	if tl.file != nil {
		tl.file.Close()
		tl.file = nil
	}
}
