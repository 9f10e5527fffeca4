package mcp

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditFileName is the audit log written inside the photolab state directory.
const AuditFileName = "audit.jsonl"

// AuditEntry records one MCP tool invocation.
type AuditEntry struct {
	Timestamp  time.Time         `json:"timestamp"`
	Tool       string            `json:"tool"`
	Session    string            `json:"session"`
	DurationMs int64             `json:"duration_ms"`
	Status     string            `json:"status"` // "success" or "error"
	Error      string            `json:"error,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
}

// AuditLogger appends entries to a JSONL file. It is safe for concurrent use.
// A nil AuditLogger is safe to use; all methods are no-ops on nil receiver.
type AuditLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewAuditLogger opens dir/audit.jsonl for appending, creating dir if needed.
// On failure a warning is printed to stderr and nil is returned.
func NewAuditLogger(dir string) *AuditLogger {
	if err := os.MkdirAll(dir, 0700); err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot create audit log directory %s: %v\n", dir, err)
		return nil
	}

	path := filepath.Join(dir, AuditFileName)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot open audit log %s: %v\n", path, err)
		return nil
	}
	return &AuditLogger{file: f}
}

// Log appends entry as a single line. Safe to call on nil receiver.
func (a *AuditLogger) Log(entry AuditEntry) {
	if a == nil {
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return
	}
	_, _ = a.file.Write(data)
}

// Close closes the audit file. Safe to call on nil receiver.
func (a *AuditLogger) Close() error {
	if a == nil {
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// sanitizeToolParams reduces tool arguments to loggable strings.
//
// Parameters fall into three groups:
//   - value params: key and value are logged
//   - presence-only params: key is logged with the value "(set)"
//   - anything else: not logged
//
// A "_param_count" key is always included. Nil pointer arguments count as
// not provided.
func sanitizeToolParams(params map[string]any) map[string]string {
	if params == nil {
		return nil
	}

	valueParams := map[string]bool{
		"material":           true,
		"wavelength_nm":      true,
		"intensity_uw_cm2":   true,
		"voltage_v":          true,
		"measurement_rounds": true,
		"noise_level":        true,
		"min_v":              true,
		"max_v":              true,
		"step_v":             true,
		"format":             true,
	}
	presenceOnlyParams := map[string]bool{
		"path": true,
	}

	result := make(map[string]string)
	count := 0
	for key, val := range params {
		s, ok := paramString(val)
		if !ok {
			continue
		}
		count++
		switch {
		case valueParams[key]:
			result[key] = s
		case presenceOnlyParams[key]:
			result[key] = "(set)"
		}
	}
	result["_param_count"] = fmt.Sprintf("%d", count)
	return result
}

// paramString formats v, dereferencing the optional pointer arguments.
// It reports false for nil and empty values.
func paramString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case *string:
		if x == nil {
			return "", false
		}
		return *x, true
	case *float64:
		if x == nil {
			return "", false
		}
		return fmt.Sprintf("%g", *x), true
	case *int:
		if x == nil {
			return "", false
		}
		return fmt.Sprintf("%d", *x), true
	case string:
		return x, x != ""
	default:
		return fmt.Sprintf("%v", x), true
	}
}

// auditTool logs a finished tool invocation.
func (s *Server) auditTool(toolName string, start time.Time, err error, params map[string]string) {
	status := "success"
	errMsg := ""
	if err != nil {
		status = "error"
		errMsg = err.Error()
	}

	elapsed := s.now().Sub(start)
	s.logger.Debug("tool call", "tool", toolName, "status", status, "duration", elapsed)

	s.auditLogger.Log(AuditEntry{
		Timestamp:  start,
		Tool:       toolName,
		Session:    s.session.ID(),
		DurationMs: elapsed.Milliseconds(),
		Status:     status,
		Error:      errMsg,
		Params:     params,
	})
}
