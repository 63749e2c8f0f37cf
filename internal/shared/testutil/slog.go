package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

// CapturedLog is one log record captured by a LogRecorder.
type CapturedLog struct {
	Time    time.Time
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// LogRecorder is a slog.Handler that keeps every record in memory so
// tests can assert on what was logged.
type LogRecorder struct {
	store *logStore
	attrs []slog.Attr
	t     *testing.T
}

type logStore struct {
	mu   sync.Mutex
	logs []CapturedLog
}

// NewTestLogger returns a logger whose records are captured by the
// returned recorder and echoed to the test log.
func NewTestLogger(t *testing.T) (*slog.Logger, *LogRecorder) {
	rec := &LogRecorder{store: &logStore{}, t: t}
	return slog.New(rec), rec
}

// Enabled implements slog.Handler. Tests capture every level.
func (r *LogRecorder) Enabled(context.Context, slog.Level) bool { return true }

// Handle implements slog.Handler.
func (r *LogRecorder) Handle(_ context.Context, rec slog.Record) error {
	attrs := make(map[string]any, rec.NumAttrs()+len(r.attrs))
	for _, a := range r.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	rec.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	r.store.mu.Lock()
	r.store.logs = append(r.store.logs, CapturedLog{
		Time:    rec.Time,
		Level:   rec.Level,
		Message: rec.Message,
		Attrs:   attrs,
	})
	r.store.mu.Unlock()

	if r.t != nil {
		r.t.Logf("[%s] %s %v", rec.Level, rec.Message, attrs)
	}
	return nil
}

// WithAttrs implements slog.Handler. The child shares the parent's
// record store.
func (r *LogRecorder) WithAttrs(attrs []slog.Attr) slog.Handler {
	child := &LogRecorder{store: r.store, t: r.t}
	child.attrs = append(append([]slog.Attr{}, r.attrs...), attrs...)
	return child
}

// WithGroup implements slog.Handler. Groups are flattened; tests match
// on leaf keys.
func (r *LogRecorder) WithGroup(string) slog.Handler { return r }

// Records returns a copy of every captured record.
func (r *LogRecorder) Records() []CapturedLog {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	logs := make([]CapturedLog, len(r.store.logs))
	copy(logs, r.store.logs)
	return logs
}

// Count returns the number of captured records.
func (r *LogRecorder) Count() int {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return len(r.store.logs)
}

// CountByLevel returns the number of captured records at the given level.
func (r *LogRecorder) CountByLevel(level slog.Level) int {
	n := 0
	for _, rec := range r.Records() {
		if rec.Level == level {
			n++
		}
	}
	return n
}

// HasMessage reports whether any captured message contains substr.
func (r *LogRecorder) HasMessage(substr string) bool {
	for _, rec := range r.Records() {
		if strings.Contains(rec.Message, substr) {
			return true
		}
	}
	return false
}

// HasAttr reports whether any captured record carries the attribute.
func (r *LogRecorder) HasAttr(key string, value any) bool {
	for _, rec := range r.Records() {
		if v, ok := rec.Attrs[key]; ok && v == value {
			return true
		}
	}
	return false
}

// AssertNoErrors fails the test when any error-level record was captured.
func AssertNoErrors(t *testing.T, rec *LogRecorder) {
	t.Helper()

	for _, r := range rec.Records() {
		if r.Level == slog.LevelError {
			t.Errorf("unexpected error log: %s %v", r.Message, r.Attrs)
		}
	}
}
