package testutil

import (
	"context"
	"log/slog"
	"sync"
)

// === Log Handler Mock ===

// RecordingHandler is a slog.Handler that keeps every record for assertions.
type RecordingHandler struct {
	mu      sync.Mutex
	Records []slog.Record
}

// NewRecordingLogger returns a logger writing to a fresh RecordingHandler.
func NewRecordingLogger() (*slog.Logger, *RecordingHandler) {
	h := &RecordingHandler{}
	return slog.New(h), h
}

// Enabled implements slog.Handler; every level is recorded.
func (h *RecordingHandler) Enabled(context.Context, slog.Level) bool { return true }

// Handle implements slog.Handler.
func (h *RecordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Records = append(h.Records, r.Clone())
	return nil
}

// WithAttrs implements slog.Handler. Attributes are not tracked.
func (h *RecordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

// WithGroup implements slog.Handler. Groups are not tracked.
func (h *RecordingHandler) WithGroup(string) slog.Handler { return h }

// Messages returns the messages logged at level.
func (h *RecordingHandler) Messages(level slog.Level) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, r := range h.Records {
		if r.Level == level {
			out = append(out, r.Message)
		}
	}
	return out
}

// Attr returns the value of key on the first record with message msg.
func (h *RecordingHandler) Attr(msg, key string) (slog.Value, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.Records {
		if r.Message != msg {
			continue
		}
		var (
			val   slog.Value
			found bool
		)
		r.Attrs(func(a slog.Attr) bool {
			if a.Key == key {
				val, found = a.Value, true
				return false
			}
			return true
		})
		if found {
			return val, true
		}
	}
	return slog.Value{}, false
}
