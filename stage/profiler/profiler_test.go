package profiler

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingHandler captures log records so tests can inspect what a tick
// reported.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

func TestTickReportsAfterInterval(t *testing.T) {
	h := &recordingHandler{}
	p := NewProfiler(
		WithUpdateInterval(50*time.Millisecond),
		WithLogger(slog.New(h)),
	)

	require.False(t, p.Tick())
	require.Zero(t, h.len())

	time.Sleep(60 * time.Millisecond)
	require.True(t, p.Tick())
	require.Equal(t, 1, h.len())

	keys := map[string]bool{}
	h.records[0].Attrs(func(a slog.Attr) bool {
		keys[a.Key] = true
		return true
	})
	assert.Contains(t, keys, "fps")
	assert.Contains(t, keys, "heap_mb")
	assert.Contains(t, keys, "gc_count")

	// The window restarts after each report.
	assert.False(t, p.Tick())
	assert.Equal(t, 1, h.len())
}

func TestWithUpdateIntervalIgnoresNonPositive(t *testing.T) {
	p := NewProfiler(WithUpdateInterval(0))
	assert.Equal(t, 1*time.Second, p.updateInterval)

	p = NewProfiler(WithUpdateInterval(-5 * time.Millisecond))
	assert.Equal(t, 1*time.Second, p.updateInterval)
}

func TestSetLoggerNilKeepsTicking(t *testing.T) {
	p := NewProfiler(WithUpdateInterval(time.Millisecond))
	p.SetLogger(nil)

	time.Sleep(2 * time.Millisecond)
	assert.NotPanics(t, func() { p.Tick() })
}
