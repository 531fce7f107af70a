// Package profiler provides a lightweight frame profiler that periodically
// samples frame rate, heap usage, allocation rate, and garbage collector pause
// times. It is driven by calling Tick once per rendered frame and emits one
// structured log record per update interval, keeping the sampling cost away
// from the hot path.
package profiler

import (
	"log/slog"
	"runtime"
	"time"
)

// Profiler accumulates per-frame statistics and reports them at a fixed
// interval. It is not safe for concurrent use; Tick is expected to be called
// from a single render goroutine.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64

	logger *slog.Logger
}

// ProfilerOption is a functional option for configuring a Profiler.
type ProfilerOption func(*Profiler)

// WithUpdateInterval overrides how often the profiler emits a report. Values
// of zero or below are ignored.
//
// Parameters:
//   - interval: the minimum duration between reports.
func WithUpdateInterval(interval time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.updateInterval = interval
		}
	}
}

// WithLogger sets the logger that reports are written to. When no logger is
// configured the profiler falls back to slog.Default at report time.
//
// Parameters:
//   - l: the logger to emit reports through.
func WithLogger(l *slog.Logger) ProfilerOption {
	return func(p *Profiler) {
		p.logger = l
	}
}

// NewProfiler creates a profiler that reports once per second unless
// configured otherwise.
//
// Parameters:
//   - options: optional functional options applied to the profiler.
//
// Returns:
//   - *Profiler: the configured profiler.
func NewProfiler(options ...ProfilerOption) *Profiler {
	p := &Profiler{
		lastTime:       time.Now(),
		updateInterval: 1 * time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// SetLogger replaces the logger reports are written to. Passing nil restores
// the slog.Default fallback.
//
// Parameters:
//   - l: the logger to emit reports through, or nil.
func (p *Profiler) SetLogger(l *slog.Logger) {
	p.logger = l
}

// Tick records one rendered frame and, once the update interval has elapsed,
// emits a report covering the frames since the previous one. The report
// includes the average frame rate, heap size, allocation throughput, and the
// most recent and worst garbage collector pauses observed in the window.
//
// Returns:
//   - bool: true when a report was emitted on this call.
func (p *Profiler) Tick() bool {
	p.frameCount++

	now := time.Now()
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	fps := float64(p.frameCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocRate := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses, indexed by the
	// total GC count. Scan only the pauses that happened in this window.
	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		lastPauseUs = p.memStats.PauseNs[(gcCount+255)%256] / 1000
		startIdx := p.lastGCCount
		if gcCount > 256 && startIdx < gcCount-256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	lg := p.logger
	if lg == nil {
		lg = slog.Default()
	}
	lg.Info("frame stats",
		"fps", fps,
		"heap_mb", allocMB,
		"alloc_rate_mb_s", allocRate,
		"gc_count", gcCount,
		"gc_last_us", lastPauseUs,
		"gc_max_us", maxPauseUs,
		"sys_mb", sysMB,
	)

	p.frameCount = 0
	p.lastTime = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc

	return true
}
