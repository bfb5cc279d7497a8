package ingestion

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker renders pipeline progress to a writer, typically
// os.Stderr during CLI runs. Its Observe method matches ProgressFunc so
// it can be wired straight into Params.OnProgress.
type ProgressTracker struct {
	writer         io.Writer
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgressTracker creates a new progress tracker.
// writer: where to write progress output (typically os.Stderr)
// reportInterval: report progress every N processed records
func NewProgressTracker(writer io.Writer, reportInterval int) *ProgressTracker {
	if reportInterval < 1 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		reportInterval: reportInterval,
	}
}

// Start begins tracking progress.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.lastReported = 0
}

// Observe records one progress update and reports when the processed
// count has advanced by at least the report interval.
func (p *ProgressTracker) Observe(progress float64, processed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	if processed-p.lastReported >= p.reportInterval {
		p.report(progress, processed, total)
		p.lastReported = processed
	}
}

// Finish prints the final progress line for a completed run.
func (p *ProgressTracker) Finish(processed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.report(100, processed, total)
	fmt.Fprintln(p.writer) // Print newline after final progress
}

// Elapsed returns the time elapsed since Start was called.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}

	return time.Since(p.startTime)
}

// report prints the current progress. Must be called with lock held.
func (p *ProgressTracker) report(progress float64, processed, total int) {
	elapsed := time.Since(p.startTime)
	rate := float64(processed) / elapsed.Seconds()

	fmt.Fprintf(p.writer, "\rProgress: %d/%d (%.1f%%) - %.1f materials/s",
		processed, total, progress, rate)
}
