package migrate

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports how many entities have been copied so far.
type ProgressTracker struct {
	writer         io.Writer
	label          string
	total          int
	copied         int
	reportInterval int
	lastReported   int
	startTime      time.Time
	started        bool
	mu             sync.Mutex
}

// NewProgressTracker creates a tracker that writes a line to writer every
// reportInterval entities. A nil writer discards output.
func NewProgressTracker(writer io.Writer, label string, total, reportInterval int) *ProgressTracker {
	if writer == nil {
		writer = io.Discard
	}
	if reportInterval <= 0 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		label:          label,
		total:          total,
		reportInterval: reportInterval,
	}
}

// Start resets the counters and the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.startTime = time.Now()
	p.started = true
	p.copied = 0
	p.lastReported = 0
}

// Add records n more copied entities.
func (p *ProgressTracker) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.copied = min(p.copied+n, p.total)
	if p.copied-p.lastReported >= p.reportInterval {
		p.report()
		p.lastReported = p.copied
	}
}

// Copied returns the number of entities recorded so far.
func (p *ProgressTracker) Copied() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.copied
}

// Finish prints the final line. The count is left as is so an aborted copy
// reports what actually made it across.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return
	}

	p.report()
	fmt.Fprintln(p.writer)
}

// Elapsed returns the time since Start.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return 0
	}
	return time.Since(p.startTime)
}

// report must be called with the lock held.
func (p *ProgressTracker) report() {
	rate := 0.0
	if elapsed := time.Since(p.startTime).Seconds(); elapsed > 0 {
		rate = float64(p.copied) / elapsed
	}

	percentage := 100.0
	if p.total > 0 {
		percentage = float64(p.copied) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\r%s: %d/%d (%.1f%%) - %.1f entities/s",
		p.label, p.copied, p.total, percentage, rate)
}
