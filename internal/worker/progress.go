package worker

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const barWidth = 30

// Progress prints a single-line frame counter with throughput and ETA.
// Its Callback plugs into Config.OnProgress.
type Progress struct {
	startTime time.Time
	output    io.Writer
	total     int
	completed int
	failed    int
	mu        sync.RWMutex
	enabled   bool
}

// snapshot is a consistent copy of the counters taken under the lock.
type snapshot struct {
	elapsed   time.Duration
	total     int
	completed int
	failed    int
}

func (s snapshot) rate() float64 {
	if s.completed == 0 || s.elapsed <= 0 {
		return 0
	}
	return float64(s.completed) / s.elapsed.Seconds()
}

func (s snapshot) eta() time.Duration {
	r := s.rate()
	if r == 0 || s.completed >= s.total {
		return 0
	}
	return time.Duration(float64(s.total-s.completed)/r) * time.Second
}

func (s snapshot) bar() string {
	filled := 0
	if s.total > 0 {
		filled = min(barWidth, s.completed*barWidth/s.total)
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

// NewProgress creates a tracker for total frames. A disabled tracker still
// counts, so Summary works either way.
func NewProgress(total int, enabled bool) *Progress {
	return &Progress{
		total:     total,
		startTime: time.Now(),
		output:    os.Stderr,
		enabled:   enabled,
	}
}

// SetOutput redirects the progress line, which goes to stderr by default.
func (p *Progress) SetOutput(w io.Writer) {
	p.mu.Lock()
	p.output = w
	p.mu.Unlock()
}

// Update stores the pool's counters and redraws the line when enabled.
func (p *Progress) Update(completed, total, failed int) {
	p.mu.Lock()
	p.completed, p.total, p.failed = completed, total, failed
	p.mu.Unlock()

	if p.enabled {
		p.Print()
	}
}

// Callback adapts Update to a ProgressFunc.
func (p *Progress) Callback() ProgressFunc {
	return p.Update
}

func (p *Progress) snapshot() (snapshot, io.Writer) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return snapshot{
		elapsed:   time.Since(p.startTime),
		total:     p.total,
		completed: p.completed,
		failed:    p.failed,
	}, p.output
}

// Print redraws the progress line in place.
func (p *Progress) Print() {
	s, out := p.snapshot()

	var b strings.Builder
	fmt.Fprintf(&b, "\r[%s] %d/%d frames", s.bar(), s.completed, s.total)
	if s.failed > 0 {
		fmt.Fprintf(&b, " (%d failed)", s.failed)
	}
	fmt.Fprintf(&b, " - %.1f frames/sec", s.rate())
	switch {
	case s.completed >= s.total:
		fmt.Fprintf(&b, " - Done in %s", formatDuration(s.elapsed))
	case s.eta() > 0:
		fmt.Fprintf(&b, " - ETA: %s", formatDuration(s.eta()))
	}
	// Overwrite the tail of a longer previous line.
	b.WriteString(strings.Repeat(" ", 10))

	fmt.Fprint(out, b.String())
}

// Done draws the final line and ends it with a newline.
func (p *Progress) Done() {
	if !p.enabled {
		return
	}
	p.Print()
	_, out := p.snapshot()
	fmt.Fprintln(out)
}

// Summary describes the finished run for the log.
func (p *Progress) Summary() string {
	s, _ := p.snapshot()
	return fmt.Sprintf("Rendered %d/%d frames (%d failed) in %s (%.1f frames/sec)",
		s.completed-s.failed, s.total, s.failed, formatDuration(s.elapsed), s.rate())
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.0fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
