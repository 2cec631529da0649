package worker

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// newTestProgress returns an enabled tracker writing to buf that pretends
// to have started elapsed ago.
func newTestProgress(total int, elapsed time.Duration, buf *bytes.Buffer) *Progress {
	p := NewProgress(total, true)
	p.SetOutput(buf)
	p.startTime = time.Now().Add(-elapsed)
	return p
}

func TestProgress_Callback(t *testing.T) {
	p := NewProgress(10, false)
	p.Callback()(5, 12, 1)

	s, _ := p.snapshot()
	assert.Equal(t, 5, s.completed)
	assert.Equal(t, 12, s.total)
	assert.Equal(t, 1, s.failed)
}

func TestProgress_Print(t *testing.T) {
	var buf bytes.Buffer
	p := newTestProgress(10, 10*time.Second, &buf)

	p.Update(5, 10, 1)

	out := buf.String()
	assert.Contains(t, out, "███")
	assert.Contains(t, out, "5/10 frames")
	assert.Contains(t, out, "(1 failed)")
	assert.Contains(t, out, "0.5 frames/sec")
	assert.Contains(t, out, "ETA: 10s")
	assert.NotContains(t, out, "Done in")
}

func TestProgress_Done(t *testing.T) {
	var buf bytes.Buffer
	p := newTestProgress(3, 3*time.Second, &buf)

	p.Update(3, 3, 0)
	buf.Reset()
	p.Done()

	out := buf.String()
	assert.Contains(t, out, "Done in 3s")
	assert.NotContains(t, out, "ETA")
	assert.Equal(t, byte('\n'), out[len(out)-1])
}

func TestProgress_EmptyRun(t *testing.T) {
	var buf bytes.Buffer
	p := newTestProgress(0, 0, &buf)

	p.Update(0, 0, 0)

	assert.Contains(t, buf.String(), "0/0 frames")
	assert.Contains(t, buf.String(), "░░░")
}

func TestProgress_Disabled(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(10, false)
	p.SetOutput(&buf)

	p.Update(5, 10, 0)
	p.Done()

	assert.Zero(t, buf.Len())
}

func TestProgress_Summary(t *testing.T) {
	p := NewProgress(10, false)
	p.startTime = time.Now().Add(-10 * time.Second)

	p.Update(10, 10, 2)

	assert.Equal(t, "Rendered 8/10 frames (2 failed) in 10s (1.0 frames/sec)", p.Summary())
}

func TestSnapshot_Bar(t *testing.T) {
	tests := []struct {
		s      snapshot
		filled int
	}{
		{snapshot{total: 10, completed: 0}, 0},
		{snapshot{total: 10, completed: 5}, 15},
		{snapshot{total: 10, completed: 10}, 30},
		{snapshot{total: 3, completed: 7}, 30},
		{snapshot{total: 0, completed: 0}, 0},
	}

	for _, tt := range tests {
		bar := []rune(tt.s.bar())
		assert.Len(t, bar, barWidth)
		got := 0
		for _, r := range bar {
			if r == '█' {
				got++
			}
		}
		assert.Equal(t, tt.filled, got, "completed=%d total=%d", tt.s.completed, tt.s.total)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		30 * time.Second:             "30s",
		90 * time.Second:             "1m30s",
		5 * time.Minute:              "5m0s",
		65 * time.Minute:             "1h5m",
		2*time.Hour + 30*time.Minute: "2h30m",
	}

	for d, want := range tests {
		assert.Equal(t, want, formatDuration(d), "formatDuration(%v)", d)
	}
}
