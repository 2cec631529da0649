// Package console holds the text output surface that programs print to.
package console

import (
	"strings"
	"sync"
)

// DefaultMaxLines bounds a console created with a non-positive limit.
const DefaultMaxLines = 500

// Console is an append-only list of lines. Once MaxLines is reached the
// oldest lines are dropped. It is safe for concurrent use.
type Console struct {
	lines    []string
	partial  strings.Builder
	maxLines int
	mu       sync.RWMutex
}

// New creates a console keeping at most maxLines lines.
func New(maxLines int) *Console {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &Console{maxLines: maxLines}
}

// MaxLines returns the line limit.
func (c *Console) MaxLines() int {
	return c.maxLines
}

// AppendLine adds text as one or more lines. Embedded newlines split it.
func (c *Console) AppendLine(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, line := range strings.Split(text, "\n") {
		c.push(strings.TrimSuffix(line, "\r"))
	}
}

// Write implements io.Writer. Complete lines are appended; a trailing
// partial line is held until its newline arrives.
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rest := string(p)
	for {
		i := strings.IndexByte(rest, '\n')
		if i < 0 {
			break
		}
		c.partial.WriteString(rest[:i])
		c.push(strings.TrimSuffix(c.partial.String(), "\r"))
		c.partial.Reset()
		rest = rest[i+1:]
	}
	c.partial.WriteString(rest)
	return len(p), nil
}

// Lines returns a copy of the current lines, oldest first.
func (c *Console) Lines() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

// String joins the lines the way the output pane shows them.
func (c *Console) String() string {
	return strings.Join(c.Lines(), "\n")
}

// Len returns the number of stored lines.
func (c *Console) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lines)
}

// Clear removes all lines, including any pending partial line.
func (c *Console) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.partial.Reset()
	c.mu.Unlock()
}

func (c *Console) push(line string) {
	c.lines = append(c.lines, line)
	if over := len(c.lines) - c.maxLines; over > 0 {
		c.lines = append(c.lines[:0], c.lines[over:]...)
	}
}
