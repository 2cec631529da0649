package console

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendLine(t *testing.T) {
	c := New(10)
	c.AppendLine("hello")
	c.AppendLine("two\nlines")

	assert.Equal(t, []string{"hello", "two", "lines"}, c.Lines())
	assert.Equal(t, "hello\ntwo\nlines", c.String())
	assert.Equal(t, 3, c.Len())
}

func TestBounded(t *testing.T) {
	c := New(3)
	for i := 0; i < 5; i++ {
		c.AppendLine(fmt.Sprintf("line %d", i))
	}
	assert.Equal(t, []string{"line 2", "line 3", "line 4"}, c.Lines())
	assert.Equal(t, 3, c.MaxLines())
}

func TestDefaultMaxLines(t *testing.T) {
	assert.Equal(t, DefaultMaxLines, New(0).MaxLines())
}

func TestWrite(t *testing.T) {
	c := New(10)

	n, err := fmt.Fprint(c, "partial")
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Empty(t, c.Lines())

	_, err = fmt.Fprint(c, " line\r\nnext\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"partial line", "next"}, c.Lines())
}

func TestLinesIsACopy(t *testing.T) {
	c := New(10)
	c.AppendLine("a")
	lines := c.Lines()
	lines[0] = "changed"
	assert.Equal(t, []string{"a"}, c.Lines())
}

func TestClear(t *testing.T) {
	c := New(10)
	c.AppendLine("a")
	_, _ = c.Write([]byte("pending"))
	c.Clear()
	assert.Empty(t, c.Lines())

	_, _ = c.Write([]byte("fresh\n"))
	assert.Equal(t, []string{"fresh"}, c.Lines())
}

func TestConcurrentAppend(t *testing.T) {
	c := New(1000)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				c.AppendLine("x")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 400, c.Len())
}
