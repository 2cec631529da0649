package stage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sceneYAML = `
width: 200
height: 100
sprites:
  - id: box
    shape: square
    x: 10
    y: 10
    width: 20
    height: 20
    fill: "#336699"
    stroke: black
    stroke_width: 2
    pen:
      color: "#ff0000"
      size: 3
ops:
  - op: pen_down
  - op: change_x
    value: 50
  - op: change_pen_color
    value: 120
  - op: goto
    x: 0
    y: 0
  - op: rotation_style
    style: NONE
`

func TestDecodeSceneAndReplay(t *testing.T) {
	sc, err := DecodeScene(strings.NewReader(sceneYAML))
	require.NoError(t, err)
	require.Len(t, sc.Ops, 5)

	st, err := sc.Stage()
	require.NoError(t, err)
	assert.Equal(t, 200.0, st.Width)
	assert.Equal(t, "box", st.Focused)

	frames, err := Replay(st, sc.Ops)
	require.NoError(t, err)
	require.Len(t, frames, 5)

	last := frames[len(frames)-1]
	require.Len(t, last.Trails, 2)
	assert.Equal(t, "#ff0000", last.Trails[0].Color)
	assert.Equal(t, "#00ff00", last.Trails[1].Color)
	assert.Equal(t, 3.0, last.Trails[1].Width)

	box, _ := last.Sprite("box")
	assert.Equal(t, RotateNone, box.RotationStyle)
	assert.Equal(t, 0.0, box.X)

	// The initial stage is untouched by replay.
	assert.Empty(t, st.Trails)
}

func TestSceneWithoutSpritesUsesDefaults(t *testing.T) {
	sc, err := DecodeScene(strings.NewReader("ops: []\n"))
	require.NoError(t, err)

	st, err := sc.Stage()
	require.NoError(t, err)
	assert.Len(t, st.Sprites, 2)
	assert.Equal(t, 480.0, st.Width)
}

func TestDecodeSceneRejectsUnknownKeys(t *testing.T) {
	_, err := DecodeScene(strings.NewReader("widht: 3\n"))
	assert.Error(t, err)
}

func TestSceneRejectsExtremeSizes(t *testing.T) {
	for _, doc := range []string{
		"width: 1e9\n",
		"height: -1\n",
		"width: .nan\n",
		"width: .inf\n",
		"sprites:\n  - id: far\n    x: 1e300\n",
	} {
		sc, err := DecodeScene(strings.NewReader(doc))
		require.NoError(t, err, doc)
		_, err = sc.Stage()
		assert.ErrorIs(t, err, ErrOutOfRange, doc)
	}
}

func TestReplayStopsOnError(t *testing.T) {
	st := DefaultStage()

	frames, err := Replay(st, []Op{
		{Op: "change_x", Value: 1},
		{Op: "teleport"},
		{Op: "change_x", Value: 1},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownOp))
	assert.Contains(t, err.Error(), "op 1")
	assert.Len(t, frames, 1)

	_, err = Apply(st, Op{Op: "set_x"})
	assert.ErrorContains(t, err, "missing x")
}

func TestLoadScene(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sceneYAML), 0o644))

	sc, err := LoadScene(path)
	require.NoError(t, err)
	assert.Len(t, sc.Sprites, 1)

	_, err = LoadScene(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
