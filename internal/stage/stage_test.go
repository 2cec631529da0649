package stage

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/blockstage/internal/colorspace"
)

func TestDefaultStage(t *testing.T) {
	st := DefaultStage()

	assert.Equal(t, 480.0, st.Width)
	assert.Equal(t, 360.0, st.Height)
	require.Len(t, st.Sprites, 2)
	assert.Equal(t, "s2", st.Focused)

	sq, ok := st.Sprite("s2")
	require.True(t, ok)
	assert.Equal(t, orb.Point{255, 155}, sq.Center())
	assert.Equal(t, "#00adef", sq.Pen.Color)

	c, ok := st.Sprite("c2")
	require.True(t, ok)
	assert.Equal(t, orb.Bound{Min: orb.Point{80, 50}, Max: orb.Point{120, 90}}, c.Bounds())
}

func TestPrimitivesDoNotMutateInput(t *testing.T) {
	st := DefaultStage()

	next, err := st.ChangeX("s2", 10)
	require.NoError(t, err)

	before, _ := st.Sprite("s2")
	after, _ := next.Sprite("s2")
	assert.Equal(t, 240.0, before.X)
	assert.Equal(t, 250.0, after.X)
}

func TestMovement(t *testing.T) {
	st := DefaultStage()
	var err error

	st, err = st.MoveStep("s2", 5)
	require.NoError(t, err)
	st, err = st.ChangeY("s2", -20)
	require.NoError(t, err)

	sp, _ := st.Sprite("s2")
	assert.Equal(t, 245.0, sp.X)
	assert.Equal(t, 120.0, sp.Y)

	// Steps move linearly in both directions.
	back, err := st.MoveStep("s2", -4)
	require.NoError(t, err)
	sp, _ = back.Sprite("s2")
	assert.Equal(t, 241.0, sp.X)

	y := 7.0
	st, err = st.GoToXY("s2", nil, &y)
	require.NoError(t, err)
	sp, _ = st.Sprite("s2")
	assert.Equal(t, 245.0, sp.X, "nil x keeps the current value")
	assert.Equal(t, 7.0, sp.Y)

	st, err = st.SetX("c2", 0)
	require.NoError(t, err)
	st, err = st.GlideBy("c2", 3, 4)
	require.NoError(t, err)
	c, _ := st.Sprite("c2")
	assert.Equal(t, orb.Point{3, 74}, orb.Point{c.X, c.Y})
}

func TestRotation(t *testing.T) {
	st := DefaultStage()

	st, err := st.RotateClockwise("s2", 350)
	require.NoError(t, err)
	st, err = st.RotateClockwise("s2", 20)
	require.NoError(t, err)

	sp, _ := st.Sprite("s2")
	assert.InDelta(t, 10.0, sp.Rotation, 1e-9)

	st, err = st.PointIn("s2", 90)
	require.NoError(t, err)
	sp, _ = st.Sprite("s2")
	assert.InDelta(t, 280.0, sp.Rotation, 1e-9)
	assert.Equal(t, 90.0, sp.PointDir)

	st, err = st.PointIn("s2", 90)
	require.NoError(t, err)
	sp, _ = st.Sprite("s2")
	assert.InDelta(t, 280.0, sp.Rotation, 1e-9, "pointing the same way again is a no-op")
}

func TestTrailsOnlyWithPenDown(t *testing.T) {
	st := DefaultStage()

	st, err := st.ChangeX("s2", 10)
	require.NoError(t, err)
	assert.Empty(t, st.Trails)

	st, err = st.PenDown("s2")
	require.NoError(t, err)
	st, err = st.SetPenSize("s2", 4)
	require.NoError(t, err)
	st, err = st.ChangeX("s2", 10)
	require.NoError(t, err)

	require.Len(t, st.Trails, 1)
	tr := st.Trails[0]
	assert.Equal(t, orb.Point{265, 155}, tr.From)
	assert.Equal(t, orb.Point{275, 155}, tr.To)
	assert.Equal(t, "#00adef", tr.Color)
	assert.Equal(t, 4.0, tr.Width)

	// Zero-length moves do not leave a trail.
	st, err = st.ChangeX("s2", 0)
	require.NoError(t, err)
	assert.Len(t, st.Trails, 1)

	st = st.ClearTrails()
	assert.Empty(t, st.Trails)
}

func TestDrawBringsSpriteToFront(t *testing.T) {
	st := DefaultStage()

	st, err := st.Draw("s2", 5, -5)
	require.NoError(t, err)

	require.Len(t, st.Trails, 1)
	assert.Equal(t, orb.Point{260, 150}, st.Trails[0].To)
	assert.Equal(t, "s2", st.Sprites[len(st.Sprites)-1].ID)
}

func TestPenColorPrimitives(t *testing.T) {
	st := DefaultStage()

	st, err := st.SetPenColor("c2", "#FF0000")
	require.NoError(t, err)
	st, err = st.ChangePenColorBy("c2", 240)
	require.NoError(t, err)
	c, _ := st.Sprite("c2")
	assert.Equal(t, "#0000ff", c.Pen.Color)

	st, err = st.ChangePenShadeBy("c2", -50)
	require.NoError(t, err)
	c, _ = st.Sprite("c2")
	assert.Equal(t, "#000080", c.Pen.Color)

	_, err = st.SetPenColor("c2", "red")
	require.Error(t, err)
}

func TestUnknownSprite(t *testing.T) {
	st := DefaultStage()

	_, err := st.ChangeX("nope", 1)
	assert.True(t, errors.Is(err, ErrSpriteNotFound))

	_, err = st.BringToFront("nope")
	assert.True(t, errors.Is(err, ErrSpriteNotFound))

	_, _, err = st.SwitchSprite("nope", "")
	assert.True(t, errors.Is(err, ErrSpriteNotFound))
}

func TestSwitchSprite(t *testing.T) {
	st := DefaultStage()

	st, prog, err := st.SwitchSprite("c2", "<xml>square</xml>")
	require.NoError(t, err)
	assert.Equal(t, "", prog)
	assert.Equal(t, "c2", st.Focused)

	st, prog, err = st.SwitchSprite("s2", "<xml>circle</xml>")
	require.NoError(t, err)
	assert.Equal(t, "<xml>square</xml>", prog)

	c, _ := st.Sprite("c2")
	assert.Equal(t, "<xml>circle</xml>", c.Program)
}

func TestAddSprite(t *testing.T) {
	st := New(0, 0)

	st, err := st.AddSprite(Sprite{ID: "a", Shape: ShapeCircle})
	require.NoError(t, err)
	a, _ := st.Sprite("a")
	assert.Equal(t, 20.0, a.Radius)
	assert.Equal(t, RotateAll, a.RotationStyle)
	assert.Equal(t, "a", st.Focused)

	_, err = st.AddSprite(Sprite{ID: "a"})
	assert.Error(t, err)

	_, err = st.AddSprite(Sprite{ID: "b", Shape: "hexagon"})
	assert.Error(t, err)
}

func TestExtremeInputs(t *testing.T) {
	st := DefaultStage()
	st, err := st.PenDown("s2")
	require.NoError(t, err)

	tests := []struct {
		name    string
		apply   func(*Stage) (*Stage, error)
		wantErr error
	}{
		{"set x huge", func(s *Stage) (*Stage, error) { return s.SetX("c2", 1e300) }, ErrOutOfRange},
		{"set y nan", func(s *Stage) (*Stage, error) { return s.SetY("s2", math.NaN()) }, ErrOutOfRange},
		{"change x past bound", func(s *Stage) (*Stage, error) { return s.ChangeX("s2", 1e10) }, ErrOutOfRange},
		{"change y -inf", func(s *Stage) (*Stage, error) { return s.ChangeY("s2", math.Inf(-1)) }, ErrOutOfRange},
		{"move step huge", func(s *Stage) (*Stage, error) { return s.MoveStep("s2", -1e300) }, ErrOutOfRange},
		{"draw far away", func(s *Stage) (*Stage, error) { return s.Draw("s2", 1e10, 0) }, ErrOutOfRange},
		{"rotate nan", func(s *Stage) (*Stage, error) { return s.RotateClockwise("s2", math.NaN()) }, ErrOutOfRange},
		{"rotate inf", func(s *Stage) (*Stage, error) { return s.RotateClockwise("s2", math.Inf(1)) }, ErrOutOfRange},
		{"point in nan", func(s *Stage) (*Stage, error) { return s.PointIn("s2", math.NaN()) }, ErrOutOfRange},
		{"pen size huge", func(s *Stage) (*Stage, error) { return s.SetPenSize("s2", 1e300) }, ErrOutOfRange},
		{"pen size nan", func(s *Stage) (*Stage, error) { return s.SetPenSize("s2", math.NaN()) }, ErrOutOfRange},
		{"shade inf", func(s *Stage) (*Stage, error) { return s.ChangePenShadeBy("s2", math.Inf(1)) }, colorspace.ErrOutOfRangeComponent},
		{"rotate huge", func(s *Stage) (*Stage, error) { return s.RotateClockwise("s2", 1e300) }, nil},
		{"shade huge", func(s *Stage) (*Stage, error) { return s.ChangePenShadeBy("s2", 1e300) }, nil},
		{"set x at bound", func(s *Stage) (*Stage, error) { return s.SetX("s2", -MaxCoordinate) }, nil},
		{"draw at bound", func(s *Stage) (*Stage, error) { return s.Draw("c2", MaxCoordinate-100, 0) }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := tt.apply(st)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, next)
				return
			}
			require.NoError(t, err)
			for _, sp := range next.Sprites {
				assert.False(t, math.IsNaN(sp.X) || math.IsNaN(sp.Y) || math.IsNaN(sp.Rotation), sp.ID)
				assert.GreaterOrEqual(t, sp.Rotation, 0.0)
				assert.Less(t, sp.Rotation, 360.0)
			}
		})
	}

	// Rejected ops leave the input untouched.
	sq, _ := st.Sprite("s2")
	assert.Equal(t, 240.0, sq.X)
	assert.Empty(t, st.Trails)
}

func TestAddSpriteRejectsExtremeGeometry(t *testing.T) {
	st := New(100, 100)

	for _, sp := range []Sprite{
		{ID: "far", X: 1e300},
		{ID: "nan", Y: math.NaN()},
		{ID: "wide", Width: math.Inf(1)},
		{ID: "round", Shape: ShapeCircle, Radius: -2e6},
		{ID: "spin", Rotation: math.NaN()},
		{ID: "stroke", StrokeWidth: 1e9},
	} {
		_, err := st.AddSprite(sp)
		assert.ErrorIs(t, err, ErrOutOfRange, sp.ID)
	}
}

func TestOutlineRotatesSquare(t *testing.T) {
	sp := Sprite{Shape: ShapeSquare, Width: 2, Height: 2, Rotation: 90, RotationStyle: RotateAll}
	ring := sp.Outline(0)
	require.Len(t, ring, 4)
	assert.InDelta(t, 2.0, ring[0][0], 1e-9)
	assert.InDelta(t, 0.0, ring[0][1], 1e-9)

	sp.RotationStyle = RotateNone
	assert.Equal(t, orb.Point{0, 0}, sp.Outline(0)[0])
}
