package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/blockstage/internal/stage"
)

var purple = color.NRGBA{R: 128, G: 0, B: 128, A: 255}

func TestSVG_DefaultStage(t *testing.T) {
	var buf bytes.Buffer
	SVG(&buf, stage.DefaultStage())
	out := buf.String()

	assert.Contains(t, out, `viewBox="0 0 480 360"`)
	assert.Contains(t, out, `<pattern id="pattern"`)
	assert.Contains(t, out, `x="240" y="140" width="30" height="30" id="s2"`)
	assert.Contains(t, out, `<circle cx="100" cy="70" r="20" id="c2"`)
	assert.Contains(t, out, "fill:purple;stroke:black;stroke-width:5")
	assert.NotContains(t, out, "rotate(")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "</svg>"))
}

func TestSVG_RotationAndTrails(t *testing.T) {
	st := stage.DefaultStage()
	st, err := st.RotateClockwise("s2", 45)
	require.NoError(t, err)
	st, err = st.PenDown("c2")
	require.NoError(t, err)
	st, err = st.ChangeX("c2", 50)
	require.NoError(t, err)

	var buf bytes.Buffer
	SVG(&buf, st)
	out := buf.String()

	assert.Contains(t, out, `<g transform="rotate(45,255,155)">`)
	assert.Contains(t, out, `class="trail"`)
	assert.Contains(t, out, "stroke:#00adef;stroke-width:2")

	// Trails come before sprites so sprites are drawn on top.
	assert.Less(t, strings.Index(out, `class="trail"`), strings.Index(out, `id="s2"`))

	st, err = st.SetRotationStyle("s2", stage.RotateNone)
	require.NoError(t, err)
	buf.Reset()
	SVG(&buf, st)
	assert.NotContains(t, buf.String(), "rotate(")
}

func TestRasterizer_DefaultStage(t *testing.T) {
	img := NewRasterizer(DefaultOptions()).Render(stage.DefaultStage())

	assert.Equal(t, image.Rect(0, 0, 480, 360), img.Bounds())
	assert.Equal(t, color.NRGBA{255, 255, 255, 255}, img.NRGBAAt(5, 5))
	assert.Equal(t, purple, img.NRGBAAt(255, 155))
	assert.Equal(t, purple, img.NRGBAAt(100, 70))
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, img.NRGBAAt(240, 155), "square outline")
}

func TestRasterizer_Trail(t *testing.T) {
	st, err := stage.DefaultStage().PenDown("c2")
	require.NoError(t, err)
	st, err = st.ChangeY("c2", 100)
	require.NoError(t, err)

	img := NewRasterizer(DefaultOptions()).Render(st)
	assert.Equal(t, color.NRGBA{0x00, 0xad, 0xef, 0xff}, img.NRGBAAt(100, 120))
}

func TestRasterizer_ExtremeGeometry(t *testing.T) {
	white := color.NRGBA{255, 255, 255, 255}
	red := color.NRGBA{255, 0, 0, 255}
	trail := func(x0, y0, x1, y1, w float64) stage.Trail {
		return stage.Trail{From: orb.Point{x0, y0}, To: orb.Point{x1, y1}, Color: "#ff0000", Width: w}
	}
	square := func(x, y, side float64) stage.Sprite {
		return stage.Sprite{
			ID: "far", Shape: stage.ShapeSquare, X: x, Y: y, Width: side, Height: side,
			Fill: "purple", Stroke: "black", StrokeWidth: 5, RotationStyle: stage.RotateAll,
		}
	}

	// Stages are built directly so the renderer sees values the stage
	// primitives would reject.
	tests := []struct {
		name    string
		trails  []stage.Trail
		sprites []stage.Sprite
		want    map[image.Point]color.NRGBA
	}{
		{
			name:   "trail leaving the canvas",
			trails: []stage.Trail{trail(100, 100, 1e10, 100, 2)},
			want:   map[image.Point]color.NRGBA{{100, 100}: red, {470, 100}: red, {100, 200}: white},
		},
		{
			name:   "trail crossing the canvas",
			trails: []stage.Trail{trail(-1e7, 50, 1e7, 50, 2)},
			want:   map[image.Point]color.NRGBA{{0, 50}: red, {240, 50}: red, {479, 50}: red, {240, 200}: white},
		},
		{
			name:   "trail far off canvas",
			trails: []stage.Trail{trail(-1e300, -1e300, 1e300, -1e300, 2), trail(2e9, 2e9, 3e9, 3e9, 5)},
			want:   map[image.Point]color.NRGBA{{0, 0}: white, {240, 180}: white},
		},
		{
			name:   "non-finite trails",
			trails: []stage.Trail{trail(math.NaN(), 0, 10, 10, 2), trail(0, 0, math.Inf(1), 0, 2), trail(0, 0, 10, 0, math.NaN())},
			want:   map[image.Point]color.NRGBA{{5, 0}: white},
		},
		{
			name:   "huge pen covers the canvas",
			trails: []stage.Trail{trail(10, 10, 20, 10, 1e6)},
			want:   map[image.Point]color.NRGBA{{0, 0}: red, {479, 359}: red},
		},
		{
			name:    "sprites far off canvas",
			sprites: []stage.Sprite{square(1e300, 0, 30), square(-5e6, 5e6, 30), square(math.NaN(), 0, 30), square(0, math.Inf(-1), 30)},
			want:    map[image.Point]color.NRGBA{{0, 0}: white, {240, 180}: white},
		},
		{
			name:    "sprite too big to fill",
			sprites: []stage.Sprite{square(-1e9, -1e9, 2e9)},
			want:    map[image.Point]color.NRGBA{{240, 180}: white},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &stage.Stage{Width: 480, Height: 360, Trails: tt.trails, Sprites: tt.sprites}
			img := NewRasterizer(DefaultOptions()).Render(st)
			for p, c := range tt.want {
				assert.Equal(t, c, img.NRGBAAt(p.X, p.Y), "pixel %v", p)
			}
		})
	}
}

func TestClipSegment(t *testing.T) {
	t0, t1, ok := clipSegment(-10, 5, 40, 0, 0, 0, 10, 10)
	require.True(t, ok)
	assert.InDelta(t, 0.25, t0, 1e-12)
	assert.InDelta(t, 0.5, t1, 1e-12)

	_, _, ok = clipSegment(-10, 20, 40, 0, 0, 0, 10, 10)
	assert.False(t, ok, "parallel and outside")

	_, _, ok = clipSegment(20, 20, 10, 10, 0, 0, 10, 10)
	assert.False(t, ok, "moving away")

	t0, t1, ok = clipSegment(2, 2, 3, 3, 0, 0, 10, 10)
	require.True(t, ok)
	assert.Equal(t, 0.0, t0)
	assert.Equal(t, 1.0, t1)
}

func TestNewRasterizer_ClampsScale(t *testing.T) {
	assert.Equal(t, float64(MaxScale), NewRasterizer(Options{Scale: 1e9}).opts.Scale)
	assert.Equal(t, 1.0, NewRasterizer(Options{Scale: math.NaN()}).opts.Scale)
	assert.Equal(t, 1.0, NewRasterizer(Options{Scale: -2}).opts.Scale)
	assert.Zero(t, NewRasterizer(Options{Wobble: math.NaN()}).opts.Wobble)
}

func TestRasterizer_ScaleAndTransparency(t *testing.T) {
	img := NewRasterizer(Options{Scale: 0.5}).Render(stage.DefaultStage())
	assert.Equal(t, image.Rect(0, 0, 240, 180), img.Bounds())
	assert.Equal(t, uint8(0), img.NRGBAAt(2, 2).A)
}

func TestRasterizer_WobbleIsDeterministic(t *testing.T) {
	st, err := stage.DefaultStage().PenDown("s2")
	require.NoError(t, err)
	st, err = st.ChangeX("s2", -150)
	require.NoError(t, err)

	opts := DefaultOptions()
	opts.Wobble = 4
	opts.Seed = 42

	a := NewRasterizer(opts).Render(st)
	b := NewRasterizer(opts).Render(st)
	assert.Equal(t, a.Pix, b.Pix)
}

func TestSpriteThumbnail(t *testing.T) {
	sq, ok := stage.DefaultStage().Sprite("s2")
	require.True(t, ok)

	thumb := SpriteThumbnail(sq, 16)
	assert.Equal(t, 16, thumb.Bounds().Dx())
	assert.Equal(t, 16, thumb.Bounds().Dy())

	center := thumb.NRGBAAt(8, 8)
	assert.InDelta(t, 128, int(center.R), 12)
	assert.InDelta(t, 0, int(center.G), 12)
}

func TestParseColor(t *testing.T) {
	assert.Equal(t, purple, ParseColor("purple"))
	assert.Equal(t, color.NRGBA{0x00, 0xad, 0xef, 0xff}, ParseColor("#00ADEF"))
	assert.Equal(t, color.NRGBA{A: 255}, ParseColor("#nothex"))
	assert.Equal(t, color.NRGBA{A: 255}, ParseColor("ultraviolet"))
}

func TestEncodePNG(t *testing.T) {
	level, err := PNGCompression("speed")
	require.NoError(t, err)
	assert.Equal(t, png.BestSpeed, level)

	_, err = PNGCompression("turbo")
	assert.Error(t, err)

	data, err := EncodePNG(image.NewNRGBA(image.Rect(0, 0, 4, 4)), level)
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 4, decoded.Bounds().Dx())
}
