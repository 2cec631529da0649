package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"

	"github.com/aquilax/go-perlin"
	"github.com/paulmach/orb"
	"golang.org/x/image/colornames"
	"golang.org/x/image/vector"

	"github.com/MeKo-Tech/blockstage/internal/colorspace"
	"github.com/MeKo-Tech/blockstage/internal/stage"
)

// circleSegments is the polygon resolution used for circle sprites.
const circleSegments = 64

// MaxScale bounds Options.Scale so a maximal stage still fits in memory.
const MaxScale = 16

// maxFillCoord bounds scaled polygon vertices handed to the float32 fill
// rasterizer. Larger shapes are outlined only.
const maxFillCoord = 1 << 26

// Options configures a Rasterizer.
type Options struct {
	// Scale maps stage units to pixels.
	Scale float64
	// Background fills the canvas before drawing. Nil leaves it transparent.
	Background color.Color
	// Wobble is the maximum pen trail displacement in stage units.
	// Zero draws exact lines.
	Wobble float64
	// Seed makes wobble deterministic.
	Seed int64
}

// DefaultOptions renders at 1:1 on a white background with exact lines.
func DefaultOptions() Options {
	return Options{Scale: 1, Background: color.White}
}

// Rasterizer draws stages into NRGBA images. It is safe for concurrent use.
type Rasterizer struct {
	noise *perlin.Perlin
	opts  Options
}

// NewRasterizer creates a rasterizer. A non-positive scale is treated as 1
// and larger scales are clamped to MaxScale. Invalid wobble disables it.
func NewRasterizer(opts Options) *Rasterizer {
	if !(opts.Scale > 0) {
		opts.Scale = 1
	}
	opts.Scale = min(opts.Scale, MaxScale)
	if !(opts.Wobble >= 0) || math.IsInf(opts.Wobble, 1) {
		opts.Wobble = 0
	}
	r := &Rasterizer{opts: opts}
	if opts.Wobble > 0 {
		r.noise = perlin.NewPerlin(2.0, 2.0, 3, opts.Seed)
	}
	return r
}

// Render rasterizes st. Unparseable fill or stroke colors fall back to black.
func (r *Rasterizer) Render(st *stage.Stage) *image.NRGBA {
	w := int(math.Ceil(st.Width * r.opts.Scale))
	h := int(math.Ceil(st.Height * r.opts.Scale))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	if r.opts.Background != nil {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(r.opts.Background), image.Point{}, draw.Src)
	}

	for i, tr := range st.Trails {
		r.strokeLine(dst, tr.From, tr.To, tr.Width, ParseColor(tr.Color), float64(i))
	}

	for _, sp := range st.Sprites {
		r.drawSprite(dst, sp)
	}

	return dst
}

func (r *Rasterizer) drawSprite(dst *image.NRGBA, sp stage.Sprite) {
	ring := sp.Outline(circleSegments)
	if len(ring) < 3 {
		return
	}
	// Sprites entirely off the canvas are skipped.
	if !r.visible(dst.Bounds(), ring.Bound(), sp.StrokeWidth*r.opts.Scale/2+1) {
		return
	}

	if sp.Fill != "" && sp.Fill != "none" && r.fillable(ring.Bound()) {
		r.fillRing(dst, ring, ParseColor(sp.Fill))
	}

	if sp.Stroke != "" && sp.StrokeWidth > 0 {
		c := ParseColor(sp.Stroke)
		for i := range ring {
			next := ring[(i+1)%len(ring)]
			r.strokeLine(dst, ring[i], next, sp.StrokeWidth, c, -1)
		}
	}
}

// visible reports whether bound, in stage units, overlaps the canvas once
// scaled and grown by pad pixels. Non-finite bounds are never visible.
func (r *Rasterizer) visible(canvas image.Rectangle, bound orb.Bound, pad float64) bool {
	for _, v := range [4]float64{bound.Min[0], bound.Min[1], bound.Max[0], bound.Max[1]} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	s := r.opts.Scale
	return bound.Max[0]*s+pad >= float64(canvas.Min.X) && bound.Min[0]*s-pad <= float64(canvas.Max.X) &&
		bound.Max[1]*s+pad >= float64(canvas.Min.Y) && bound.Min[1]*s-pad <= float64(canvas.Max.Y)
}

func (r *Rasterizer) fillable(bound orb.Bound) bool {
	s := r.opts.Scale
	for _, v := range [4]float64{bound.Min[0], bound.Min[1], bound.Max[0], bound.Max[1]} {
		if math.Abs(v*s) > maxFillCoord {
			return false
		}
	}
	return true
}

func (r *Rasterizer) fillRing(dst *image.NRGBA, ring orb.Ring, c color.Color) {
	b := dst.Bounds()
	ras := vector.NewRasterizer(b.Dx(), b.Dy())

	for i, pt := range ring {
		x := float32(pt[0] * r.opts.Scale)
		y := float32(pt[1] * r.opts.Scale)
		if i == 0 {
			ras.MoveTo(x, y)
		} else {
			ras.LineTo(x, y)
		}
	}
	ras.ClosePath()

	ras.Draw(dst, b, image.NewUniform(c), image.Point{})
}

// strokeLine stamps discs along the part of the segment that can touch the
// canvas. A non-negative seq enables wobble for pen trails; sprite outlines
// pass -1.
func (r *Rasterizer) strokeLine(dst *image.NRGBA, from, to orb.Point, width float64, c color.NRGBA, seq float64) {
	scale := r.opts.Scale
	x0, y0 := from[0]*scale, from[1]*scale
	x1, y1 := to[0]*scale, to[1]*scale
	radius := math.Max(width*scale/2, 0.5)
	for _, v := range [5]float64{x0, y0, x1, y1, radius} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return
		}
	}

	step := 0.75
	if width*scale >= 5 {
		step = 0.9
	}
	// Overlapping stamps a quarter radius apart look solid for thick pens.
	step = math.Max(step, radius/4)

	dx, dy := x1-x0, y1-y0
	segLen := math.Hypot(dx, dy)
	if math.IsInf(segLen, 0) {
		return
	}
	if segLen == 0 {
		drawDisc(dst, x0, y0, radius, c)
		return
	}

	// Wobble can push stamps sideways, so the clip box allows for it.
	margin := radius + r.opts.Wobble*scale
	b := dst.Bounds()
	t0, t1, ok := clipSegment(x0, y0, dx, dy,
		float64(b.Min.X)-margin, float64(b.Min.Y)-margin,
		float64(b.Max.X)+margin, float64(b.Max.Y)+margin)
	if !ok {
		return
	}

	// Unit normal for wobble displacement.
	nx, ny := -dy/segLen, dx/segLen
	wobble := r.noise != nil && seq >= 0

	steps := max(int(math.Ceil(segLen*(t1-t0)/step)), 1)
	for s := 0; s <= steps; s++ {
		t := t0 + (t1-t0)*float64(s)/float64(steps)
		x := x0 + dx*t
		y := y0 + dy*t
		if wobble {
			// Taper to zero at the endpoints so joined trails stay connected.
			off := r.noise.Noise2D(seq*7.31, t*segLen/25) * r.opts.Wobble * scale * math.Sin(math.Pi*t)
			x += nx * off
			y += ny * off
		}
		drawDisc(dst, x, y, radius, c)
	}
}

// clipSegment clips the segment (x0,y0)+t*(dx,dy), t in [0,1], to the box
// (Liang-Barsky) and returns the visible parameter range.
func clipSegment(x0, y0, dx, dy, minX, minY, maxX, maxY float64) (float64, float64, bool) {
	t0, t1 := 0.0, 1.0
	for _, e := range [4][2]float64{
		{-dx, x0 - minX},
		{dx, maxX - x0},
		{-dy, y0 - minY},
		{dy, maxY - y0},
	} {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return 0, 0, false
			}
			t0 = math.Max(t0, t)
		} else {
			if t < t0 {
				return 0, 0, false
			}
			t1 = math.Min(t1, t)
		}
	}
	return t0, t1, true
}

func drawDisc(dst *image.NRGBA, cx, cy, radius float64, c color.NRGBA) {
	b := dst.Bounds()
	// Clamp in float space so far-off or huge discs never reach the int
	// conversion out of range.
	fMinX := math.Max(math.Floor(cx-radius), float64(b.Min.X))
	fMaxX := math.Min(math.Ceil(cx+radius), float64(b.Max.X-1))
	fMinY := math.Max(math.Floor(cy-radius), float64(b.Min.Y))
	fMaxY := math.Min(math.Ceil(cy+radius), float64(b.Max.Y-1))
	if !(fMinX <= fMaxX && fMinY <= fMaxY) {
		return
	}
	minX, maxX, minY, maxY := int(fMinX), int(fMaxX), int(fMinY), int(fMaxY)

	r2 := radius * radius
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx := (float64(x) + 0.5) - cx
			dy := (float64(y) + 0.5) - cy
			if dx*dx+dy*dy <= r2 {
				dst.SetNRGBA(x, y, c)
			}
		}
	}
}

// ParseColor accepts #RRGGBB or an SVG color keyword such as "purple".
// Anything else is opaque black.
func ParseColor(s string) color.NRGBA {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		if c, err := colorspace.ParseHex(s); err == nil {
			return c.NRGBA()
		}
		return color.NRGBA{A: 255}
	}
	if c, ok := colornames.Map[strings.ToLower(s)]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
	}
	return color.NRGBA{A: 255}
}
