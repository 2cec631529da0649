// Package stage models the 2D sprite stage that generated block programs drive.
//
// A Stage is a value: primitives never modify the stage they are given and
// return an updated copy instead, so snapshots can be rendered or shared
// between goroutines freely.
package stage

import (
	"fmt"
	"math"
	"strings"

	"github.com/MeKo-Tech/blockstage/internal/colorspace"
	"github.com/paulmach/orb"
)

// Shape identifies the primitive drawn for a sprite.
type Shape string

const (
	ShapeSquare Shape = "square"
	ShapeCircle Shape = "circle"
)

// RotationStyle controls whether a sprite's rotation is rendered.
type RotationStyle string

const (
	RotateAll  RotationStyle = "all"
	RotateNone RotationStyle = "none"
)

// ParseRotationStyle accepts "all" or "none" in any case.
func ParseRotationStyle(s string) (RotationStyle, error) {
	switch RotationStyle(strings.ToLower(s)) {
	case RotateAll:
		return RotateAll, nil
	case RotateNone:
		return RotateNone, nil
	}
	return "", fmt.Errorf("unknown rotation style %q", s)
}

// Sprite is one shape on the stage.
// X/Y is the top-left corner for squares and the center for circles.
type Sprite struct {
	ID            string         `yaml:"id" json:"id"`
	Shape         Shape          `yaml:"shape" json:"shape"`
	X             float64        `yaml:"x" json:"x"`
	Y             float64        `yaml:"y" json:"y"`
	Width         float64        `yaml:"width,omitempty" json:"width,omitempty"`
	Height        float64        `yaml:"height,omitempty" json:"height,omitempty"`
	Radius        float64        `yaml:"radius,omitempty" json:"radius,omitempty"`
	Rotation      float64        `yaml:"rotation" json:"rotation"`
	RotationStyle RotationStyle  `yaml:"rotation_style" json:"rotationStyle"`
	PointDir      float64        `yaml:"point_dir" json:"pointDir"`
	Fill          string         `yaml:"fill" json:"fill"`
	Stroke        string         `yaml:"stroke" json:"stroke"`
	StrokeWidth   float64        `yaml:"stroke_width" json:"strokeWidth"`
	Pen           colorspace.Pen `yaml:"pen" json:"pen"`
	Program       string         `yaml:"program,omitempty" json:"program,omitempty"`
}

// Bounds returns the unrotated bounding box of the sprite.
func (s Sprite) Bounds() orb.Bound {
	if s.Shape == ShapeCircle {
		return orb.Bound{
			Min: orb.Point{s.X - s.Radius, s.Y - s.Radius},
			Max: orb.Point{s.X + s.Radius, s.Y + s.Radius},
		}
	}
	return orb.Bound{
		Min: orb.Point{s.X, s.Y},
		Max: orb.Point{s.X + s.Width, s.Y + s.Height},
	}
}

// Center returns the rotation pivot, which is the center of Bounds.
func (s Sprite) Center() orb.Point {
	return s.Bounds().Center()
}

// Rotates reports whether the renderer should apply the sprite's rotation.
func (s Sprite) Rotates() bool {
	return s.RotationStyle != RotateNone && s.Rotation != 0
}

// Outline returns the rotated corners of a square sprite in drawing order.
// Circles are approximated with n points.
func (s Sprite) Outline(n int) orb.Ring {
	c := s.Center()
	var ring orb.Ring

	if s.Shape == ShapeCircle {
		if n < 3 {
			n = 3
		}
		for i := 0; i < n; i++ {
			a := 2 * math.Pi * float64(i) / float64(n)
			ring = append(ring, orb.Point{c[0] + s.Radius*math.Cos(a), c[1] + s.Radius*math.Sin(a)})
		}
		return ring
	}

	b := s.Bounds()
	corners := []orb.Point{
		b.Min,
		{b.Max[0], b.Min[1]},
		b.Max,
		{b.Min[0], b.Max[1]},
	}
	rad := 0.0
	if s.Rotates() {
		rad = s.Rotation * math.Pi / 180
	}
	for _, p := range corners {
		ring = append(ring, rotateAround(p, c, rad))
	}
	return ring
}

func rotateAround(p, c orb.Point, rad float64) orb.Point {
	if rad == 0 {
		return p
	}
	sin, cos := math.Sincos(rad)
	dx, dy := p[0]-c[0], p[1]-c[1]
	return orb.Point{c[0] + dx*cos - dy*sin, c[1] + dx*sin + dy*cos}
}

// Trail is a line segment left by a sprite whose pen is down.
type Trail struct {
	From  orb.Point `yaml:"from" json:"from"`
	To    orb.Point `yaml:"to" json:"to"`
	Color string    `yaml:"color" json:"color"`
	Width float64   `yaml:"width" json:"width"`
}

// LineString returns the trail as an orb geometry.
func (t Trail) LineString() orb.LineString {
	return orb.LineString{t.From, t.To}
}
