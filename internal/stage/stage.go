package stage

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/MeKo-Tech/blockstage/internal/colorspace"
)

// Default stage dimensions, matching the editor's SVG viewBox.
const (
	DefaultWidth  = 480
	DefaultHeight = 360
)

// Limits on geometry. Positions, sizes and trail endpoints must stay within
// ±MaxCoordinate; the stage itself is at most MaxStageSide units wide or high.
const (
	MaxCoordinate = 1e6
	MaxStageSide  = 8192
)

var (
	// ErrSpriteNotFound is returned when a primitive names an unknown sprite.
	ErrSpriteNotFound = errors.New("sprite not found")
	// ErrOutOfRange is returned for non-finite or oversized geometry.
	ErrOutOfRange = errors.New("value out of range")
)

func checkCoord(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > MaxCoordinate {
		return fmt.Errorf("%w: %s %v", ErrOutOfRange, name, v)
	}
	return nil
}

func checkPoint(p orb.Point) error {
	if err := checkCoord("x", p[0]); err != nil {
		return err
	}
	return checkCoord("y", p[1])
}

func checkAngle(deg float64) error {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return fmt.Errorf("%w: angle %v", ErrOutOfRange, deg)
	}
	return nil
}

// checkGeometry validates the numeric fields of a sprite being added.
func checkGeometry(sp Sprite) error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"x", sp.X}, {"y", sp.Y},
		{"width", sp.Width}, {"height", sp.Height}, {"radius", sp.Radius},
		{"stroke_width", sp.StrokeWidth}, {"pen size", sp.Pen.Size},
	} {
		if err := checkCoord(f.name, f.v); err != nil {
			return err
		}
	}
	if err := checkAngle(sp.Rotation); err != nil {
		return err
	}
	return checkAngle(sp.PointDir)
}

// Stage is an immutable snapshot of all sprites and pen trails.
// Sprites are kept in draw order; the last sprite is in front.
type Stage struct {
	Width   float64  `yaml:"width" json:"width"`
	Height  float64  `yaml:"height" json:"height"`
	Sprites []Sprite `yaml:"sprites" json:"sprites"`
	Trails  []Trail  `yaml:"trails,omitempty" json:"trails,omitempty"`
	Focused string   `yaml:"focused,omitempty" json:"focused,omitempty"`
}

// New returns an empty stage of the given size.
func New(width, height float64) *Stage {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Stage{Width: width, Height: height}
}

// DefaultStage returns the stage a new project starts with: a square and a
// circle, both purple with a black outline and the default pen.
func DefaultStage() *Stage {
	st := New(DefaultWidth, DefaultHeight)
	st.Sprites = []Sprite{
		{
			ID:            "s2",
			Shape:         ShapeSquare,
			X:             240,
			Y:             140,
			Width:         30,
			Height:        30,
			RotationStyle: RotateAll,
			Fill:          "purple",
			Stroke:        "black",
			StrokeWidth:   5,
			Pen:           colorspace.DefaultPen(),
		},
		{
			ID:            "c2",
			Shape:         ShapeCircle,
			X:             100,
			Y:             70,
			Radius:        20,
			RotationStyle: RotateAll,
			Fill:          "purple",
			Stroke:        "black",
			StrokeWidth:   5,
			Pen:           colorspace.DefaultPen(),
		},
	}
	st.Focused = "s2"
	return st
}

// AddSprite returns a stage with sp appended in front of the others.
// Missing fields are filled with defaults.
func (st *Stage) AddSprite(sp Sprite) (*Stage, error) {
	if sp.ID == "" {
		return nil, fmt.Errorf("sprite id is required")
	}
	if _, ok := st.index(sp.ID); ok {
		return nil, fmt.Errorf("duplicate sprite id %q", sp.ID)
	}
	if err := checkGeometry(sp); err != nil {
		return nil, fmt.Errorf("sprite %q: %w", sp.ID, err)
	}
	switch sp.Shape {
	case ShapeSquare, ShapeCircle:
	case "":
		sp.Shape = ShapeSquare
	default:
		return nil, fmt.Errorf("sprite %q: unknown shape %q", sp.ID, sp.Shape)
	}
	if sp.Shape == ShapeSquare && sp.Width == 0 && sp.Height == 0 {
		sp.Width, sp.Height = 30, 30
	}
	if sp.Shape == ShapeCircle && sp.Radius == 0 {
		sp.Radius = 20
	}
	if sp.RotationStyle == "" {
		sp.RotationStyle = RotateAll
	}
	if sp.Pen.Color == "" {
		sp.Pen.Color = colorspace.DefaultPenColor
	} else if _, err := colorspace.ParseHex(sp.Pen.Color); err != nil {
		return nil, fmt.Errorf("sprite %q pen: %w", sp.ID, err)
	}
	if sp.Pen.Size == 0 {
		sp.Pen.Size = 2
	}
	if sp.Pen.ColorDirection == 0 {
		sp.Pen.ColorDirection = 1
	}
	if sp.Pen.ShadeDirection == 0 {
		sp.Pen.ShadeDirection = 1
	}

	next := st.clone()
	next.Sprites = append(next.Sprites, sp)
	if next.Focused == "" {
		next.Focused = sp.ID
	}
	return next, nil
}

// Sprite looks up a sprite by id.
func (st *Stage) Sprite(id string) (Sprite, bool) {
	i, ok := st.index(id)
	if !ok {
		return Sprite{}, false
	}
	return st.Sprites[i], true
}

func (st *Stage) index(id string) (int, bool) {
	for i := range st.Sprites {
		if st.Sprites[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func (st *Stage) clone() *Stage {
	next := *st
	next.Sprites = append([]Sprite(nil), st.Sprites...)
	next.Trails = append([]Trail(nil), st.Trails...)
	return &next
}

// update applies fn to a copy of sprite id and returns the resulting stage.
func (st *Stage) update(id string, fn func(next *Stage, sp *Sprite) error) (*Stage, error) {
	i, ok := st.index(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSpriteNotFound, id)
	}
	next := st.clone()
	if err := fn(next, &next.Sprites[i]); err != nil {
		return nil, fmt.Errorf("sprite %q: %w", id, err)
	}
	return next, nil
}
