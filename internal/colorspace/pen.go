package colorspace

import (
	"fmt"
	"math"
	"strings"
)

// DefaultPenColor is the pen color new sprites start with.
const DefaultPenColor = "#00adef"

// Pen is the drawing state carried by a sprite.
// ColorDirection and ShadeDirection are +1 or -1.
type Pen struct {
	Color          string  `yaml:"color" json:"color"`
	Size           float64 `yaml:"size" json:"size"`
	Down           bool    `yaml:"down" json:"down"`
	ColorDirection int     `yaml:"color_direction" json:"colorDirection"`
	ShadeDirection int     `yaml:"shade_direction" json:"shadeDirection"`
}

// DefaultPen returns a raised pen with the default color and size 2.
func DefaultPen() Pen {
	return Pen{
		Color:          DefaultPenColor,
		Size:           2,
		ColorDirection: 1,
		ShadeDirection: 1,
	}
}

// Lower puts the pen down so movement draws.
func (p Pen) Lower() Pen {
	p.Down = true
	return p
}

// Raise lifts the pen.
func (p Pen) Raise() Pen {
	p.Down = false
	return p
}

// SetColor validates and stores a #RRGGBB color in lowercase.
func (p Pen) SetColor(hex string) (Pen, error) {
	if _, err := ParseHex(hex); err != nil {
		return p, err
	}
	p.Color = strings.ToLower(hex)
	return p, nil
}

// SetSize sets the stroke width.
func (p Pen) SetSize(size float64) (Pen, error) {
	if size <= 0 {
		return p, fmt.Errorf("%w: pen size %v must be positive", ErrOutOfRangeComponent, size)
	}
	p.Size = size
	return p, nil
}

// ChangeColorBy rotates the pen hue by delta degrees in the pen's color direction.
func (p Pen) ChangeColorBy(delta float64) (Pen, error) {
	hsv, err := RGBToHSV(p.Color)
	if err != nil {
		return p, err
	}
	hsv.H = NormalizeHue(hsv.H + delta*float64(direction(p.ColorDirection)))
	return p.withHSV(hsv)
}

// ChangeShadeBy moves the pen value by delta percent. When V leaves [0, 1]
// it is reflected back into range and the shade direction flips once per
// reflection.
func (p Pen) ChangeShadeBy(delta float64) (Pen, error) {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return p, fmt.Errorf("%w: shade delta %v", ErrOutOfRangeComponent, delta)
	}
	hsv, err := RGBToHSV(p.Color)
	if err != nil {
		return p, err
	}
	dir := direction(p.ShadeDirection)
	v, flips := reflectUnit(hsv.V + delta/100*float64(dir))
	if flips {
		dir = -dir
	}
	hsv.V = v
	p.ShadeDirection = dir
	return p.withHSV(hsv)
}

// reflectUnit folds v into [0, 1] as if it bounced between the bounds and
// reports whether it bounced an odd number of times.
func reflectUnit(v float64) (float64, bool) {
	if v >= 0 && v <= 1 {
		return v, false
	}
	var bounces float64
	if v > 1 {
		bounces = math.Ceil(v) - 1
	} else {
		bounces = math.Ceil(-v)
	}
	folded := math.Mod(math.Abs(v), 2)
	if folded > 1 {
		folded = 2 - folded
	}
	return folded, math.Mod(bounces, 2) == 1
}

func (p Pen) withHSV(hsv HSV) (Pen, error) {
	hex, err := HSVToHex(hsv)
	if err != nil {
		return p, err
	}
	p.Color = hex
	return p, nil
}

func direction(d int) int {
	if d < 0 {
		return -1
	}
	return 1
}
