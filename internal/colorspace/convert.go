// Package colorspace converts between #RRGGBB hex colors and HSV triples.
package colorspace

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

var (
	// ErrInvalidColorFormat is returned for strings that are not #RRGGBB.
	ErrInvalidColorFormat = errors.New("invalid color format")
	// ErrOutOfRangeComponent is returned for HSV components outside their domain.
	ErrOutOfRangeComponent = errors.New("color component out of range")
)

// RGBToHSV converts a #RRGGBB string to hue (degrees), saturation and value.
func RGBToHSV(color string) (HSV, error) {
	c, err := ParseHex(color)
	if err != nil {
		return HSV{}, err
	}
	return c.HSV(), nil
}

// HSVToRGB converts an HSV triple to three lowercase two-digit hex channels.
// The result is not joined; use JoinHex for a #rrggbb string.
func HSVToRGB(hsv HSV) ([3]string, error) {
	c, err := hsv.RGB()
	if err != nil {
		return [3]string{}, err
	}
	return [3]string{hexByte(c.R), hexByte(c.G), hexByte(c.B)}, nil
}

// HSVToHex converts an HSV triple straight to a #rrggbb string.
func HSVToHex(hsv HSV) (string, error) {
	parts, err := HSVToRGB(hsv)
	if err != nil {
		return "", err
	}
	return JoinHex(parts), nil
}

// JoinHex joins three hex channels into a #rrggbb string.
func JoinHex(parts [3]string) string {
	return "#" + parts[0] + parts[1] + parts[2]
}

// ParseHex parses a #RRGGBB string. Digits may be upper or lower case.
func ParseHex(color string) (RGB, error) {
	if len(color) != 7 || color[0] != '#' {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColorFormat, color)
	}

	var ch [3]uint8
	for i := range ch {
		v, err := strconv.ParseUint(color[1+2*i:3+2*i], 16, 8)
		if err != nil {
			return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColorFormat, color)
		}
		ch[i] = uint8(v)
	}

	return RGB{R: ch[0], G: ch[1], B: ch[2]}, nil
}

// hsvFromBytes holds the conversion math shared by RGB.HSV and the color model.
func hsvFromBytes(r, g, b uint8) HSV {
	rp := float64(r) / 255.0
	gp := float64(g) / 255.0
	bp := float64(b) / 255.0

	cmax := math.Max(rp, math.Max(gp, bp))
	cmin := math.Min(rp, math.Min(gp, bp))
	delta := cmax - cmin

	var h float64
	switch {
	case delta == 0:
		h = 0
	case cmax == rp:
		// math.Mod keeps the sign of the dividend, so h can be negative here.
		h = 60 * math.Mod((gp-bp)/delta, 6)
	case cmax == gp:
		h = 60 * ((bp-rp)/delta + 2)
	default:
		h = 60 * ((rp-gp)/delta + 4)
	}

	var s float64
	if cmax != 0 {
		s = delta / cmax
	}

	return HSV{H: NormalizeHue(h), S: s, V: cmax}
}

// rgbFromHSV converts a validated HSV triple to bytes.
func rgbFromHSV(hsv HSV) (RGB, error) {
	if err := hsv.validate(); err != nil {
		return RGB{}, err
	}

	h := NormalizeHue(hsv.H)
	c := hsv.V * hsv.S
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := hsv.V - c

	var rp, gp, bp float64
	switch {
	case h < 60:
		rp, gp, bp = c, x, 0
	case h < 120:
		rp, gp, bp = x, c, 0
	case h < 180:
		rp, gp, bp = 0, c, x
	case h < 240:
		rp, gp, bp = 0, x, c
	case h < 300:
		rp, gp, bp = x, 0, c
	default:
		rp, gp, bp = c, 0, x
	}

	return RGB{
		R: clampU8(math.Round((rp + m) * 255)),
		G: clampU8(math.Round((gp + m) * 255)),
		B: clampU8(math.Round((bp + m) * 255)),
	}, nil
}

// NormalizeHue wraps a hue in degrees into [0, 360).
func NormalizeHue(h float64) float64 {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return h
	}
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	// -tiny + 360 rounds to 360 in float64.
	if h >= 360 {
		h -= 360
	}
	return h
}

// clampU8 clamps a float channel to the uint8 range [0, 255].
func clampU8(x float64) uint8 {
	if x < 0 {
		return 0
	}
	if x > 255 {
		return 255
	}
	return uint8(x)
}

func hexByte(v uint8) string {
	if v < 16 {
		return "0" + strconv.FormatUint(uint64(v), 16)
	}
	return strconv.FormatUint(uint64(v), 16)
}
