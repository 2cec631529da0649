package colorspace

import (
	"fmt"
	"image/color"
	"math"
)

var (
	// HSVModel converts any color.Color to HSV.
	HSVModel = color.ModelFunc(hsvModel)
	// RGBModel converts any color.Color to opaque RGB bytes.
	RGBModel = color.ModelFunc(rgbModel)
)

// HSV is a hue/saturation/value triple.
// H is in degrees, S and V are fractions in [0, 1].
type HSV struct {
	H, S, V float64
}

// RGBA implements color.Color. Invalid triples render as opaque black.
func (c HSV) RGBA() (r, g, b, a uint32) {
	rgb, err := c.RGB()
	if err != nil {
		return 0, 0, 0, 0xffff
	}
	return rgb.RGBA()
}

// RGB converts the triple to bytes.
func (c HSV) RGB() (RGB, error) {
	return rgbFromHSV(c)
}

// String formats the triple for logs and CLI output.
func (c HSV) String() string {
	return fmt.Sprintf("hsv(%.2f, %.4f, %.4f)", c.H, c.S, c.V)
}

func (c HSV) validate() error {
	for _, v := range [3]float64{c.H, c.S, c.V} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %v", ErrOutOfRangeComponent, c)
		}
	}
	if c.S < 0 || c.S > 1 {
		return fmt.Errorf("%w: saturation %v not in [0,1]", ErrOutOfRangeComponent, c.S)
	}
	if c.V < 0 || c.V > 1 {
		return fmt.Errorf("%w: value %v not in [0,1]", ErrOutOfRangeComponent, c.V)
	}
	return nil
}

// RGB is an opaque 8-bit color.
type RGB struct {
	R, G, B uint8
}

// RGBA implements color.Color.
func (c RGB) RGBA() (r, g, b, a uint32) {
	r = uint32(c.R)
	r |= r << 8
	g = uint32(c.G)
	g |= g << 8
	b = uint32(c.B)
	b |= b << 8
	return r, g, b, 0xffff
}

// HSV converts the color to an HSV triple.
func (c RGB) HSV() HSV {
	return hsvFromBytes(c.R, c.G, c.B)
}

// Hex returns the lowercase #rrggbb form.
func (c RGB) Hex() string {
	return "#" + hexByte(c.R) + hexByte(c.G) + hexByte(c.B)
}

// NRGBA returns the color as an opaque color.NRGBA.
func (c RGB) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

func hsvModel(c color.Color) color.Color {
	if _, ok := c.(HSV); ok {
		return c
	}
	return rgbModel(c).(RGB).HSV()
}

func rgbModel(c color.Color) color.Color {
	if _, ok := c.(RGB); ok {
		return c
	}
	// Un-premultiply translucent colors, then drop alpha.
	r, g, b, a := c.RGBA()
	if a != 0xffff && a != 0 {
		r = r * 0xffff / a
		g = g * 0xffff / a
		b = b * 0xffff / a
	}
	return RGB{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}
