package render

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/disintegration/gift"
	"github.com/paulmach/orb"

	"github.com/MeKo-Tech/blockstage/internal/stage"
)

// Thumbnail scales img to fit within size x size and lightly antialiases it.
func Thumbnail(img image.Image, size int) *image.NRGBA {
	g := gift.New(
		gift.ResizeToFit(size, size, gift.LanczosResampling),
		gift.GaussianBlur(0.4),
	)
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}

// SpriteThumbnail renders a single sprite, unrotated and cropped to its
// bounds, as a size x size icon for the sprite picker.
func SpriteThumbnail(sp stage.Sprite, size int) *image.NRGBA {
	pad := sp.StrokeWidth
	b := sp.Bounds()

	// Move the sprite so its padded bounds start at the origin.
	off := orb.Point{pad - b.Min[0], pad - b.Min[1]}
	sp.X += off[0]
	sp.Y += off[1]
	sp.RotationStyle = stage.RotateNone

	solo := stage.New(math.Ceil(b.Right()-b.Left()+2*pad), math.Ceil(b.Top()-b.Bottom()+2*pad))
	solo.Sprites = []stage.Sprite{sp}

	full := NewRasterizer(Options{Scale: 1}).Render(solo)
	return Thumbnail(full, size)
}

// PNGCompression maps a config name to a png.CompressionLevel.
func PNGCompression(name string) (png.CompressionLevel, error) {
	switch name {
	case "", "default":
		return png.DefaultCompression, nil
	case "speed":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	case "none":
		return png.NoCompression, nil
	}
	return png.DefaultCompression, fmt.Errorf("invalid png compression %q: must be default, speed, best or none", name)
}

// EncodePNG encodes img with the given compression level.
func EncodePNG(img image.Image, level png.CompressionLevel) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: level}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
