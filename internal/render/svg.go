// Package render turns stage snapshots into SVG documents and PNG images.
package render

import (
	"fmt"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/MeKo-Tech/blockstage/internal/stage"
)

// hatchPath is the diagonal stroke repeated by the stage background pattern.
const hatchPath = "M-5,0,10,15m0-5,15,10"

// SVG writes st as a standalone SVG document whose viewBox matches the stage.
// Trails are drawn below sprites; sprites follow their draw order.
func SVG(w io.Writer, st *stage.Stage) {
	width, height := px(st.Width), px(st.Height)

	canvas := svg.New(w)
	canvas.Startview(width, height, 0, 0, width, height)
	canvas.Def()
	canvas.Pattern("pattern", 0, 0, 10, 10, "user")
	canvas.Path(hatchPath, "stroke:white;stroke-width:5")
	canvas.PatternEnd()
	canvas.DefEnd()
	canvas.Rect(0, 0, width, height, `id="background"`, "fill:url(#pattern)")

	for _, tr := range st.Trails {
		canvas.Line(px(tr.From[0]), px(tr.From[1]), px(tr.To[0]), px(tr.To[1]),
			`class="trail"`,
			fmt.Sprintf("stroke:%s;stroke-width:%g;stroke-linecap:round", tr.Color, tr.Width))
	}

	for _, sp := range st.Sprites {
		writeSprite(canvas, sp)
	}

	canvas.End()
}

func writeSprite(canvas *svg.SVG, sp stage.Sprite) {
	rotated := sp.Rotates()
	if rotated {
		c := sp.Center()
		canvas.Gtransform(fmt.Sprintf("rotate(%d,%d,%d)", px(sp.Rotation), px(c[0]), px(c[1])))
	}

	id := fmt.Sprintf(`id="%s"`, sp.ID)
	style := spriteStyle(sp)
	switch sp.Shape {
	case stage.ShapeCircle:
		canvas.Circle(px(sp.X), px(sp.Y), px(sp.Radius), id, style)
	default:
		canvas.Rect(px(sp.X), px(sp.Y), px(sp.Width), px(sp.Height), id, style)
	}

	if rotated {
		canvas.Gend()
	}
}

func spriteStyle(sp stage.Sprite) string {
	fill := sp.Fill
	if fill == "" {
		fill = "none"
	}
	if sp.Stroke == "" || sp.StrokeWidth <= 0 {
		return "fill:" + fill
	}
	return fmt.Sprintf("fill:%s;stroke:%s;stroke-width:%g", fill, sp.Stroke, sp.StrokeWidth)
}

// px rounds a stage coordinate to the integer grid svgo writes.
func px(v float64) int {
	return int(math.Round(v))
}
