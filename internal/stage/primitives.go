package stage

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// MoveStep moves a sprite steps units along the x axis.
func (st *Stage) MoveStep(id string, steps float64) (*Stage, error) {
	return st.update(id, func(next *Stage, sp *Sprite) error {
		return next.moveTo(sp, sp.X+steps, sp.Y)
	})
}

// RotateClockwise turns a sprite by deg degrees.
func (st *Stage) RotateClockwise(id string, deg float64) (*Stage, error) {
	return st.update(id, func(_ *Stage, sp *Sprite) error {
		if err := checkAngle(deg); err != nil {
			return err
		}
		sp.Rotation = wrapDegrees(sp.Rotation + deg)
		return nil
	})
}

// SetX sets the sprite's x coordinate.
func (st *Stage) SetX(id string, x float64) (*Stage, error) {
	return st.update(id, func(next *Stage, sp *Sprite) error {
		return next.moveTo(sp, x, sp.Y)
	})
}

// SetY sets the sprite's y coordinate.
func (st *Stage) SetY(id string, y float64) (*Stage, error) {
	return st.update(id, func(next *Stage, sp *Sprite) error {
		return next.moveTo(sp, sp.X, y)
	})
}

// ChangeX moves the sprite horizontally by dx.
func (st *Stage) ChangeX(id string, dx float64) (*Stage, error) {
	return st.update(id, func(next *Stage, sp *Sprite) error {
		return next.moveTo(sp, sp.X+dx, sp.Y)
	})
}

// ChangeY moves the sprite vertically by dy.
func (st *Stage) ChangeY(id string, dy float64) (*Stage, error) {
	return st.update(id, func(next *Stage, sp *Sprite) error {
		return next.moveTo(sp, sp.X, sp.Y+dy)
	})
}

// GoToXY moves the sprite to (x, y). A nil coordinate keeps its current value.
func (st *Stage) GoToXY(id string, x, y *float64) (*Stage, error) {
	return st.update(id, func(next *Stage, sp *Sprite) error {
		nx, ny := sp.X, sp.Y
		if x != nil {
			nx = *x
		}
		if y != nil {
			ny = *y
		}
		return next.moveTo(sp, nx, ny)
	})
}

// GlideBy returns the end state of a glide by (dx, dy). The editor animates
// the transition itself.
func (st *Stage) GlideBy(id string, dx, dy float64) (*Stage, error) {
	return st.update(id, func(next *Stage, sp *Sprite) error {
		return next.moveTo(sp, sp.X+dx, sp.Y+dy)
	})
}

// PointIn turns the sprite to face dir, rotating by the difference from its
// previous direction.
func (st *Stage) PointIn(id string, dir float64) (*Stage, error) {
	return st.update(id, func(_ *Stage, sp *Sprite) error {
		if err := checkAngle(dir); err != nil {
			return err
		}
		sp.Rotation = wrapDegrees(sp.Rotation + sp.PointDir - dir)
		sp.PointDir = dir
		return nil
	})
}

// SetRotationStyle switches rendering of the sprite's rotation on or off.
func (st *Stage) SetRotationStyle(id string, style RotationStyle) (*Stage, error) {
	return st.update(id, func(_ *Stage, sp *Sprite) error {
		sp.RotationStyle = style
		return nil
	})
}

// PenDown starts leaving trails when the sprite moves.
func (st *Stage) PenDown(id string) (*Stage, error) {
	return st.update(id, func(_ *Stage, sp *Sprite) error {
		sp.Pen = sp.Pen.Lower()
		return nil
	})
}

// PenUp stops leaving trails.
func (st *Stage) PenUp(id string) (*Stage, error) {
	return st.update(id, func(_ *Stage, sp *Sprite) error {
		sp.Pen = sp.Pen.Raise()
		return nil
	})
}

// SetPenColor sets the pen to a #RRGGBB color.
func (st *Stage) SetPenColor(id, hex string) (*Stage, error) {
	return st.update(id, func(_ *Stage, sp *Sprite) error {
		pen, err := sp.Pen.SetColor(hex)
		sp.Pen = pen
		return err
	})
}

// ChangePenColorBy shifts the pen hue by delta degrees.
func (st *Stage) ChangePenColorBy(id string, delta float64) (*Stage, error) {
	return st.update(id, func(_ *Stage, sp *Sprite) error {
		pen, err := sp.Pen.ChangeColorBy(delta)
		sp.Pen = pen
		return err
	})
}

// ChangePenShadeBy shifts the pen brightness by delta percent.
func (st *Stage) ChangePenShadeBy(id string, delta float64) (*Stage, error) {
	return st.update(id, func(_ *Stage, sp *Sprite) error {
		pen, err := sp.Pen.ChangeShadeBy(delta)
		sp.Pen = pen
		return err
	})
}

// SetPenSize sets the trail width.
func (st *Stage) SetPenSize(id string, size float64) (*Stage, error) {
	return st.update(id, func(_ *Stage, sp *Sprite) error {
		if err := checkCoord("pen size", size); err != nil {
			return err
		}
		pen, err := sp.Pen.SetSize(size)
		sp.Pen = pen
		return err
	})
}

// Draw adds a trail from the sprite's center to center+(dx, dy) without
// moving the sprite, and brings the sprite to the front.
func (st *Stage) Draw(id string, dx, dy float64) (*Stage, error) {
	next, err := st.update(id, func(next *Stage, sp *Sprite) error {
		c := sp.Center()
		to := orb.Point{c[0] + dx, c[1] + dy}
		if err := checkPoint(to); err != nil {
			return err
		}
		next.Trails = append(next.Trails, Trail{
			From:  c,
			To:    to,
			Color: sp.Pen.Color,
			Width: sp.Pen.Size,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next.BringToFront(id)
}

// ClearTrails removes every pen trail.
func (st *Stage) ClearTrails() *Stage {
	next := st.clone()
	next.Trails = nil
	return next
}

// BringToFront moves the sprite to the end of the draw order.
func (st *Stage) BringToFront(id string) (*Stage, error) {
	i, ok := st.index(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSpriteNotFound, id)
	}
	next := st.clone()
	sp := next.Sprites[i]
	next.Sprites = append(next.Sprites[:i], next.Sprites[i+1:]...)
	next.Sprites = append(next.Sprites, sp)
	return next, nil
}

// SwitchSprite stores the editor's current program text on the focused
// sprite, focuses id and returns the program stored on it.
func (st *Stage) SwitchSprite(id, currentProgram string) (*Stage, string, error) {
	target, ok := st.index(id)
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrSpriteNotFound, id)
	}
	next := st.clone()
	if cur, ok := next.index(next.Focused); ok {
		next.Sprites[cur].Program = currentProgram
	}
	next.Focused = id
	return next, next.Sprites[target].Program, nil
}

// moveTo repositions sp and records a trail when its pen is down.
// Positions beyond MaxCoordinate are rejected.
func (st *Stage) moveTo(sp *Sprite, x, y float64) error {
	if err := checkPoint(orb.Point{x, y}); err != nil {
		return err
	}
	from := sp.Center()
	sp.X, sp.Y = x, y
	if !sp.Pen.Down {
		return nil
	}
	to := sp.Center()
	if from == to {
		return nil
	}
	st.Trails = append(st.Trails, Trail{
		From:  from,
		To:    to,
		Color: sp.Pen.Color,
		Width: sp.Pen.Size,
	})
	return nil
}

// wrapDegrees maps an angle into [0, 360).
func wrapDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg -= 360
	}
	return deg
}
