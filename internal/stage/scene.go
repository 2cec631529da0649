package stage

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrUnknownOp is returned by Apply for an op name it does not know.
var ErrUnknownOp = errors.New("unknown op")

// Op is one recorded primitive call. Which fields are read depends on Op.
type Op struct {
	Op     string   `yaml:"op" json:"op"`
	Sprite string   `yaml:"sprite,omitempty" json:"sprite,omitempty"`
	X      *float64 `yaml:"x,omitempty" json:"x,omitempty"`
	Y      *float64 `yaml:"y,omitempty" json:"y,omitempty"`
	Value  float64  `yaml:"value,omitempty" json:"value,omitempty"`
	Color  string   `yaml:"color,omitempty" json:"color,omitempty"`
	Style  string   `yaml:"style,omitempty" json:"style,omitempty"`
}

// Scene is the on-disk description of a stage plus a list of ops to replay.
type Scene struct {
	Width   float64  `yaml:"width"`
	Height  float64  `yaml:"height"`
	Sprites []Sprite `yaml:"sprites"`
	Ops     []Op     `yaml:"ops"`
}

// LoadScene reads a YAML scene file.
func LoadScene(path string) (*Scene, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene: %w", err)
	}
	defer f.Close()

	return DecodeScene(f)
}

// DecodeScene parses a YAML scene. Unknown keys are rejected.
func DecodeScene(r io.Reader) (*Scene, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var sc Scene
	if err := dec.Decode(&sc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse scene: %w", err)
	}
	return &sc, nil
}

// Stage builds the initial stage. A scene without sprites starts from
// DefaultStage.
func (sc *Scene) Stage() (*Stage, error) {
	for _, side := range []float64{sc.Width, sc.Height} {
		if math.IsNaN(side) || side < 0 || side > MaxStageSide {
			return nil, fmt.Errorf("%w: stage size %vx%v", ErrOutOfRange, sc.Width, sc.Height)
		}
	}
	if len(sc.Sprites) == 0 {
		st := DefaultStage()
		if sc.Width > 0 {
			st.Width = sc.Width
		}
		if sc.Height > 0 {
			st.Height = sc.Height
		}
		return st, nil
	}

	st := New(sc.Width, sc.Height)
	for _, sp := range sc.Sprites {
		next, err := st.AddSprite(sp)
		if err != nil {
			return nil, err
		}
		st = next
	}
	return st, nil
}

// Replay applies ops in order and returns the stage after each one.
// It stops at the first failing op.
func Replay(st *Stage, ops []Op) ([]*Stage, error) {
	frames := make([]*Stage, 0, len(ops))
	for i, op := range ops {
		next, err := Apply(st, op)
		if err != nil {
			return frames, fmt.Errorf("op %d (%s): %w", i, op.Op, err)
		}
		frames = append(frames, next)
		st = next
	}
	return frames, nil
}

// Apply runs a single op against st.
func Apply(st *Stage, op Op) (*Stage, error) {
	id := op.Sprite
	if id == "" {
		id = st.Focused
	}

	switch op.Op {
	case "move_step":
		return st.MoveStep(id, op.Value)
	case "rotate":
		return st.RotateClockwise(id, op.Value)
	case "set_x":
		x, err := required(op.X, "x")
		if err != nil {
			return nil, err
		}
		return st.SetX(id, x)
	case "set_y":
		y, err := required(op.Y, "y")
		if err != nil {
			return nil, err
		}
		return st.SetY(id, y)
	case "change_x":
		return st.ChangeX(id, op.Value)
	case "change_y":
		return st.ChangeY(id, op.Value)
	case "goto":
		return st.GoToXY(id, op.X, op.Y)
	case "glide":
		return st.GlideBy(id, deref(op.X), deref(op.Y))
	case "point_in":
		return st.PointIn(id, op.Value)
	case "rotation_style":
		style, err := ParseRotationStyle(op.Style)
		if err != nil {
			return nil, err
		}
		return st.SetRotationStyle(id, style)
	case "pen_down":
		return st.PenDown(id)
	case "pen_up":
		return st.PenUp(id)
	case "set_pen_color":
		return st.SetPenColor(id, op.Color)
	case "change_pen_color":
		return st.ChangePenColorBy(id, op.Value)
	case "change_pen_shade":
		return st.ChangePenShadeBy(id, op.Value)
	case "set_pen_size":
		return st.SetPenSize(id, op.Value)
	case "draw":
		return st.Draw(id, deref(op.X), deref(op.Y))
	case "clear":
		return st.ClearTrails(), nil
	case "front":
		return st.BringToFront(id)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOp, op.Op)
}

func required(v *float64, name string) (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("missing %s", name)
	}
	return *v, nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
