package codegen

import (
	"strings"
)

// call describes a statement block that becomes one interpreter call on the
// target sprite.
type call struct {
	fn     string
	inputs []string
	// defaults fills inputs that have nothing plugged in.
	defaults []string
	// repeat passes the first argument twice, as rotateClock expects.
	repeat bool
}

var stageCalls = map[string]call{
	"motion_move_steps":   {fn: "moveStep", inputs: []string{"STEPS"}, defaults: []string{"10"}},
	"motion_turn_right":   {fn: "rotateClock", inputs: []string{"DEGREES"}, defaults: []string{"15"}, repeat: true},
	"motion_set_x":        {fn: "setX", inputs: []string{"X"}, defaults: []string{"0"}},
	"motion_set_y":        {fn: "setY", inputs: []string{"Y"}, defaults: []string{"0"}},
	"motion_change_x":     {fn: "changeX", inputs: []string{"DX"}, defaults: []string{"10"}},
	"motion_change_y":     {fn: "changeY", inputs: []string{"DY"}, defaults: []string{"10"}},
	"motion_goto_xy":      {fn: "gotoXY", inputs: []string{"X", "Y"}, defaults: []string{"0", "0"}},
	"motion_glide_to":     {fn: "glideTo", inputs: []string{"SECS", "X", "Y"}, defaults: []string{"1", "0", "0"}},
	"motion_point_in":     {fn: "pointIn", inputs: []string{"DIRECTION"}, defaults: []string{"90"}},
	"pen_down":            {fn: "penDown"},
	"pen_up":              {fn: "penUp"},
	"pen_change_color_by": {fn: "changePenColorBy", inputs: []string{"VALUE"}, defaults: []string{"10"}},
	"pen_change_shade_by": {fn: "changePenShadeBy", inputs: []string{"VALUE"}, defaults: []string{"10"}},
	"pen_set_color":       {fn: "setPenColor", inputs: []string{"COLOR"}, defaults: []string{"'#00adef'"}},
	"pen_set_size":        {fn: "setPenSize", inputs: []string{"SIZE"}, defaults: []string{"1"}},
	"motion_set_rotation": {fn: "setRotationStyle", inputs: []string{"STYLE"}, defaults: []string{"'all around'"}},
	"looks_go_to_front":   {fn: "bringToFront"},
	"pen_stamp":           {fn: "draw"},
	"pen_clear":           {fn: "clearTrails"},
}

func registerStage(g *Generator) {
	for typ, c := range stageCalls {
		g.Register(typ, c.generate)
	}
	g.Register("console_print", genPrint)
}

func (c call) generate(g *Generator, b *Block) (Fragment, error) {
	id, err := g.sprite(b)
	if err != nil {
		return Fragment{}, err
	}

	args := []string{Quote(id)}
	for i, name := range c.inputs {
		arg, err := g.valueOr(b, name, OrderComma, c.defaults[i])
		if err != nil {
			return Fragment{}, err
		}
		args = append(args, arg)
		if c.repeat && i == 0 {
			args = append(args, arg)
		}
	}
	return Statement(c.fn + "(" + strings.Join(args, ", ") + ");\n"), nil
}

func genPrint(g *Generator, b *Block) (Fragment, error) {
	text, err := g.valueOr(b, "TEXT", OrderComma, "''")
	if err != nil {
		return Fragment{}, err
	}
	return Statement("addConsoleText(" + text + ");\n"), nil
}
