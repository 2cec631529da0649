//go:build js && wasm
// +build js,wasm

package main

import (
	"fmt"
	"strings"
	"syscall/js"

	"github.com/MeKo-Tech/blockstage/internal/codegen"
	"github.com/MeKo-Tech/blockstage/internal/colorspace"
)

// rgbToHSV is called from JavaScript with a "#rrggbb" string and returns
// {h, s, v} or {error}.
func rgbToHSV(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return map[string]interface{}{"error": "missing arguments"}
	}

	hsv, err := colorspace.RGBToHSV(args[0].String())
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}
	return map[string]interface{}{"h": hsv.H, "s": hsv.S, "v": hsv.V}
}

// hsvToRGB takes h, s and v numbers and returns {r, g, b, hex} or {error}.
func hsvToRGB(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return map[string]interface{}{"error": "missing arguments"}
	}

	hsv := colorspace.HSV{H: args[0].Float(), S: args[1].Float(), V: args[2].Float()}
	parts, err := colorspace.HSVToRGB(hsv)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}
	return map[string]interface{}{
		"r":   parts[0],
		"g":   parts[1],
		"b":   parts[2],
		"hex": colorspace.JoinHex(parts),
	}
}

// generate turns a JSON workspace into interpreter code. The optional second
// argument is an options object: {export, highlight, sprite}.
func generate(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return map[string]interface{}{"error": "missing arguments"}
	}

	var opts codegen.Options
	if len(args) > 1 && args[1].Type() == js.TypeObject {
		o := args[1]
		if v := o.Get("export"); v.Type() == js.TypeBoolean {
			opts.Export = v.Bool()
		}
		if v := o.Get("highlight"); v.Type() == js.TypeBoolean {
			opts.Highlight = v.Bool()
		}
		if v := o.Get("sprite"); v.Type() == js.TypeString {
			opts.Sprite = v.String()
		}
	}

	ws, err := codegen.DecodeWorkspace(strings.NewReader(args[0].String()))
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}
	code, err := codegen.New(opts).WorkspaceToCode(ws)
	if err != nil {
		return map[string]interface{}{"error": err.Error()}
	}
	return map[string]interface{}{"code": code}
}

func initModule(this js.Value, args []js.Value) interface{} {
	fmt.Println("BlockStage WASM module initialized")
	return map[string]interface{}{"status": "ready"}
}

func main() {
	c := make(chan struct{})

	js.Global().Set("blockstageRGBToHSV", js.FuncOf(rgbToHSV))
	js.Global().Set("blockstageHSVToRGB", js.FuncOf(hsvToRGB))
	js.Global().Set("blockstageGenerate", js.FuncOf(generate))
	js.Global().Set("blockstageInit", js.FuncOf(initModule))

	fmt.Println("BlockStage WASM module loaded")
	<-c
}
