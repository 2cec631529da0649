package codegen

import (
	"fmt"
	"math"
	"strconv"
)

func registerValues(g *Generator) {
	g.Register("math_number", genNumber)
	g.Register("text", genText)
	g.Register("colour_picker", genColour)
}

func genNumber(_ *Generator, b *Block) (Fragment, error) {
	raw := b.Field("NUM")
	if raw == "" {
		return Value("0", OrderAtomic), nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return Fragment{}, fmt.Errorf("invalid number %q", raw)
	}
	code := strconv.FormatFloat(n, 'f', -1, 64)
	if n < 0 {
		return Value(code, OrderUnaryNegation), nil
	}
	return Value(code, OrderAtomic), nil
}

func genText(_ *Generator, b *Block) (Fragment, error) {
	return Value(Quote(b.Field("TEXT")), OrderAtomic), nil
}

func genColour(_ *Generator, b *Block) (Fragment, error) {
	return Value(Quote(b.Field("COLOUR")), OrderAtomic), nil
}
