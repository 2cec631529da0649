package codegen

import (
	"fmt"
	"strconv"
	"strings"
)

var compareOperators = map[string]string{
	"EQ":  "==",
	"NEQ": "!=",
	"LT":  "<",
	"LTE": "<=",
	"GT":  ">",
	"GTE": ">=",
}

func registerLogic(g *Generator) {
	g.Register("control_if", genIf)
	g.Register("controls_if", genIf)
	g.Register("logic_compare", genCompare)
	g.Register("logic_operation", genOperation)
	g.Register("logic_negate", genNegate)
	g.Register("logic_boolean", genBoolean)
	g.Register("logic_null", genNull)
	g.Register("logic_ternary", genTernary)
}

func genIf(g *Generator, b *Block) (Fragment, error) {
	if g.Export() {
		var sb strings.Builder
		for n := 0; n <= b.Mutation.ElseIf; n++ {
			branch, err := g.StatementToCode(b, "DO"+strconv.Itoa(n))
			if err != nil {
				return Fragment{}, err
			}
			sb.WriteString(branch)
		}
		if b.Mutation.Else {
			branch, err := g.StatementToCode(b, "ELSE")
			if err != nil {
				return Fragment{}, err
			}
			sb.WriteString(branch)
		}
		return Statement(sb.String()), nil
	}

	var sb strings.Builder
	for n := 0; n <= b.Mutation.ElseIf; n++ {
		cond, err := g.valueOr(b, "IF"+strconv.Itoa(n), OrderNone, "false")
		if err != nil {
			return Fragment{}, err
		}
		branch, err := g.StatementToCode(b, "DO"+strconv.Itoa(n))
		if err != nil {
			return Fragment{}, err
		}
		if n > 0 {
			sb.WriteString(" else ")
		}
		fmt.Fprintf(&sb, "if (%s) {\n%s}", cond, branch)
	}
	if b.Mutation.Else {
		branch, err := g.StatementToCode(b, "ELSE")
		if err != nil {
			return Fragment{}, err
		}
		fmt.Fprintf(&sb, " else {\n%s}", branch)
	}
	sb.WriteString("\n")
	return Statement(sb.String()), nil
}

func genCompare(g *Generator, b *Block) (Fragment, error) {
	if g.Export() {
		return Value("", OrderAtomic), nil
	}
	op, ok := compareOperators[b.Field("OP")]
	if !ok {
		return Fragment{}, fmt.Errorf("unknown comparison %q", b.Field("OP"))
	}
	order := OrderRelational
	if op == "==" || op == "!=" {
		order = OrderEquality
	}
	a, err := g.valueOr(b, "A", order, "0")
	if err != nil {
		return Fragment{}, err
	}
	c, err := g.valueOr(b, "B", order, "0")
	if err != nil {
		return Fragment{}, err
	}
	return Value(a+" "+op+" "+c, order), nil
}

func genOperation(g *Generator, b *Block) (Fragment, error) {
	if g.Export() {
		return Value("", OrderAtomic), nil
	}
	op, order, missing := "||", OrderLogicalOr, "false"
	if b.Field("OP") == "AND" {
		op, order, missing = "&&", OrderLogicalAnd, "true"
	}

	a, err := g.ValueToCode(b, "A", order)
	if err != nil {
		return Fragment{}, err
	}
	c, err := g.ValueToCode(b, "B", order)
	if err != nil {
		return Fragment{}, err
	}

	switch {
	case a == "" && c == "":
		a, c = "false", "false"
	case a == "":
		// A single missing operand must not change the result.
		a = missing
	case c == "":
		c = missing
	}
	return Value(a+" "+op+" "+c, order), nil
}

func genNegate(g *Generator, b *Block) (Fragment, error) {
	if g.Export() {
		return Value("", OrderAtomic), nil
	}
	arg, err := g.valueOr(b, "BOOL", OrderLogicalNot, "true")
	if err != nil {
		return Fragment{}, err
	}
	return Value("!"+arg, OrderLogicalNot), nil
}

func genBoolean(g *Generator, b *Block) (Fragment, error) {
	if g.Export() {
		return Value("", OrderAtomic), nil
	}
	if b.Field("BOOL") == "TRUE" {
		return Value("true", OrderAtomic), nil
	}
	return Value("false", OrderAtomic), nil
}

func genNull(g *Generator, _ *Block) (Fragment, error) {
	if g.Export() {
		return Value("", OrderAtomic), nil
	}
	return Value("null", OrderAtomic), nil
}

func genTernary(g *Generator, b *Block) (Fragment, error) {
	if g.Export() {
		return Value("", OrderAtomic), nil
	}
	cond, err := g.valueOr(b, "IF", OrderConditional, "false")
	if err != nil {
		return Fragment{}, err
	}
	then, err := g.valueOr(b, "THEN", OrderConditional, "null")
	if err != nil {
		return Fragment{}, err
	}
	els, err := g.valueOr(b, "ELSE", OrderConditional, "null")
	if err != nil {
		return Fragment{}, err
	}
	return Value(cond+" ? "+then+" : "+els, OrderConditional), nil
}
