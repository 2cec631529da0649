package codegen

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownBlock is returned for block types without a generator.
	ErrUnknownBlock = errors.New("unknown block type")
	// ErrNotValue is returned when a statement block sits in a value input.
	ErrNotValue = errors.New("block does not produce a value")
)

// indent is prepended to every line of a nested statement chain.
const indent = "  "

// Fragment is the output of one block generator.
type Fragment struct {
	Code  string
	Order Order
	// Statement is true for blocks that chain through Next instead of
	// returning a value.
	Statement bool
}

// Value builds an expression fragment.
func Value(code string, order Order) Fragment {
	return Fragment{Code: code, Order: order}
}

// Statement builds a statement fragment.
func Statement(code string) Fragment {
	return Fragment{Code: code, Order: OrderNone, Statement: true}
}

// Func generates code for one block.
type Func func(g *Generator, b *Block) (Fragment, error)

// Options controls generation.
type Options struct {
	// Export emits code for download: logic value blocks produce nothing and
	// control_if keeps only its branch bodies.
	Export bool
	// Highlight prefixes every statement with a highlightBlock call so the
	// editor can follow execution.
	Highlight bool
	// Sprite is the target of motion and pen blocks unless the block names
	// one in its SPRITE field.
	Sprite string
}

// Generator maps block types to generator functions.
type Generator struct {
	funcs map[string]Func
	opts  Options
}

// New returns a generator with every built-in block registered.
func New(opts Options) *Generator {
	g := &Generator{funcs: make(map[string]Func), opts: opts}
	registerLogic(g)
	registerValues(g)
	registerStage(g)
	return g
}

// Register adds or replaces the generator for a block type.
func (g *Generator) Register(blockType string, fn Func) {
	g.funcs[blockType] = fn
}

// Types lists the registered block types.
func (g *Generator) Types() []string {
	types := make([]string, 0, len(g.funcs))
	for t := range g.funcs {
		types = append(types, t)
	}
	return types
}

// Export reports whether the generator is in export mode.
func (g *Generator) Export() bool {
	return g.opts.Export
}

// BlockToCode generates a single block. Statement blocks include the rest of
// their Next chain.
func (g *Generator) BlockToCode(b *Block) (Fragment, error) {
	if b == nil {
		return Fragment{}, nil
	}
	fn, ok := g.funcs[b.Type]
	if !ok {
		return Fragment{}, fmt.Errorf("%w: %q", ErrUnknownBlock, b.Type)
	}

	frag, err := fn(g, b)
	if err != nil {
		return Fragment{}, fmt.Errorf("block %s (%s): %w", b.ID, b.Type, err)
	}
	if !frag.Statement {
		return frag, nil
	}

	if g.opts.Highlight && b.ID != "" && !g.opts.Export {
		frag.Code = "highlightBlock(" + Quote(b.ID) + ");\n" + frag.Code
	}
	if b.Next != nil {
		next, err := g.BlockToCode(b.Next)
		if err != nil {
			return Fragment{}, err
		}
		frag.Code += next.Code
	}
	return frag, nil
}

// ValueToCode generates the block plugged into input name, wrapping it in
// parentheses when its precedence is looser than outer. An empty input
// yields "".
func (g *Generator) ValueToCode(b *Block, name string, outer Order) (string, error) {
	target := b.Inputs[name]
	if target == nil {
		return "", nil
	}

	frag, err := g.BlockToCode(target)
	if err != nil {
		return "", err
	}
	if frag.Statement {
		return "", fmt.Errorf("input %s: %w", name, ErrNotValue)
	}
	if frag.Code == "" {
		return "", nil
	}

	if outer <= frag.Order {
		// ATOMIC inside ATOMIC and NONE inside NONE never need parentheses.
		if !(outer == frag.Order && (outer == OrderAtomic || outer == OrderNone)) {
			return "(" + frag.Code + ")", nil
		}
	}
	return frag.Code, nil
}

// valueOr is ValueToCode with a fallback for empty inputs.
func (g *Generator) valueOr(b *Block, name string, outer Order, fallback string) (string, error) {
	code, err := g.ValueToCode(b, name, outer)
	if err != nil {
		return "", err
	}
	if code == "" {
		return fallback, nil
	}
	return code, nil
}

// StatementToCode generates the statement chain in input name, indented one
// level.
func (g *Generator) StatementToCode(b *Block, name string) (string, error) {
	target := b.Statements[name]
	if target == nil {
		return "", nil
	}

	frag, err := g.BlockToCode(target)
	if err != nil {
		return "", err
	}
	if !frag.Statement {
		return "", fmt.Errorf("statement input %s holds a value block %q", name, target.Type)
	}
	return prefixLines(frag.Code, indent), nil
}

// WorkspaceToCode generates every top-level chain in order. Top-level value
// blocks become expression statements.
func (g *Generator) WorkspaceToCode(ws *Workspace) (string, error) {
	if ws.Sprite != "" && g.opts.Sprite == "" {
		scoped := *g
		scoped.opts.Sprite = ws.Sprite
		g = &scoped
	}

	var sb strings.Builder
	for _, b := range ws.Blocks {
		frag, err := g.BlockToCode(b)
		if err != nil {
			return "", err
		}
		if frag.Code == "" {
			continue
		}
		sb.WriteString(frag.Code)
		if !frag.Statement {
			sb.WriteString(";\n")
		}
	}
	return sb.String(), nil
}

// sprite resolves the sprite a stage block acts on.
func (g *Generator) sprite(b *Block) (string, error) {
	if id := b.Field("SPRITE"); id != "" {
		return id, nil
	}
	if g.opts.Sprite != "" {
		return g.opts.Sprite, nil
	}
	return "", fmt.Errorf("no target sprite")
}

// prefixLines indents every line of code except a trailing empty one.
func prefixLines(code, prefix string) string {
	if code == "" {
		return ""
	}
	trailing := strings.HasSuffix(code, "\n")
	code = strings.TrimSuffix(code, "\n")
	code = prefix + strings.ReplaceAll(code, "\n", "\n"+prefix)
	if trailing {
		code += "\n"
	}
	return code
}

// Quote renders s as a single-quoted JavaScript string literal.
func Quote(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		"\n", `\n`,
		"\r", `\r`,
		"\u2028", `\u2028`,
		"\u2029", `\u2029`,
		"'", `\'`,
	)
	return "'" + r.Replace(s) + "'"
}
