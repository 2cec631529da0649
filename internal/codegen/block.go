// Package codegen translates block trees from the visual editor into
// JavaScript for the external program interpreter.
package codegen

import (
	"encoding/json"
	"fmt"
	"io"
)

// Order is the JavaScript operator precedence of a generated expression.
// Lower binds tighter.
type Order int

const (
	OrderAtomic        Order = 0
	OrderMember        Order = 1
	OrderNew           Order = 1
	OrderFunctionCall  Order = 2
	OrderIncrement     Order = 3
	OrderDecrement     Order = 3
	OrderLogicalNot    Order = 4
	OrderUnaryNegation Order = 4
	OrderTypeof        Order = 4
	OrderMultiply      Order = 5
	OrderDivision      Order = 5
	OrderModulus       Order = 5
	OrderAddition      Order = 6
	OrderSubtraction   Order = 6
	OrderBitwiseShift  Order = 7
	OrderRelational    Order = 8
	OrderEquality      Order = 9
	OrderBitwiseAnd    Order = 10
	OrderBitwiseXor    Order = 11
	OrderBitwiseOr     Order = 12
	OrderLogicalAnd    Order = 13
	OrderLogicalOr     Order = 14
	OrderConditional   Order = 15
	OrderAssignment    Order = 16
	OrderComma         Order = 17
	OrderNone          Order = 99
)

// Block is one block instance from the editor.
// Inputs hold value sockets, Statements hold nested statement chains.
type Block struct {
	ID         string            `json:"id,omitempty"`
	Type       string            `json:"type"`
	Fields     map[string]string `json:"fields,omitempty"`
	Inputs     map[string]*Block `json:"inputs,omitempty"`
	Statements map[string]*Block `json:"statements,omitempty"`
	Next       *Block            `json:"next,omitempty"`
	Mutation   Mutation          `json:"mutation,omitempty"`
}

// Mutation carries the extra shape of blocks like control_if.
type Mutation struct {
	ElseIf int  `json:"elseif,omitempty"`
	Else   bool `json:"else,omitempty"`
}

// Field returns a field value or "" when unset.
func (b *Block) Field(name string) string {
	if b == nil || b.Fields == nil {
		return ""
	}
	return b.Fields[name]
}

// Workspace is the set of top-level block chains of one sprite.
type Workspace struct {
	Sprite string   `json:"sprite,omitempty"`
	Blocks []*Block `json:"blocks"`
}

// DecodeWorkspace reads a workspace from its JSON form.
func DecodeWorkspace(r io.Reader) (*Workspace, error) {
	var ws Workspace
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ws); err != nil {
		return nil, fmt.Errorf("failed to decode workspace: %w", err)
	}
	return &ws, nil
}
