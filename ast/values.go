package ast

import "fmt"

// ValueNode is satisfied by any AST node that can appear as an option
// value: a string, a signed integer, a float, a bool, a bare identifier
// (an enum constant reference), or an aggregate (§3.2, §9 "Option value
// is Any" closed variant).
type ValueNode interface {
	Node
	// Value returns the decoded Go value: string, int64, uint64, float64,
	// bool, or *AggregateLiteralNode.
	Value() interface{}
}

// StringLiteralNode is a single- or double-quoted string literal. Val is
// the decoded value (after escape processing); adjacent string literals
// are not concatenated by the lexer/parser in this implementation (proto3
// does not require it outside of this front-end's scope).
type StringLiteralNode struct {
	TerminalNode
	Val string
}

func NewStringLiteralNode(val string, tok Token) *StringLiteralNode {
	return &StringLiteralNode{TerminalNode: TerminalNode{Tok: tok}, Val: val}
}

func (n *StringLiteralNode) Value() interface{} { return n.Val }

// UintLiteralNode is an unsigned integer literal (decimal, hex, octal, or
// binary -- the lexer normalizes all of them to their numeric value).
type UintLiteralNode struct {
	TerminalNode
	Val uint64
}

func NewUintLiteralNode(val uint64, tok Token) *UintLiteralNode {
	return &UintLiteralNode{TerminalNode: TerminalNode{Tok: tok}, Val: val}
}

func (n *UintLiteralNode) Value() interface{} { return n.Val }

// FloatLiteralNode is a floating-point literal.
type FloatLiteralNode struct {
	TerminalNode
	Val float64
}

func NewFloatLiteralNode(val float64, tok Token) *FloatLiteralNode {
	return &FloatLiteralNode{TerminalNode: TerminalNode{Tok: tok}, Val: val}
}

func (n *FloatLiteralNode) Value() interface{} { return n.Val }

// BoolLiteralNode represents the keyword-like literals "true" and
// "false" when they appear in value position.
type BoolLiteralNode struct {
	TerminalNode
	Val bool
}

func NewBoolLiteralNode(val bool, tok Token) *BoolLiteralNode {
	return &BoolLiteralNode{TerminalNode: TerminalNode{Tok: tok}, Val: val}
}

func (n *BoolLiteralNode) Value() interface{} { return n.Val }

// SignedNumberNode wraps a numeric literal with a leading '+' or '-' in
// option-value position. The lexer always emits the sign as a separate
// punctuation token; the parser joins it with the literal that follows.
type SignedNumberNode struct {
	span
	Sign  *RuneNode
	Inner ValueNode
}

func NewSignedNumberNode(sign *RuneNode, inner ValueNode) *SignedNumberNode {
	return &SignedNumberNode{span: newSpan(sign, inner), Sign: sign, Inner: inner}
}

func (n *SignedNumberNode) Value() interface{} {
	neg := n.Sign.Rune == '-'
	switch v := n.Inner.Value().(type) {
	case uint64:
		if neg {
			return -int64(v)
		}
		return int64(v)
	case float64:
		if neg {
			return -v
		}
		return v
	default:
		panic(fmt.Sprintf("unexpected signed literal kind %T", v))
	}
}

// IdentValueLiteralNode adapts an identifier appearing in value position
// (an enum constant reference in an option value) to ValueNode.
type IdentValueLiteralNode struct {
	*IdentNode
}

func (n IdentValueLiteralNode) Value() interface{} { return n.Val }

// AggregateLiteralNode represents a "{ k: v, k: v, ... }" option value.
// Entries preserve declaration order.
type AggregateLiteralNode struct {
	span
	OpenBrace  *RuneNode
	Entries    []*AggregateEntryNode
	CloseBrace *RuneNode
}

func NewAggregateLiteralNode(open *RuneNode, entries []*AggregateEntryNode, close *RuneNode) *AggregateLiteralNode {
	return &AggregateLiteralNode{span: newSpan(open, close), OpenBrace: open, Entries: entries, CloseBrace: close}
}

func (n *AggregateLiteralNode) Value() interface{} { return n }

// AggregateEntryNode is one "name: value" (or "name { ... }") pair inside
// an aggregate option literal.
type AggregateEntryNode struct {
	span
	Name  *OptionNamePartNode
	Colon *RuneNode // nil when the value is itself an aggregate (no colon required)
	Val   ValueNode
}

func NewAggregateEntryNode(name *OptionNamePartNode, colon *RuneNode, val ValueNode) *AggregateEntryNode {
	last := Node(val)
	return &AggregateEntryNode{span: newSpan(name, last), Name: name, Colon: colon, Val: val}
}
