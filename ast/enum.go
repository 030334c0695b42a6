package ast

// EnumElement is implemented by the nodes that can appear inside an enum
// body: values and options (§3.2 EnumNode).
type EnumElement interface {
	Node
	enumElement()
}

// EnumNode represents one "enum Name { ... }" declaration.
type EnumNode struct {
	span
	Keyword *KeywordNode
	Name    *IdentNode
	Open    *RuneNode
	Decls   []EnumElement
	Close   *RuneNode
}

func NewEnumNode(kw *KeywordNode, name *IdentNode, open *RuneNode, decls []EnumElement, close *RuneNode) *EnumNode {
	return &EnumNode{span: newSpan(kw, close), Keyword: kw, Name: name, Open: open, Decls: decls, Close: close}
}

func (n *EnumNode) fileElement() {}
func (n *EnumNode) msgElement()  {}

func (n *EnumNode) Values() []*EnumValueNode {
	var out []*EnumValueNode
	for _, d := range n.Decls {
		if v, ok := d.(*EnumValueNode); ok {
			out = append(out, v)
		}
	}
	return out
}

func (n *EnumNode) Options() []*OptionNode {
	var out []*OptionNode
	for _, d := range n.Decls {
		if o, ok := d.(*OptionNode); ok {
			out = append(out, o)
		}
	}
	return out
}

func (n *EnumNode) ReservedRanges() []*ReservedRangesNode {
	var out []*ReservedRangesNode
	for _, d := range n.Decls {
		if r, ok := d.(*ReservedRangesNode); ok {
			out = append(out, r)
		}
	}
	return out
}

func (n *EnumNode) ReservedNames() []*ReservedNamesNode {
	var out []*ReservedNamesNode
	for _, d := range n.Decls {
		if r, ok := d.(*ReservedNamesNode); ok {
			out = append(out, r)
		}
	}
	return out
}

// EnumValueNode represents one "Name = N [...];" entry in an enum body.
// The number may be negative (§3.2).
type EnumValueNode struct {
	span
	Name    *IdentNode
	Equals  *RuneNode
	Sign    *RuneNode // nil unless the number is explicitly signed
	Number  *UintLiteralNode
	Options *CompactOptionsNode
	Semi    *RuneNode
}

func NewEnumValueNode(name *IdentNode, eq *RuneNode, sign *RuneNode, num *UintLiteralNode, opts *CompactOptionsNode, semi *RuneNode) *EnumValueNode {
	return &EnumValueNode{span: newSpan(name, semi), Name: name, Equals: eq, Sign: sign, Number: num, Options: opts, Semi: semi}
}

func (n *EnumValueNode) enumElement() {}

// NumberValue returns the value's declared number, honoring a leading
// minus sign.
func (n *EnumValueNode) NumberValue() int32 {
	v := int32(n.Number.Val)
	if n.Sign != nil && n.Sign.Rune == '-' {
		return -v
	}
	return v
}
