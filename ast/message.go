package ast

// MessageElement is implemented by anything that can appear in a message
// body: fields, nested messages/enums, oneofs, map fields, reserved
// statements, extension ranges, nested extends, and options (§3.2
// MessageNode).
type MessageElement interface {
	Node
	msgElement()
}

// MessageNode represents one "message Name { ... }" declaration, whether
// at file scope or nested inside another message.
type MessageNode struct {
	span
	Keyword *KeywordNode
	Name    *IdentNode
	Open    *RuneNode
	Decls   []MessageElement
	Close   *RuneNode
}

func NewMessageNode(kw *KeywordNode, name *IdentNode, open *RuneNode, decls []MessageElement, close *RuneNode) *MessageNode {
	return &MessageNode{span: newSpan(kw, close), Keyword: kw, Name: name, Open: open, Decls: decls, Close: close}
}

func (n *MessageNode) fileElement() {}
func (n *MessageNode) msgElement()  {}

func (n *MessageNode) Fields() []*FieldNode {
	var out []*FieldNode
	for _, d := range n.Decls {
		if f, ok := d.(*FieldNode); ok {
			out = append(out, f)
		}
	}
	return out
}

func (n *MessageNode) MapFields() []*MapFieldNode {
	var out []*MapFieldNode
	for _, d := range n.Decls {
		if f, ok := d.(*MapFieldNode); ok {
			out = append(out, f)
		}
	}
	return out
}

func (n *MessageNode) NestedMessages() []*MessageNode {
	var out []*MessageNode
	for _, d := range n.Decls {
		if m, ok := d.(*MessageNode); ok {
			out = append(out, m)
		}
	}
	return out
}

func (n *MessageNode) NestedEnums() []*EnumNode {
	var out []*EnumNode
	for _, d := range n.Decls {
		if e, ok := d.(*EnumNode); ok {
			out = append(out, e)
		}
	}
	return out
}

func (n *MessageNode) Oneofs() []*OneofNode {
	var out []*OneofNode
	for _, d := range n.Decls {
		if o, ok := d.(*OneofNode); ok {
			out = append(out, o)
		}
	}
	return out
}

func (n *MessageNode) Extends() []*ExtendNode {
	var out []*ExtendNode
	for _, d := range n.Decls {
		if e, ok := d.(*ExtendNode); ok {
			out = append(out, e)
		}
	}
	return out
}

func (n *MessageNode) ReservedRanges() []*ReservedRangesNode {
	var out []*ReservedRangesNode
	for _, d := range n.Decls {
		if r, ok := d.(*ReservedRangesNode); ok {
			out = append(out, r)
		}
	}
	return out
}

func (n *MessageNode) ReservedNames() []*ReservedNamesNode {
	var out []*ReservedNamesNode
	for _, d := range n.Decls {
		if r, ok := d.(*ReservedNamesNode); ok {
			out = append(out, r)
		}
	}
	return out
}

func (n *MessageNode) ExtensionRanges() []*ExtensionRangeNode {
	var out []*ExtensionRangeNode
	for _, d := range n.Decls {
		if r, ok := d.(*ExtensionRangeNode); ok {
			out = append(out, r)
		}
	}
	return out
}

func (n *MessageNode) Options() []*OptionNode {
	var out []*OptionNode
	for _, d := range n.Decls {
		if o, ok := d.(*OptionNode); ok {
			out = append(out, o)
		}
	}
	return out
}

// OneofNode represents a "oneof name { field1; field2; }" group (§3.2).
type OneofNode struct {
	span
	Keyword *KeywordNode
	Name    *IdentNode
	Open    *RuneNode
	Decls   []OneofElement
	Close   *RuneNode
}

func NewOneofNode(kw *KeywordNode, name *IdentNode, open *RuneNode, decls []OneofElement, close *RuneNode) *OneofNode {
	return &OneofNode{span: newSpan(kw, close), Keyword: kw, Name: name, Open: open, Decls: decls, Close: close}
}

func (n *OneofNode) msgElement() {}

type OneofElement interface {
	Node
	oneofElement()
}

func (n *OneofNode) Fields() []*FieldNode {
	var out []*FieldNode
	for _, d := range n.Decls {
		if f, ok := d.(*FieldNode); ok {
			out = append(out, f)
		}
	}
	return out
}

// MapFieldNode represents a "map<K, V> name = N [...];" field (§4.2: the
// parser records it as sugar; the descriptor builder synthesizes the
// corresponding nested entry message, §4.6).
type MapFieldNode struct {
	span
	MapKeyword *KeywordNode
	OpenAngle  *RuneNode
	KeyType    *IdentNode // restricted to the proto3-legal map key scalars, checked in linker
	Comma      *RuneNode
	ValueType  FieldTypeNode
	CloseAngle *RuneNode
	Name       *IdentNode
	Equals     *RuneNode
	Number     *UintLiteralNode
	Options    *CompactOptionsNode // nil if absent
	Semi       *RuneNode
}

func NewMapFieldNode(mapKw *KeywordNode, open *RuneNode, keyType *IdentNode, comma *RuneNode, valType FieldTypeNode, close *RuneNode, name *IdentNode, eq *RuneNode, num *UintLiteralNode, opts *CompactOptionsNode, semi *RuneNode) *MapFieldNode {
	return &MapFieldNode{
		span: newSpan(mapKw, semi), MapKeyword: mapKw, OpenAngle: open, KeyType: keyType,
		Comma: comma, ValueType: valType, CloseAngle: close, Name: name, Equals: eq,
		Number: num, Options: opts, Semi: semi,
	}
}

func (n *MapFieldNode) msgElement() {}

func (n *MapFieldNode) FieldNumber() int32 { return int32(n.Number.Val) }
