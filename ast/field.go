package ast

// FieldLabel is the label that precedes a field's type, if any (§3.2
// FieldNode). proto3 fields have no label at all for implicit-singular
// fields.
type FieldLabel int

const (
	LabelImplicitSingular FieldLabel = iota
	LabelOptional
	LabelRepeated
)

// ScalarKind enumerates the fifteen proto3 scalar field types (§3.3).
type ScalarKind int

const (
	ScalarNone ScalarKind = iota
	ScalarDouble
	ScalarFloat
	ScalarInt32
	ScalarInt64
	ScalarUint32
	ScalarUint64
	ScalarSint32
	ScalarSint64
	ScalarFixed32
	ScalarFixed64
	ScalarSfixed32
	ScalarSfixed64
	ScalarBool
	ScalarString
	ScalarBytes
)

// ScalarTypeNames maps each scalar keyword to its ScalarKind.
var ScalarTypeNames = map[string]ScalarKind{
	"double":   ScalarDouble,
	"float":    ScalarFloat,
	"int32":    ScalarInt32,
	"int64":    ScalarInt64,
	"uint32":   ScalarUint32,
	"uint64":   ScalarUint64,
	"sint32":   ScalarSint32,
	"sint64":   ScalarSint64,
	"fixed32":  ScalarFixed32,
	"fixed64":  ScalarFixed64,
	"sfixed32": ScalarSfixed32,
	"sfixed64": ScalarSfixed64,
	"bool":     ScalarBool,
	"string":   ScalarString,
	"bytes":    ScalarBytes,
}

// IsValidMapKeyScalar reports whether k is one of the map-key-legal
// scalars (§3.3: all integer scalars plus bool and string; never
// float/double/bytes).
func IsValidMapKeyScalar(k ScalarKind) bool {
	switch k {
	case ScalarInt32, ScalarInt64, ScalarUint32, ScalarUint64,
		ScalarSint32, ScalarSint64, ScalarFixed32, ScalarFixed64,
		ScalarSfixed32, ScalarSfixed64, ScalarBool, ScalarString:
		return true
	default:
		return false
	}
}

// FieldTypeNode is implemented by the nodes that can appear in a field's
// type position: a scalar keyword, or a (possibly dotted) message/enum
// type name. Before the linker's resolution pass runs, a name-based field
// type does not yet know whether it denotes a message or an enum (§9); it
// is represented generically as an IdentTypeNode, and stays one after
// linking.
type FieldTypeNode interface {
	Node
	TypeName() string // "" for scalars
	Scalar() ScalarKind
}

// ScalarTypeNode wraps one of the fifteen scalar keywords used in type
// position.
type ScalarTypeNode struct {
	TerminalNode
	Keyword string
	Kind    ScalarKind
}

func NewScalarTypeNode(kw string, kind ScalarKind, tok Token) *ScalarTypeNode {
	return &ScalarTypeNode{TerminalNode: TerminalNode{Tok: tok}, Keyword: kw, Kind: kind}
}

func (n *ScalarTypeNode) TypeName() string   { return "" }
func (n *ScalarTypeNode) Scalar() ScalarKind { return n.Kind }

// IdentTypeNode wraps a (possibly dotted, possibly absolute) name in
// field/rpc type position. Whether it ultimately denotes a message or an
// enum is decided by the linker's resolution pass (§4.4, §9), which
// writes the answer (type and fully-qualified type_name) into the built
// FieldDescriptorProto rather than mutating this node -- the AST stays
// append-only once built.
type IdentTypeNode struct {
	*CompoundIdentNode
}

func NewIdentTypeNode(ident *CompoundIdentNode) *IdentTypeNode {
	return &IdentTypeNode{CompoundIdentNode: ident}
}

func (n *IdentTypeNode) TypeName() string   { return n.AsIdentifier() }
func (n *IdentTypeNode) Scalar() ScalarKind { return ScalarNone }

// FieldNode represents one field declaration inside a message or oneof
// body (§3.2).
type FieldNode struct {
	span
	Label      FieldLabel
	LabelTok   *KeywordNode // nil for LabelImplicitSingular
	FieldType  FieldTypeNode
	Name       *IdentNode
	Equals     *RuneNode
	Number     *UintLiteralNode
	Options    *CompactOptionsNode // nil if absent
	Semi       *RuneNode

	// OneofIndex is set by the parser to the index (within the enclosing
	// message, 0-based) of the oneof that directly contains this field,
	// or -1 if it is a direct field of the message.
	OneofIndex int
}

func NewFieldNode(labelTok *KeywordNode, label FieldLabel, typ FieldTypeNode, name *IdentNode, eq *RuneNode, num *UintLiteralNode, opts *CompactOptionsNode, semi *RuneNode) *FieldNode {
	var first Node
	if labelTok != nil {
		first = labelTok
	} else {
		first = typ
	}
	return &FieldNode{
		span: newSpan(first, semi), Label: label, LabelTok: labelTok, FieldType: typ,
		Name: name, Equals: eq, Number: num, Options: opts, Semi: semi, OneofIndex: -1,
	}
}

func (n *FieldNode) msgElement()   {}
func (n *FieldNode) oneofElement() {}

func (n *FieldNode) FieldNumber() int32 { return int32(n.Number.Val) }

// IsMap reports whether this field is actually a map field wearing a
// FieldNode shape; map fields are always represented by MapFieldNode
// instead, so this is always false -- kept as a documented invariant for
// callers migrating from parsers that unify the two.
func (n *FieldNode) IsMap() bool { return false }

// ExtendNode represents an "extend TypeName { field1; field2; }"
// statement. §7 restricts accepted extendees to the descriptor option
// messages; the parser accepts any syntactically valid extendee name and
// leaves that check to the semantic analyzer.
type ExtendNode struct {
	span
	Keyword  *KeywordNode
	Extendee *CompoundIdentNode
	Open     *RuneNode
	Fields   []*FieldNode
	Close    *RuneNode
}

func NewExtendNode(kw *KeywordNode, extendee *CompoundIdentNode, open *RuneNode, fields []*FieldNode, close *RuneNode) *ExtendNode {
	return &ExtendNode{span: newSpan(kw, close), Keyword: kw, Extendee: extendee, Open: open, Fields: fields, Close: close}
}

func (n *ExtendNode) fileElement() {}
func (n *ExtendNode) msgElement()  {}
