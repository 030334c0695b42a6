package ast

// OptionNamePartNode is one dotted segment of an option name. A segment
// wrapped in parens, e.g. "(my.custom.option)", is an extension part; its
// IsExtension flag distinguishes it for both UninterpretedOption.NamePart
// encoding and symbol-table extension lookups.
type OptionNamePartNode struct {
	span
	OpenParen  *RuneNode // nil unless IsExtension
	Name       *CompoundIdentNode
	CloseParen *RuneNode // nil unless IsExtension
	IsExtension bool
}

func NewSimpleOptionNamePartNode(name *CompoundIdentNode) *OptionNamePartNode {
	return &OptionNamePartNode{span: newSpan(name, name), Name: name}
}

func NewExtensionOptionNamePartNode(open *RuneNode, name *CompoundIdentNode, close *RuneNode) *OptionNamePartNode {
	return &OptionNamePartNode{span: newSpan(open, close), OpenParen: open, Name: name, CloseParen: close, IsExtension: true}
}

func (n *OptionNamePartNode) Text() string { return n.Name.AsIdentifier() }

// OptionNameNode is the full dotted name of an option, e.g.
// "java_package" or "(gogoproto.foo).bar".
type OptionNameNode struct {
	span
	Parts []*OptionNamePartNode
	Dots  []*RuneNode
}

func NewOptionNameNode(parts []*OptionNamePartNode, dots []*RuneNode) *OptionNameNode {
	return &OptionNameNode{span: newSpan(parts[0], parts[len(parts)-1]), Parts: parts, Dots: dots}
}

// OptionNode represents a single "option name = value;" statement,
// whether it appears at file scope, inside a message/field/etc body, or
// bracketed after a field/enum-value/method declaration (§3.2).
type OptionNode struct {
	span
	Keyword    *KeywordNode // nil for bracketed options (no leading "option" keyword)
	Name       *OptionNameNode
	Equals     *RuneNode
	Val        ValueNode
	Semi       *RuneNode // nil for bracketed options
}

func NewOptionNode(kw *KeywordNode, name *OptionNameNode, eq *RuneNode, val ValueNode, semi *RuneNode) *OptionNode {
	var first, last Node
	if kw != nil {
		first = kw
	} else {
		first = name
	}
	if semi != nil {
		last = semi
	} else {
		last = val
	}
	return &OptionNode{span: newSpan(first, last), Keyword: kw, Name: name, Equals: eq, Val: val, Semi: semi}
}

func (o *OptionNode) fileElement()    {}
func (o *OptionNode) msgElement()     {}
func (o *OptionNode) extendElement()  {}
func (o *OptionNode) oneofElement()   {}
func (o *OptionNode) enumElement()    {}
func (o *OptionNode) serviceElement() {}
func (o *OptionNode) methodElement()  {}

// CompactOptionsNode is the "[ opt1 = v1, opt2 = v2 ]" suffix that can
// follow a field, enum value, or map-field declaration.
type CompactOptionsNode struct {
	span
	OpenBracket  *RuneNode
	Options      []*OptionNode
	CloseBracket *RuneNode
}

func NewCompactOptionsNode(open *RuneNode, opts []*OptionNode, close *RuneNode) *CompactOptionsNode {
	return &CompactOptionsNode{span: newSpan(open, close), OpenBracket: open, Options: opts, CloseBracket: close}
}
