package ast

// ServiceElement is implemented by the nodes that can appear inside a
// service body: rpc methods and options (§3.2 ServiceNode).
type ServiceElement interface {
	Node
	serviceElement()
}

// ServiceNode represents one "service Name { ... }" declaration.
type ServiceNode struct {
	span
	Keyword *KeywordNode
	Name    *IdentNode
	Open    *RuneNode
	Decls   []ServiceElement
	Close   *RuneNode
}

func NewServiceNode(kw *KeywordNode, name *IdentNode, open *RuneNode, decls []ServiceElement, close *RuneNode) *ServiceNode {
	return &ServiceNode{span: newSpan(kw, close), Keyword: kw, Name: name, Open: open, Decls: decls, Close: close}
}

func (n *ServiceNode) fileElement() {}

func (n *ServiceNode) Methods() []*RPCNode {
	var out []*RPCNode
	for _, d := range n.Decls {
		if m, ok := d.(*RPCNode); ok {
			out = append(out, m)
		}
	}
	return out
}

func (n *ServiceNode) Options() []*OptionNode {
	var out []*OptionNode
	for _, d := range n.Decls {
		if o, ok := d.(*OptionNode); ok {
			out = append(out, o)
		}
	}
	return out
}

// RPCTypeNode is the (possibly "stream"-qualified) input or output type
// of a method (§3.2 RpcNode).
type RPCTypeNode struct {
	span
	StreamKeyword *KeywordNode // nil unless streaming
	Open          *RuneNode
	MessageType   *CompoundIdentNode
	Close         *RuneNode
}

func NewRPCTypeNode(stream *KeywordNode, open *RuneNode, msgType *CompoundIdentNode, close *RuneNode) *RPCTypeNode {
	var first Node
	if stream != nil {
		first = stream
	} else {
		first = open
	}
	return &RPCTypeNode{span: newSpan(first, close), StreamKeyword: stream, Open: open, MessageType: msgType, Close: close}
}

func (n *RPCTypeNode) IsStreaming() bool { return n.StreamKeyword != nil }

// RPCNode represents one "rpc Name(In) returns (Out);" method, with an
// optional "{ ... }" body containing only options (§3.2, §4.2).
type RPCNode struct {
	span
	Keyword    *KeywordNode
	Name       *IdentNode
	Input      *RPCTypeNode
	Returns    *KeywordNode
	Output     *RPCTypeNode
	OpenBrace  *RuneNode // nil for the ";"-terminated empty-body form
	Options    []*OptionNode
	CloseBrace *RuneNode
	Semi       *RuneNode // nil when a "{ }" body is present
}

func NewRPCNode(kw *KeywordNode, name *IdentNode, in *RPCTypeNode, returns *KeywordNode, out *RPCTypeNode, semi *RuneNode) *RPCNode {
	return &RPCNode{span: newSpan(kw, semi), Keyword: kw, Name: name, Input: in, Returns: returns, Output: out, Semi: semi}
}

func NewRPCNodeWithBody(kw *KeywordNode, name *IdentNode, in *RPCTypeNode, returns *KeywordNode, out *RPCTypeNode, open *RuneNode, opts []*OptionNode, close *RuneNode) *RPCNode {
	return &RPCNode{span: newSpan(kw, close), Keyword: kw, Name: name, Input: in, Returns: returns, Output: out, OpenBrace: open, Options: opts, CloseBrace: close}
}

func (n *RPCNode) serviceElement() {}

func (n *RPCNode) ClientStreaming() bool { return n.Input.IsStreaming() }
func (n *RPCNode) ServerStreaming() bool { return n.Output.IsStreaming() }
