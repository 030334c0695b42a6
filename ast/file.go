package ast

// FileElement is implemented by every node that can appear as a
// top-level declaration in a proto3 file: imports, the package
// declaration, file options, and the {message | enum | service | extend}
// definitions (§3.2 FileNode).
type FileElement interface {
	Node
	fileElement()
}

// EmptyDeclNode represents a stray top-level ';' with no preceding
// declaration.
type EmptyDeclNode struct {
	Semi *RuneNode
}

func NewEmptyDeclNode(semi *RuneNode) *EmptyDeclNode { return &EmptyDeclNode{Semi: semi} }
func (e *EmptyDeclNode) Start() Token                { return e.Semi.Start() }
func (e *EmptyDeclNode) End() Token                  { return e.Semi.End() }
func (e *EmptyDeclNode) fileElement()                {}
func (e *EmptyDeclNode) msgElement()                 {}
func (e *EmptyDeclNode) enumElement()                {}
func (e *EmptyDeclNode) serviceElement()              {}

// ImportModifier distinguishes plain, public, and weak imports (§3.2).
type ImportModifier int

const (
	ImportDefault ImportModifier = iota
	ImportPublic
	ImportWeak
)

// ImportNode represents one "import [public|weak] "path";" statement.
type ImportNode struct {
	span
	Keyword  *KeywordNode
	Modifier *KeywordNode // nil when ImportDefault
	Name     *StringLiteralNode
	Semi     *RuneNode
}

func NewImportNode(kw *KeywordNode, modifier *KeywordNode, name *StringLiteralNode, semi *RuneNode) *ImportNode {
	return &ImportNode{span: newSpan(kw, semi), Keyword: kw, Modifier: modifier, Name: name, Semi: semi}
}

func (n *ImportNode) fileElement() {}

func (n *ImportNode) ImportModifier() ImportModifier {
	if n.Modifier == nil {
		return ImportDefault
	}
	switch n.Modifier.Keyword {
	case "public":
		return ImportPublic
	case "weak":
		return ImportWeak
	}
	return ImportDefault
}

// PackageNode represents the "package some.dotted.name;" statement.
type PackageNode struct {
	span
	Keyword *KeywordNode
	Name    *CompoundIdentNode
	Semi    *RuneNode
}

func NewPackageNode(kw *KeywordNode, name *CompoundIdentNode, semi *RuneNode) *PackageNode {
	return &PackageNode{span: newSpan(kw, semi), Keyword: kw, Name: name, Semi: semi}
}

func (n *PackageNode) fileElement() {}

// SyntaxNode represents the mandatory leading "syntax = "proto3";"
// statement.
type SyntaxNode struct {
	span
	Keyword *KeywordNode
	Equals  *RuneNode
	Val     *StringLiteralNode
	Semi    *RuneNode
}

func NewSyntaxNode(kw *KeywordNode, eq *RuneNode, val *StringLiteralNode, semi *RuneNode) *SyntaxNode {
	return &SyntaxNode{span: newSpan(kw, semi), Keyword: kw, Equals: eq, Val: val, Semi: semi}
}

// FileNode is the root of the AST for one proto3 source file (§3.2).
type FileNode struct {
	fileInfo *FileInfo
	Syntax   *SyntaxNode
	Decls    []FileElement
}

func NewFileNode(fileInfo *FileInfo, syntax *SyntaxNode, decls []FileElement) *FileNode {
	return &FileNode{fileInfo: fileInfo, Syntax: syntax, Decls: decls}
}

// NewEmptyFileNode synthesizes a placeholder root for a file that failed
// to produce any AST (e.g. the very first token was invalid).
func NewEmptyFileNode(filename string) *FileNode {
	return &FileNode{fileInfo: NewFileInfo(filename, nil)}
}

func (f *FileNode) Name() string { return f.fileInfo.Name() }

func (f *FileNode) NodeInfo(n Node) SourceSpan { return f.fileInfo.NodeSpan(n) }

func (f *FileNode) FileInfo() *FileInfo { return f.fileInfo }

// Imports returns the declared imports, in source order.
func (f *FileNode) Imports() []*ImportNode {
	var out []*ImportNode
	for _, d := range f.Decls {
		if imp, ok := d.(*ImportNode); ok {
			out = append(out, imp)
		}
	}
	return out
}

// Package returns the file's package declaration, or nil if absent.
func (f *FileNode) Package() *PackageNode {
	for _, d := range f.Decls {
		if pkg, ok := d.(*PackageNode); ok {
			return pkg
		}
	}
	return nil
}

// Options returns the file-level options, in source order.
func (f *FileNode) Options() []*OptionNode {
	var out []*OptionNode
	for _, d := range f.Decls {
		if opt, ok := d.(*OptionNode); ok {
			out = append(out, opt)
		}
	}
	return out
}
