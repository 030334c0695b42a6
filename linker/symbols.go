// Package linker implements the semantic analyzer: it takes the AST and
// raw FileDescriptorProto produced by the parser and resolves every
// cross-reference (field types, rpc types, extend extendees) against a
// symbol table built from the file itself and its imports (§4.3, §4.4).
package linker

import (
	"strings"
	"sync"

	art "github.com/plar/go-adaptive-radix-tree"

	"github.com/protolang/protocompile/ast"
	"github.com/protolang/protocompile/reporter"
)

// SymbolKind classifies an entry in the symbol table.
type SymbolKind int

const (
	KindMessage SymbolKind = iota
	KindEnum
	KindEnumValue
	KindService
	KindOneof
	KindField
	KindPackage
)

func (k SymbolKind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindEnum:
		return "enum"
	case KindEnumValue:
		return "enum value"
	case KindService:
		return "service"
	case KindOneof:
		return "oneof"
	case KindField:
		return "field"
	case KindPackage:
		return "package"
	default:
		return "symbol"
	}
}

// Symbol is one entry of the table: a fully-qualified name together with
// what it denotes and where it was declared.
type Symbol struct {
	FullName string
	Kind     SymbolKind
	Span     ast.SourceSpan
}

// Extension records one "extend" field, indexed by the extendee it
// targets so ExtensionsOf can enumerate them in declaration order.
type Extension struct {
	FieldFullName string
	Number        int32
	Span          ast.SourceSpan
}

// Table is the scope-aware symbol registry described by §4.3. A Table is
// shared by a file and all of its (already-linked) imports, so that
// lookups can see symbols visible to, but not necessarily declared in,
// the file being analyzed. It is safe for concurrent use.
type Table struct {
	mu   sync.RWMutex
	tree art.Tree // string full name -> *Symbol

	extMu sync.RWMutex
	exts  map[string][]Extension // extendee full name -> extensions, in enter order
}

// NewTable returns an empty symbol table.
func NewTable() *Table {
	return &Table{tree: art.New(), exts: map[string][]Extension{}}
}

func key(name string) art.Key { return art.Key(name) }

// Enter registers a symbol under its fully-qualified name. It fails with
// a duplicate-symbol error if that name is already registered, per the
// invariant in §4.3 ("no two symbols share a fully-qualified name").
func (t *Table) Enter(sym Symbol, handler *reporter.Handler) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existingVal, found := t.tree.Search(key(sym.FullName)); found {
		existing := existingVal.(*Symbol)
		return handler.HandleErrorf(sym.Span, "duplicate symbol %q: already defined as %s at %s",
			sym.FullName, existing.Kind, existing.Span)
	}
	s := sym
	t.tree.Insert(key(sym.FullName), &s)
	return nil
}

// Lookup implements proto's progressive scope search (§4.3): starting
// from the innermost scope in scopeChain and working outward, it tries
// each enclosing-scope-qualified form of name and returns the first
// match. A name beginning with "." is looked up only in its absolute
// form. scopeChain holds fully-qualified enclosing scope names, innermost
// last (e.g. []string{"pkg", "pkg.Outer", "pkg.Outer.Inner"}).
func (t *Table) Lookup(scopeChain []string, name string) (Symbol, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if strings.HasPrefix(name, ".") {
		return t.find(name[1:])
	}

	for i := len(scopeChain); i >= 0; i-- {
		var candidate string
		if i == 0 {
			candidate = name
		} else {
			candidate = scopeChain[i-1] + "." + name
		}
		if sym, ok := t.find(candidate); ok {
			return sym, ok
		}
	}
	return Symbol{}, false
}

func (t *Table) find(fqn string) (Symbol, bool) {
	v, ok := t.tree.Search(key(fqn))
	if !ok {
		return Symbol{}, false
	}
	return *v.(*Symbol), true
}

// EnterExtension records that fieldFullName (declared inside an "extend"
// block for extendeeFullName) claims tag number. It is indexed separately
// from Enter so ExtensionsOf can answer queries by extendee, per §4.3.
func (t *Table) EnterExtension(extendeeFullName, fieldFullName string, number int32, span ast.SourceSpan, handler *reporter.Handler) error {
	t.extMu.Lock()
	defer t.extMu.Unlock()
	for _, e := range t.exts[extendeeFullName] {
		if e.Number == number {
			return handler.HandleErrorf(span, "extension number %d already in use by %q at %s",
				number, e.FieldFullName, e.Span)
		}
	}
	t.exts[extendeeFullName] = append(t.exts[extendeeFullName], Extension{
		FieldFullName: fieldFullName, Number: number, Span: span,
	})
	return nil
}

// ExtensionsOf returns the extensions registered against extendeeFullName,
// in the order they were entered.
func (t *Table) ExtensionsOf(extendeeFullName string) []Extension {
	t.extMu.RLock()
	defer t.extMu.RUnlock()
	return append([]Extension(nil), t.exts[extendeeFullName]...)
}

// FindByPrefix returns every symbol whose fully-qualified name begins
// with prefix. This backs diagnostics and tooling that need to browse the
// namespace (e.g. "what's defined under package foo.bar") without a
// linear scan of the whole table; it is the reason the table is backed by
// a radix tree rather than a plain map.
func (t *Table) FindByPrefix(prefix string) []Symbol {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []Symbol
	t.tree.ForEachPrefix(key(prefix), func(node art.Node) bool {
		out = append(out, *node.Value().(*Symbol))
		return true
	})
	return out
}
