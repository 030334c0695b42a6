package linker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protolang/protocompile/ast"
	"github.com/protolang/protocompile/reporter"
)

func TestTableEnterAndLookup(t *testing.T) {
	t.Parallel()

	table := NewTable()
	h := reporter.NewHandler(nil)
	span := ast.UnknownSpan("foo.proto")

	err := table.Enter(Symbol{FullName: "foo.bar.Foo", Kind: KindMessage, Span: span}, h)
	require.NoError(t, err)
	err = table.Enter(Symbol{FullName: "foo.bar.Foo.Nested", Kind: KindMessage, Span: span}, h)
	require.NoError(t, err)

	// absolute lookup
	sym, ok := table.Lookup(nil, ".foo.bar.Foo")
	require.True(t, ok)
	assert.Equal(t, KindMessage, sym.Kind)

	// relative lookup, found in an outer scope
	sym, ok = table.Lookup([]string{"foo.bar", "foo.bar.Foo"}, "Foo.Nested")
	require.True(t, ok)
	assert.Equal(t, "foo.bar.Foo.Nested", sym.FullName)

	// relative lookup, found at the bare top level
	sym, ok = table.Lookup(nil, "foo.bar.Foo")
	require.True(t, ok)
	assert.Equal(t, "foo.bar.Foo", sym.FullName)

	_, ok = table.Lookup([]string{"some.other.Scope"}, "Nonexistent")
	assert.False(t, ok)
}

func TestTableEnterDuplicate(t *testing.T) {
	t.Parallel()

	table := NewTable()
	h := reporter.NewHandler(nil)
	span := ast.UnknownSpan("foo.proto")

	err := table.Enter(Symbol{FullName: "foo.bar.Foo", Kind: KindMessage, Span: span}, h)
	require.NoError(t, err)

	err = table.Enter(Symbol{FullName: "foo.bar.Foo", Kind: KindEnum, Span: span}, h)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate symbol")
}

func TestTableProgressiveScopeLookup(t *testing.T) {
	t.Parallel()

	table := NewTable()
	h := reporter.NewHandler(nil)
	span := ast.UnknownSpan("foo.proto")

	require.NoError(t, table.Enter(Symbol{FullName: "pkg.Outer", Kind: KindMessage, Span: span}, h))
	require.NoError(t, table.Enter(Symbol{FullName: "pkg.Outer.Common", Kind: KindMessage, Span: span}, h))
	require.NoError(t, table.Enter(Symbol{FullName: "pkg.Common", Kind: KindMessage, Span: span}, h))

	// innermost scope wins when both resolve
	scopeChain := []string{"pkg", "pkg.Outer", "pkg.Outer.Inner"}
	sym, ok := table.Lookup(scopeChain, "Common")
	require.True(t, ok)
	assert.Equal(t, "pkg.Outer.Common", sym.FullName)
}

func TestTableExtensions(t *testing.T) {
	t.Parallel()

	table := NewTable()
	h := reporter.NewHandler(nil)
	span := ast.UnknownSpan("foo.proto")

	err := table.EnterExtension("foo.bar.Foo", "foo.bar.f", 10, span, h)
	require.NoError(t, err)
	err = table.EnterExtension("foo.bar.Foo", "foo.bar.s", 11, span, h)
	require.NoError(t, err)

	err = table.EnterExtension("foo.bar.Foo", "foo.bar.dup", 10, span, h)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already in use")

	exts := table.ExtensionsOf("foo.bar.Foo")
	require.Len(t, exts, 2)
	assert.Equal(t, "foo.bar.f", exts[0].FieldFullName)
	assert.Equal(t, "foo.bar.s", exts[1].FieldFullName)

	assert.Empty(t, table.ExtensionsOf("nothing.Here"))
}

func TestTableFindByPrefix(t *testing.T) {
	t.Parallel()

	table := NewTable()
	h := reporter.NewHandler(nil)
	span := ast.UnknownSpan("foo.proto")

	require.NoError(t, table.Enter(Symbol{FullName: "foo.bar.Foo", Kind: KindMessage, Span: span}, h))
	require.NoError(t, table.Enter(Symbol{FullName: "foo.bar.Foo.Nested", Kind: KindMessage, Span: span}, h))
	require.NoError(t, table.Enter(Symbol{FullName: "foo.baz.Other", Kind: KindMessage, Span: span}, h))

	found := table.FindByPrefix("foo.bar")
	names := make([]string, 0, len(found))
	for _, sym := range found {
		names = append(names, sym.FullName)
	}
	assert.ElementsMatch(t, []string{"foo.bar.Foo", "foo.bar.Foo.Nested"}, names)
}
