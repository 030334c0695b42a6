package linker

import (
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/protolang/protocompile/parser"
)

// File pairs a linked parser.Result with the (already-linked) files it
// imports, so later stages can walk a file's transitive dependency
// closure (§4.5) without re-parsing anything.
type File interface {
	Result() *parser.Result
	Path() string
	Package() string
	Dependencies() Files

	// DeclaresSymbol reports whether fullName (without a leading dot) is
	// declared directly in this file -- not merely visible to it through
	// an import. Used by CheckForUnusedImports to attribute a resolved
	// reference back to the import that satisfied it.
	DeclaresSymbol(fullName string) bool
}

type file struct {
	result *parser.Result
	deps   Files
}

// NewFile wraps a linked parser.Result together with the Files
// representing its already-resolved dependencies.
func NewFile(result *parser.Result, deps Files) File {
	return &file{result: result, deps: deps}
}

func (f *file) Result() *parser.Result { return f.result }
func (f *file) Path() string           { return f.result.FileDescriptorProto().GetName() }
func (f *file) Package() string        { return f.result.FileDescriptorProto().GetPackage() }
func (f *file) Dependencies() Files    { return f.deps }

func (f *file) DeclaresSymbol(fullName string) bool {
	names := map[string]bool{}
	collectDeclaredNames(f.result.FileDescriptorProto(), names)
	return names[fullName]
}

func collectDeclaredNames(fd *descriptorpb.FileDescriptorProto, out map[string]bool) {
	pkg := fd.GetPackage()
	for _, m := range fd.MessageType {
		collectMessageNames(pkg, m, out)
	}
	for _, e := range fd.EnumType {
		out[join(pkg, e.GetName())] = true
	}
	for _, s := range fd.Service {
		out[join(pkg, s.GetName())] = true
	}
	for _, ext := range fd.Extension {
		out[join(pkg, ext.GetName())] = true
	}
}

func collectMessageNames(scope string, m *descriptorpb.DescriptorProto, out map[string]bool) {
	full := join(scope, m.GetName())
	out[full] = true
	for _, nm := range m.NestedType {
		collectMessageNames(full, nm, out)
	}
	for _, ne := range m.EnumType {
		out[join(full, ne.GetName())] = true
	}
}

// Files is an ordered set of linked files, typically the direct imports
// of one file being linked.
type Files []File

// FindFileByPath returns the File in fs whose path matches, or nil.
func (fs Files) FindFileByPath(path string) File {
	for _, f := range fs {
		if f != nil && f.Path() == path {
			return f
		}
	}
	return nil
}

// ComputeReflexiveTransitiveClosure returns f together with every file it
// imports, directly or transitively, each appearing once. The name
// matches protoc's FileDescriptorSet convention: "reflexive" because f
// itself is included, "transitive" because imports-of-imports are too.
func ComputeReflexiveTransitiveClosure(f File) Files {
	seen := map[string]bool{}
	var out Files
	var visit func(File)
	visit = func(cur File) {
		if cur == nil || seen[cur.Path()] {
			return
		}
		seen[cur.Path()] = true
		out = append(out, cur)
		for _, dep := range cur.Dependencies() {
			visit(dep)
		}
	}
	visit(f)
	return out
}
