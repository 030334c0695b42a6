package linker

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/protolang/protocompile/ast"
	"github.com/protolang/protocompile/parser"
)

// NewPlaceholderFile returns a File standing in for a weak import that
// could not be resolved (§4.5: "weak imports are permitted to be missing
// at resolution time"). It declares no symbols, so DeclaresSymbol always
// reports false and resolution against it always fails as "unresolved",
// exactly as if the import were simply absent -- the only difference is
// that the dependency slot is non-nil, so callers don't need a special
// case to tell a missing weak import apart from one that parsed cleanly.
func NewPlaceholderFile(path string) File {
	fd := &descriptorpb.FileDescriptorProto{
		Name:   proto.String(path),
		Syntax: proto.String("proto3"),
	}
	result := parser.NewPlaceholderResult(ast.NewEmptyFileNode(path), fd)
	return &file{result: result, deps: nil}
}
