package protocompile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileSingleFile(t *testing.T) {
	t.Parallel()
	comp := Compiler{
		Resolver: &SourceResolver{
			Accessor: SourceAccessorFromMap(map[string]string{
				"foo.proto": `
					syntax = "proto3";
					package foo;
					message Bar {
						string name = 1;
					}
					`,
			}),
		},
	}
	files, err := comp.Compile(context.Background(), "foo.proto")
	require.NoError(t, err)
	require.Len(t, files, 1)

	fd := files[0].FileDescriptorProto()
	assert.Equal(t, "foo", fd.GetPackage())
	require.Len(t, fd.MessageType, 1)
	assert.Equal(t, "Bar", fd.MessageType[0].GetName())
}

func TestCompileWithImports(t *testing.T) {
	t.Parallel()
	comp := Compiler{
		Resolver: &SourceResolver{
			Accessor: SourceAccessorFromMap(map[string]string{
				"dep.proto": `
					syntax = "proto3";
					package dep;
					message Shared {
						int32 id = 1;
					}
					`,
				"main.proto": `
					syntax = "proto3";
					package main_pkg;
					import "dep.proto";
					message Wrapper {
						dep.Shared shared = 1;
					}
					`,
			}),
		},
	}
	files, err := comp.Compile(context.Background(), "main.proto")
	require.NoError(t, err)
	require.Len(t, files, 1)

	fd := files[0].FileDescriptorProto()
	field := fd.MessageType[0].Field[0]
	assert.Equal(t, ".dep.Shared", field.GetTypeName())
}

func TestCompileDiamondImportSharesSymbolTable(t *testing.T) {
	t.Parallel()
	comp := Compiler{
		Resolver: &SourceResolver{
			Accessor: SourceAccessorFromMap(map[string]string{
				"common.proto": `
					syntax = "proto3";
					package common;
					message Thing {}
					`,
				"left.proto": `
					syntax = "proto3";
					package left;
					import "common.proto";
					message Left { common.Thing thing = 1; }
					`,
				"right.proto": `
					syntax = "proto3";
					package right;
					import "common.proto";
					message Right { common.Thing thing = 1; }
					`,
				"top.proto": `
					syntax = "proto3";
					package top;
					import "left.proto";
					import "right.proto";
					message Top {
						left.Left l = 1;
						right.Right r = 2;
					}
					`,
			}),
		},
	}
	files, err := comp.Compile(context.Background(), "top.proto")
	require.NoError(t, err)
	require.Len(t, files, 1)
}

func TestCompileImportCycleFails(t *testing.T) {
	t.Parallel()
	comp := Compiler{
		Resolver: &SourceResolver{
			Accessor: SourceAccessorFromMap(map[string]string{
				"a.proto": `
					syntax = "proto3";
					import "b.proto";
					`,
				"b.proto": `
					syntax = "proto3";
					import "a.proto";
					`,
			}),
		},
	}
	_, err := comp.Compile(context.Background(), "a.proto")
	require.Error(t, err)
}

func TestCompileIncludeDependenciesInResults(t *testing.T) {
	t.Parallel()
	comp := Compiler{
		Resolver: &SourceResolver{
			Accessor: SourceAccessorFromMap(map[string]string{
				"dep.proto": `
					syntax = "proto3";
					package dep;
					message Shared {}
					`,
				"main.proto": `
					syntax = "proto3";
					import "dep.proto";
					message Wrapper { dep.Shared shared = 1; }
					`,
			}),
		},
		IncludeDependenciesInResults: true,
	}
	files, err := comp.Compile(context.Background(), "main.proto")
	require.NoError(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path())
	}
	assert.Contains(t, paths, "main.proto")
	assert.Contains(t, paths, "dep.proto")
}

func TestCompileSourceInfo(t *testing.T) {
	t.Parallel()
	comp := Compiler{
		Resolver: &SourceResolver{
			Accessor: SourceAccessorFromMap(map[string]string{
				"foo.proto": `
					syntax = "proto3";
					// Leading comment for Bar.
					message Bar {}
					`,
			}),
		},
		SourceInfoMode: SourceInfoStandard,
	}
	files, err := comp.Compile(context.Background(), "foo.proto")
	require.NoError(t, err)

	info := files[0].FileDescriptorProto().GetSourceCodeInfo()
	require.NotNil(t, info)
	assert.NotEmpty(t, info.Location)
}

func TestCompileRepeatedCallsAreIndependent(t *testing.T) {
	t.Parallel()
	comp := Compiler{
		Resolver: &SourceResolver{
			Accessor: SourceAccessorFromMap(map[string]string{
				"a.proto": `
					syntax = "proto3";
					package shared;
					message A {}
					`,
				"b.proto": `
					syntax = "proto3";
					package shared;
					import "a.proto";
					message B { A a = 1; }
					`,
			}),
		},
	}
	_, err := comp.Compile(context.Background(), "a.proto")
	require.NoError(t, err)
	files, err := comp.Compile(context.Background(), "b.proto")
	require.NoError(t, err)
	require.Len(t, files, 1)
}
