package linker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protolang/protocompile/linker"
	"github.com/protolang/protocompile/parser"
	"github.com/protolang/protocompile/reporter"
)

func parse(t *testing.T, contents string) *parser.Result {
	t.Helper()
	h := reporter.NewHandler(nil)
	file, err := parser.Parse("test.proto", []byte(contents), h)
	require.NoError(t, err)
	result, err := parser.ResultFromAST(file, h)
	require.NoError(t, err)
	return result
}

func TestLinkResolvesLocalMessageReference(t *testing.T) {
	t.Parallel()
	result := parse(t, `
		syntax = "proto3";
		package foo;
		message Bar {
			Baz baz = 1;
		}
		message Baz {}
		`)

	table := linker.NewTable()
	h := reporter.NewHandler(nil)
	err := linker.Link(result, nil, table, h)
	require.NoError(t, err)

	fd := result.FileDescriptorProto()
	field := fd.MessageType[0].Field[0]
	assert.Equal(t, ".foo.Baz", field.GetTypeName())
}

func TestLinkReportsUndeclaredReference(t *testing.T) {
	t.Parallel()
	result := parse(t, `
		syntax = "proto3";
		message Bar {
			Nope nope = 1;
		}
		`)

	err := linker.Link(result, nil, linker.NewTable(), reporter.NewHandler(nil))
	require.Error(t, err)
}

func TestLinkReportsDuplicateFieldNumber(t *testing.T) {
	t.Parallel()
	result := parse(t, `
		syntax = "proto3";
		message Bar {
			string a = 1;
			string b = 1;
		}
		`)

	err := linker.Link(result, nil, linker.NewTable(), reporter.NewHandler(nil))
	require.Error(t, err)
}

func TestLinkResolvesAgainstDependency(t *testing.T) {
	t.Parallel()
	depResult := parse(t, `
		syntax = "proto3";
		package dep;
		message Shared {}
		`)
	table := linker.NewTable()
	h := reporter.NewHandler(nil)
	require.NoError(t, linker.Link(depResult, nil, table, h))
	depFile := linker.NewFile(depResult, nil)

	mainResult := parse(t, `
		syntax = "proto3";
		import "dep.proto";
		message Wrapper {
			dep.Shared shared = 1;
		}
		`)
	err := linker.Link(mainResult, linker.Files{depFile}, table, h)
	require.NoError(t, err)

	field := mainResult.FileDescriptorProto().MessageType[0].Field[0]
	assert.Equal(t, ".dep.Shared", field.GetTypeName())
}

func TestLinkRejectsNonProto3Syntax(t *testing.T) {
	t.Parallel()
	result := parse(t, `syntax = "proto2"; message Foo {}`)
	err := linker.Link(result, nil, linker.NewTable(), reporter.NewHandler(nil))
	require.Error(t, err)
}
