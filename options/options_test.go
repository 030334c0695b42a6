package options_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/protolang/protocompile/options"
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

func TestInterpretFileOptions(t *testing.T) {
	t.Parallel()

	result := parse(t, `
		syntax = "proto3";
		option java_package = "com.example.foo";
		option java_multiple_files = true;
		option optimize_for = CODE_SIZE;
		option go_package = "example.com/foo";
		`)

	err := options.InterpretOptions(result, reporter.NewHandler(nil))
	require.NoError(t, err)

	opts := result.FileDescriptorProto().GetOptions()
	require.NotNil(t, opts)
	assert.Equal(t, "com.example.foo", opts.GetJavaPackage())
	assert.True(t, opts.GetJavaMultipleFiles())
	assert.Equal(t, descriptorpb.FileOptions_CODE_SIZE, opts.GetOptimizeFor())
	assert.Equal(t, "example.com/foo", opts.GetGoPackage())
	assert.Empty(t, opts.GetUninterpretedOption())
}

func TestInterpretMessageAndFieldOptions(t *testing.T) {
	t.Parallel()

	result := parse(t, `
		syntax = "proto3";
		message Foo {
			option deprecated = true;
			string bar = 1 [deprecated = true, ctype = CORD];
		}
		`)

	err := options.InterpretOptions(result, reporter.NewHandler(nil))
	require.NoError(t, err)

	fd := result.FileDescriptorProto()
	m := fd.MessageType[0]
	assert.True(t, m.GetOptions().GetDeprecated())

	f := m.Field[0]
	assert.True(t, f.GetOptions().GetDeprecated())
	assert.Equal(t, descriptorpb.FieldOptions_CORD, f.GetOptions().GetCtype())
}

func TestInterpretEnumOptions(t *testing.T) {
	t.Parallel()

	result := parse(t, `
		syntax = "proto3";
		enum Foo {
			option allow_alias = true;
			FOO_UNKNOWN = 0;
			FOO_A = 1;
			FOO_B = 1;
		}
		`)

	err := options.InterpretOptions(result, reporter.NewHandler(nil))
	require.NoError(t, err)

	e := result.FileDescriptorProto().EnumType[0]
	assert.True(t, e.GetOptions().GetAllowAlias())
}

func TestInterpretMethodOptions(t *testing.T) {
	t.Parallel()

	result := parse(t, `
		syntax = "proto3";
		message Req {}
		message Resp {}
		service Foo {
			rpc Bar(Req) returns (Resp) {
				option idempotency_level = IDEMPOTENT;
			};
		}
		`)

	err := options.InterpretOptions(result, reporter.NewHandler(nil))
	require.NoError(t, err)

	s := result.FileDescriptorProto().Service[0]
	m := s.Method[0]
	assert.Equal(t, descriptorpb.MethodOptions_IDEMPOTENT, m.GetOptions().GetIdempotencyLevel())
}

func TestUnrecognizedOptionsAreLeftUninterpreted(t *testing.T) {
	t.Parallel()

	result := parse(t, `
		syntax = "proto3";
		message Foo {
			string bar = 1 [(my.custom.option) = "hello", some_unknown_name = 5];
		}
		`)

	err := options.InterpretOptions(result, reporter.NewHandler(nil))
	require.NoError(t, err)

	f := result.FileDescriptorProto().MessageType[0].Field[0]
	require.Len(t, f.GetOptions().GetUninterpretedOption(), 2)
}

func TestInterpretFileOptionTypeMismatch(t *testing.T) {
	t.Parallel()

	result := parse(t, `
		syntax = "proto3";
		option java_multiple_files = "not-a-bool";
		`)

	err := options.InterpretOptions(result, reporter.NewHandler(nil))
	require.Error(t, err)
}
