package parser_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/testing/protocmp"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/protolang/protocompile/parser"
	"github.com/protolang/protocompile/reporter"
)

func TestResultFromASTBuildsDescriptor(t *testing.T) {
	t.Parallel()
	h := reporter.NewHandler(nil)
	file, err := parser.Parse("foo.proto", []byte(`
		syntax = "proto3";
		package foo;
		message Bar {
			string name = 1;
			int32 id = 2;
		}
		`), h)
	require.NoError(t, err)

	result, err := parser.ResultFromAST(file, h)
	require.NoError(t, err)

	fd := result.FileDescriptorProto()
	assert.Equal(t, "foo.proto", fd.GetName())
	assert.Equal(t, "foo", fd.GetPackage())
	assert.Equal(t, "proto3", fd.GetSyntax())
	require.Len(t, fd.MessageType, 1)
	assert.Equal(t, "Bar", fd.MessageType[0].GetName())
	require.Len(t, fd.MessageType[0].Field, 2)
	assert.Equal(t, descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL, fd.MessageType[0].Field[0].GetLabel())
}

func TestResultNodeMapsDescriptorElementsBackToAST(t *testing.T) {
	t.Parallel()
	h := reporter.NewHandler(nil)
	file, err := parser.Parse("foo.proto", []byte(`
		syntax = "proto3";
		message Bar {
			string name = 1;
		}
		`), h)
	require.NoError(t, err)

	result, err := parser.ResultFromAST(file, h)
	require.NoError(t, err)

	fd := result.FileDescriptorProto()
	msg := fd.MessageType[0]
	node := result.Node(msg)
	require.NotNil(t, node)

	field := msg.Field[0]
	fieldNode := result.Node(field)
	require.NotNil(t, fieldNode)
}

func TestMapFieldSynthesizesMapEntryMessage(t *testing.T) {
	t.Parallel()
	h := reporter.NewHandler(nil)
	file, err := parser.Parse("foo.proto", []byte(`
		syntax = "proto3";
		message Bar {
			map<string, int32> counts = 1;
		}
		`), h)
	require.NoError(t, err)

	result, err := parser.ResultFromAST(file, h)
	require.NoError(t, err)

	fd := result.FileDescriptorProto()
	msg := fd.MessageType[0]
	require.Len(t, msg.NestedType, 1)
	entry := msg.NestedType[0]
	assert.Equal(t, "CountsEntry", entry.GetName())
	assert.True(t, entry.GetOptions().GetMapEntry())
	require.Len(t, entry.Field, 2)

	want := []*descriptorpb.FieldDescriptorProto{
		{
			Name:     proto.String("key"),
			Number:   proto.Int32(1),
			Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
			Type:     descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
			JsonName: proto.String("key"),
		},
		{
			Name:     proto.String("value"),
			Number:   proto.Int32(2),
			Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
			Type:     descriptorpb.FieldDescriptorProto_TYPE_INT32.Enum(),
			JsonName: proto.String("value"),
		},
	}
	if diff := cmp.Diff(want, entry.Field, protocmp.Transform()); diff != "" {
		t.Errorf("map entry fields differ (-want +got):\n%s", diff)
	}
}

func TestProto3OptionalSynthesizesOneof(t *testing.T) {
	t.Parallel()
	h := reporter.NewHandler(nil)
	file, err := parser.Parse("foo.proto", []byte(`
		syntax = "proto3";
		message Bar {
			optional string name = 1;
		}
		`), h)
	require.NoError(t, err)

	result, err := parser.ResultFromAST(file, h)
	require.NoError(t, err)

	fd := result.FileDescriptorProto()
	msg := fd.MessageType[0]
	require.Len(t, msg.OneofDecl, 1)
	require.NotNil(t, msg.Field[0].OneofIndex)
	assert.Equal(t, int32(0), msg.Field[0].GetOneofIndex())
	assert.True(t, msg.Field[0].GetProto3Optional())
}
