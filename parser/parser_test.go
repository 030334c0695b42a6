package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protolang/protocompile/parser"
	"github.com/protolang/protocompile/reporter"
)

func TestRequiredFieldInMessageBodyIsRejectedWithProto3Guidance(t *testing.T) {
	t.Parallel()
	h := reporter.NewHandler(nil)
	_, err := parser.Parse("foo.proto", []byte(`
		syntax = "proto3";
		message Bar {
			required string name = 1;
		}
		`), h)
	require.Error(t, err)
	assert.ErrorContains(t, err, "proto3 forbids required fields")
}

func TestRequiredFieldInExtendIsRejectedWithProto3Guidance(t *testing.T) {
	t.Parallel()
	h := reporter.NewHandler(nil)
	_, err := parser.Parse("foo.proto", []byte(`
		syntax = "proto3";
		extend google.protobuf.FieldOptions {
			required string name = 50000;
		}
		`), h)
	require.Error(t, err)
	assert.ErrorContains(t, err, "proto3 forbids required fields")
}
