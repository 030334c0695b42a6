package linker_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/protolang/protocompile/linker"
)

func TestNewPlaceholderFile(t *testing.T) {
	path := "path/to/dependency.proto"
	f := linker.NewPlaceholderFile(path)

	assert.Equal(t, path, f.Path())
	assert.Empty(t, f.Package())
	assert.Empty(t, f.Dependencies())
	assert.False(t, f.DeclaresSymbol("anything.At.All"))

	require.NotNil(t, f.Result())
	assert.Equal(t, path, f.Result().FileDescriptorProto().GetName())
}
