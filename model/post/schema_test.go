package post

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSchemaInlineLeaves(t *testing.T) {
	// image and hardBreak live in the inline* content of paragraphs and
	// headings, so their specs must be flagged inline or the schema cannot
	// be instantiated.
	for _, name := range []string{"text", "image", "hardBreak"} {
		typ, err := DefaultSchema.NodeType(name)
		require.NoError(t, err)
		assert.True(t, typ.IsInline(), "%s must be an inline type", name)
	}
	para, err := DefaultSchema.NodeType("paragraph")
	require.NoError(t, err)
	assert.True(t, para.InlineContent)
}
