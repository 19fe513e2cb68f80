package post

import (
	"testing"

	"github.com/cozy/prosemirror-go/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleMarkOnSelectedBlock(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.InsertParagraph("hello"))
	s.SetCursor(0)

	require.NoError(t, s.ToggleMark("strong"))
	state, err := s.SelectionState()
	require.NoError(t, err)
	assert.True(t, state.Strong)

	// Toggling again removes the mark since every text node carries it.
	require.NoError(t, s.ToggleMark("strong"))
	state, err = s.SelectionState()
	require.NoError(t, err)
	assert.False(t, state.Strong)
}

func TestFontSizeRoundTrip(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.InsertParagraph("sized"))
	s.SetCursor(0)

	require.NoError(t, s.SetFontSize("18"))
	state, err := s.SelectionState()
	require.NoError(t, err)
	assert.Equal(t, "18", state.FontSize)

	// The stored value is the bare number; the px unit only appears in the
	// style serialization.
	blocks := topBlocks(t, s)
	marks := firstTextMarks(blocks[0])
	require.Len(t, marks, 1)
	assert.Equal(t, "18", marks[0].Attrs["fontSize"])
	assert.Equal(t, "font-size: 18px", StyleAttr(marks[0].Attrs))

	parsed := ParseStyleAttr(StyleAttr(marks[0].Attrs))
	assert.Equal(t, "18", parsed["fontSize"])
}

func TestUnsetFontSizeRemovesDeclaration(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.InsertParagraph("sized"))
	s.SetCursor(0)

	require.NoError(t, s.SetFontSize("18"))
	require.NoError(t, s.SetFontSize(""))

	state, err := s.SelectionState()
	require.NoError(t, err)
	assert.Empty(t, state.FontSize)

	blocks := topBlocks(t, s)
	assert.Empty(t, firstTextMarks(blocks[0]))
}

func TestTextStyleMergesAttributes(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.InsertParagraph("styled"))
	s.SetCursor(0)

	require.NoError(t, s.SetFontSize("14"))
	require.NoError(t, s.SetColor("#ff0000"))

	state, err := s.SelectionState()
	require.NoError(t, err)
	assert.Equal(t, "14", state.FontSize)
	assert.Equal(t, "#ff0000", state.Color)

	blocks := topBlocks(t, s)
	marks := firstTextMarks(blocks[0])
	require.Len(t, marks, 1)
	assert.Equal(t, "font-size: 14px; color: #ff0000", StyleAttr(marks[0].Attrs))
}

func TestSetHighlight(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.InsertParagraph("marked"))
	s.SetCursor(0)

	require.NoError(t, s.SetHighlight("#ffee00"))
	state, err := s.SelectionState()
	require.NoError(t, err)
	assert.Equal(t, "#ffee00", state.Highlight)

	require.NoError(t, s.SetHighlight(""))
	state, err = s.SelectionState()
	require.NoError(t, err)
	assert.Empty(t, state.Highlight)
}

func TestSetHeadingAndBack(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.InsertParagraph("title"))
	s.SetCursor(0)

	require.NoError(t, s.SetHeading(2))
	state, err := s.SelectionState()
	require.NoError(t, err)
	assert.Equal(t, "heading", state.BlockType)
	assert.Equal(t, 2, state.HeadingLevel)

	require.NoError(t, s.SetHeading(0))
	state, err = s.SelectionState()
	require.NoError(t, err)
	assert.Equal(t, "paragraph", state.BlockType)
	assert.Equal(t, 0, state.HeadingLevel)

	blocks := topBlocks(t, s)
	assert.Equal(t, "title", blocks[0].TextContent())
}

func TestToggleCodeBlockStripsMarks(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.InsertParagraph("code"))
	s.SetCursor(0)
	require.NoError(t, s.ToggleMark("strong"))

	require.NoError(t, s.ToggleCodeBlock())
	state, err := s.SelectionState()
	require.NoError(t, err)
	assert.True(t, state.CodeBlock)
	assert.False(t, state.Strong)

	require.NoError(t, s.ToggleCodeBlock())
	state, err = s.SelectionState()
	require.NoError(t, err)
	assert.Equal(t, "paragraph", state.BlockType)
	blocks := topBlocks(t, s)
	assert.Equal(t, "code", blocks[0].TextContent())
}

func TestWrapInList(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.InsertParagraph("item"))
	s.SetCursor(0)

	require.NoError(t, s.WrapInList(false))
	blocks := topBlocks(t, s)
	assert.Equal(t, "bulletList", blocks[0].Type.Name)
	assert.Equal(t, "item", blocks[0].TextContent())
}

func TestInsertTable(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.InsertTable(2, 3))

	blocks := topBlocks(t, s)
	table := blocks[0]
	require.Equal(t, "table", table.Type.Name)
	rows := 0
	table.ForEach(func(_ *model.Node, _ int, _ int) {
		rows++
	})
	assert.Equal(t, 2, rows)

	assert.ErrorIs(t, s.InsertTable(0, 3), ErrInvalidCursor)
}

func TestInsertLinkOrEmbed(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.InsertParagraph("see this"))
	s.SetCursor(0)

	// A plain URL becomes a link mark on the selected block.
	require.NoError(t, s.InsertLinkOrEmbed("https://example.com/article"))
	state, err := s.SelectionState()
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/article", state.Link)

	// An embeddable URL becomes an embed block instead.
	before := len(topBlocks(t, s))
	require.NoError(t, s.InsertLinkOrEmbed("https://youtu.be/xyz123"))
	blocks := topBlocks(t, s)
	require.Len(t, blocks, before+1)
	assert.Equal(t, "embed", blocks[0].Type.Name)
}

func TestSelectionStateIsDerivedNotCached(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.InsertParagraph("first"))
	require.NoError(t, s.InsertParagraph("second"))

	s.SetCursor(0)
	require.NoError(t, s.ToggleMark("em"))

	// Moving the cursor changes the derived state without any toolbar
	// bookkeeping.
	state, err := s.SelectionState()
	require.NoError(t, err)
	assert.True(t, state.Em)

	s.SetCursor(1)
	state, err = s.SelectionState()
	require.NoError(t, err)
	assert.False(t, state.Em)
}
