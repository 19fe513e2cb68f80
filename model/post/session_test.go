package post

import (
	"testing"

	"github.com/cozy/prosemirror-go/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpress/openpress-stack/pkg/provider"
)

func newTestSession(t *testing.T, onChange OnChange) *Session {
	t.Helper()
	doc := &Document{DocID: "post-1", Title: "Testing"}
	s, err := NewSession(doc, onChange)
	require.NoError(t, err)
	return s
}

func topBlocks(t *testing.T, s *Session) []*model.Node {
	t.Helper()
	content, err := s.Content()
	require.NoError(t, err)
	var blocks []*model.Node
	content.ForEach(func(child *model.Node, _ int, _ int) {
		blocks = append(blocks, child)
	})
	return blocks
}

func TestNewSessionSeedsEmptyContent(t *testing.T) {
	s := newTestSession(t, nil)
	content, err := s.Content()
	require.NoError(t, err)
	assert.Equal(t, "doc", content.Type.Name)
	// The doc node requires at least one block, so CreateAndFill seeds an
	// empty paragraph.
	blocks := topBlocks(t, s)
	require.Len(t, blocks, 1)
	assert.Equal(t, "paragraph", blocks[0].Type.Name)
}

func TestInsertEmbedAtCursor(t *testing.T) {
	var emitted int
	s := newTestSession(t, func(snapshot map[string]interface{}) {
		emitted++
		assert.NotNil(t, snapshot)
	})

	attrs := provider.Classify("https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	require.NotNil(t, attrs)
	require.NoError(t, s.InsertEmbed(attrs))

	blocks := topBlocks(t, s)
	require.Len(t, blocks, 2)
	embed := blocks[0]
	assert.Equal(t, "embed", embed.Type.Name)
	assert.Equal(t, "youtube", embed.Attrs["provider"])
	assert.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ", embed.Attrs["src"])
	assert.Equal(t, 1, emitted)
	assert.Equal(t, 1, s.Cursor())
}

func TestInsertAdSnippet(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.InsertAdSnippet(`<script>alert("ad")</script>`))

	blocks := topBlocks(t, s)
	require.Len(t, blocks, 2)
	assert.Equal(t, "adSnippet", blocks[0].Type.Name)
	assert.Equal(t, `<script>alert("ad")</script>`, blocks[0].Attrs["code"])
}

func TestInsertImageWrapsInParagraph(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.InsertImage("https://cdn.example.com/a.png", "a picture"))

	blocks := topBlocks(t, s)
	require.Len(t, blocks, 2)
	para := blocks[0]
	require.Equal(t, "paragraph", para.Type.Name)
	var img *model.Node
	para.ForEach(func(child *model.Node, _ int, _ int) {
		img = child
	})
	require.NotNil(t, img)
	assert.Equal(t, "image", img.Type.Name)
	assert.Equal(t, "https://cdn.example.com/a.png", img.Attrs["src"])
}

func TestInsertParagraphsAdvanceCursor(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.InsertParagraph("one"))
	require.NoError(t, s.InsertParagraph("two"))

	blocks := topBlocks(t, s)
	require.Len(t, blocks, 3)
	assert.Equal(t, "one", blocks[0].TextContent())
	assert.Equal(t, "two", blocks[1].TextContent())
	assert.Equal(t, 2, s.Cursor())
}

func TestCursorIsClampedOnInsert(t *testing.T) {
	s := newTestSession(t, nil)
	s.SetCursor(42)
	require.NoError(t, s.InsertParagraph("tail"))

	blocks := topBlocks(t, s)
	assert.Equal(t, "tail", blocks[len(blocks)-1].TextContent())
}

func TestReadsAreSafeDuringAsyncInserts(t *testing.T) {
	s := newTestSession(t, nil)

	// Readers hit the session while an upload-completion goroutine mutates
	// the document. Run under the race detector this catches any accessor
	// reading the document outside of the session lock.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			assert.NoError(t, s.InsertParagraph("uploaded"))
		}
	}()
	for i := 0; i < 50; i++ {
		meta := s.Metadata()
		assert.Equal(t, "post-1", meta["id"])
		_, err := s.Markdown()
		assert.NoError(t, err)
	}
	<-done

	assert.GreaterOrEqual(t, s.Version(), int64(50))
}

func TestLoadReplacesContent(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.InsertParagraph("stale"))
	version := s.Version()

	err := s.Load(map[string]interface{}{
		"type": "doc",
		"content": []interface{}{
			map[string]interface{}{
				"type": "paragraph",
				"content": []interface{}{
					map[string]interface{}{"type": "text", "text": "fresh"},
				},
			},
		},
	})
	require.NoError(t, err)
	assert.Greater(t, s.Version(), version)
	blocks := topBlocks(t, s)
	require.Len(t, blocks, 1)
	assert.Equal(t, "fresh", blocks[0].TextContent())
	assert.Equal(t, 0, s.Cursor())
}

func TestLoadRejectsInvalidContent(t *testing.T) {
	s := newTestSession(t, nil)
	err := s.Load(map[string]interface{}{"type": "nosuchnode"})
	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestApplyStepsChecksVersion(t *testing.T) {
	s := newTestSession(t, nil)
	steps := []map[string]interface{}{
		{"stepType": "replace", "from": 0, "to": 0},
	}
	err := s.ApplySteps(s.Version()+10, steps)
	assert.ErrorIs(t, err, ErrCannotApply)
}

func TestApplyStepsRejectsEmpty(t *testing.T) {
	s := newTestSession(t, nil)
	err := s.ApplySteps(s.Version(), nil)
	assert.ErrorIs(t, err, ErrNoSteps)
}

func TestApplyStepsIsAllOrNothing(t *testing.T) {
	s := newTestSession(t, nil)
	before := s.Snapshot()
	steps := []map[string]interface{}{
		{"stepType": "unknownStepType"},
	}
	err := s.ApplySteps(s.Version(), steps)
	assert.ErrorIs(t, err, ErrInvalidSteps)
	assert.Equal(t, before, s.Snapshot())
}
