package post

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpress/openpress-stack/pkg/provider"
)

func TestRenderHTMLParagraphWithMarks(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.InsertParagraph("bold & styled"))
	s.SetCursor(0)
	require.NoError(t, s.ToggleMark("strong"))
	require.NoError(t, s.SetFontSize("18"))

	content, err := s.Content()
	require.NoError(t, err)
	html, err := NewHTMLRenderer().Render(content)
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, "<strong>")
	assert.Contains(t, out, "font-size: 18px")
	assert.Contains(t, out, "bold &amp; styled")
}

func TestRenderHTMLHeadingAndList(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.InsertParagraph("Title"))
	s.SetCursor(0)
	require.NoError(t, s.SetHeading(2))
	s.SetCursor(1)
	require.NoError(t, s.InsertParagraph("item"))
	s.SetCursor(1)
	require.NoError(t, s.WrapInList(false))

	content, err := s.Content()
	require.NoError(t, err)
	html, err := NewHTMLRenderer().Render(content)
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, "<h2>Title</h2>")
	assert.Contains(t, out, "<ul>")
	assert.Contains(t, out, "<li><p>item</p>")
}

func TestRenderHTMLDelegatesEmbeds(t *testing.T) {
	s := newTestSession(t, nil)
	attrs := provider.Classify("https://www.youtube.com/watch?v=abc123")
	require.NotNil(t, attrs)
	require.NoError(t, s.InsertEmbed(attrs))

	content, err := s.Content()
	require.NoError(t, err)
	html, err := NewHTMLRenderer().Render(content)
	require.NoError(t, err)

	out := string(html)
	assert.Contains(t, out, `<iframe src="https://www.youtube.com/embed/abc123"`)
	assert.Contains(t, out, `loading="lazy"`)
}

func TestRenderHTMLAdSnippetIsInert(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.InsertAdSnippet(`<script>alert("ad")</script>`))

	content, err := s.Content()
	require.NoError(t, err)
	html, err := NewHTMLRenderer().Render(content)
	require.NoError(t, err)

	out := string(html)
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, `class="ad-snippet"`)
}

func TestRenderHTMLEscapesText(t *testing.T) {
	s := newTestSession(t, nil)
	require.NoError(t, s.InsertParagraph(`<img onerror="x">`))

	content, err := s.Content()
	require.NoError(t, err)
	html, err := NewHTMLRenderer().Render(content)
	require.NoError(t, err)
	assert.NotContains(t, string(html), `<img onerror`)
}
