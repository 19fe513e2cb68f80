package embed

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpress/openpress-stack/pkg/provider"
)

func TestRenderYouTube(t *testing.T) {
	renderer := NewRenderer()
	attrs := provider.Attrs{
		Provider: provider.YouTube,
		Src:      "https://www.youtube.com/embed/abc123",
		Title:    "YouTube video player",
	}
	html := string(renderer.Render(attrs))
	assert.Contains(t, html, `src="https://www.youtube.com/embed/abc123"`)
	assert.Contains(t, html, `title="YouTube video player"`)
	assert.Contains(t, html, `loading="lazy"`)
	assert.Contains(t, html, `sandbox="`)
	assert.Contains(t, html, fmt.Sprintf(`height="%d"`, youtubeHeight))
}

func TestRenderFacebookIsTaller(t *testing.T) {
	require.Greater(t, facebookHeight, youtubeHeight)
	renderer := NewRenderer()
	html := string(renderer.Render(provider.Attrs{
		Provider: provider.Facebook,
		Src:      "https://www.facebook.com/plugins/video.php?href=x",
		Title:    "Facebook video player",
	}))
	assert.Contains(t, html, fmt.Sprintf(`height="%d"`, facebookHeight))
}

func TestRenderGenericAndEmpty(t *testing.T) {
	renderer := NewRenderer()
	html := string(renderer.Render(provider.Attrs{Src: "https://example.com/player"}))
	assert.Contains(t, html, `src="https://example.com/player"`)

	// Missing attributes render a safe empty state, they never throw.
	empty := string(renderer.Render(provider.Attrs{}))
	assert.Contains(t, empty, "embed--empty")
}

func TestRenderIsStable(t *testing.T) {
	renderer := NewRenderer()
	attrs := provider.Attrs{Provider: provider.YouTube, Src: "https://www.youtube.com/embed/a", Title: "t"}
	first := renderer.Render(attrs)
	second := renderer.Render(attrs)
	assert.Equal(t, first, second)
}

func TestRenderAdSnippetIsInert(t *testing.T) {
	renderer := NewRenderer()
	code := `<script>alert("pwned")</script>`
	html := string(renderer.RenderAdSnippet(code))

	// The stored code is displayed as escaped hover text only.
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "title=")
	assert.True(t, strings.Contains(html, "&lt;script&gt;") || !strings.Contains(html, "alert"))
}
