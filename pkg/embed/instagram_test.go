package embed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstagramTransitionsOnce(t *testing.T) {
	ig := NewInstagramEmbed("https://instagram.com/p/ABC/")
	var stops int
	ig.Observe(func() { stops++ })

	assert.False(t, ig.Loaded())

	// Mutations without an iframe are ignored.
	assert.False(t, ig.HandleMutation(Mutation{AddedIFrame: false}))
	assert.False(t, ig.Loaded())
	assert.Equal(t, 0, stops)

	// The first iframe triggers the transition and tears the observer down.
	assert.True(t, ig.HandleMutation(Mutation{AddedIFrame: true}))
	assert.True(t, ig.Loaded())
	assert.Equal(t, 1, stops)

	// A second mutation changes nothing.
	assert.False(t, ig.HandleMutation(Mutation{AddedIFrame: true}))
	assert.Equal(t, 1, stops)
}

func TestInstagramStaysInLoadingWithoutIframe(t *testing.T) {
	ig := NewInstagramEmbed("https://instagram.com/p/ABC/")
	for i := 0; i < 10; i++ {
		ig.HandleMutation(Mutation{})
	}
	// Degraded but accepted: the placeholder stays usable.
	assert.False(t, ig.Loaded())

	renderer := NewRenderer()
	html := string(renderer.RenderInstance(ig))
	assert.Contains(t, html, `data-embed-state="loading"`)
	assert.Contains(t, html, `href="https://instagram.com/p/ABC/"`)
	assert.NotContains(t, html, "hidden")
}

func TestInstagramRenderAfterLoad(t *testing.T) {
	ig := NewInstagramEmbed("https://instagram.com/p/ABC/")
	ig.HandleMutation(Mutation{AddedIFrame: true})

	renderer := NewRenderer()
	html := string(renderer.RenderInstance(ig))
	assert.Contains(t, html, `data-embed-state="loaded"`)
	assert.Contains(t, html, " hidden")
	assert.Contains(t, html, `data-instgrm-permalink="https://instagram.com/p/ABC/"`)
}

func TestInstagramMountSharesTheScript(t *testing.T) {
	// The shared loader is process-wide state: drive it from a fresh one to
	// keep the test hermetic.
	old := instagramScript
	instagramScript = NewScriptLoader()
	defer func() { instagramScript = old }()

	var starts, processed int
	inject := func(done func()) {
		starts++
		done()
	}
	process := func() { processed++ }

	first := NewInstagramEmbed("https://instagram.com/p/ABC/")
	second := NewInstagramEmbed("https://instagram.com/p/DEF/")
	first.Mount(inject, process)
	second.Mount(inject, process)

	assert.Equal(t, 1, starts)
	assert.Equal(t, 2, processed)
}
