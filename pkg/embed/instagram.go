package embed

import (
	"sync"

	"github.com/openpress/openpress-stack/pkg/logger"
)

// instagramScript is the process-wide loader for the Instagram embed
// script. All the Instagram embeds of all the open documents share it.
var instagramScript = NewScriptLoader()

// InstagramScript exposes the shared loader, mostly for the host page
// integration and for tests.
func InstagramScript() *ScriptLoader { return instagramScript }

type instagramState int

const (
	// instagramLoading shows a placeholder link and the provider stub,
	// waiting for the third-party script to produce an iframe.
	instagramLoading instagramState = iota
	// instagramLoaded hides the placeholder; the provider content is shown.
	instagramLoaded
)

// InstagramEmbed is the lifecycle of one embedded Instagram post. It starts
// in the loading state, with a visible placeholder, and transitions exactly
// once to loaded when the provider rendering completes. If the script never
// loads, it stays in loading forever: the placeholder link remains usable
// and this is not an error.
type InstagramEmbed struct {
	mu        sync.Mutex
	permalink string
	state     instagramState
	stop      func()
	log       logger.Logger
}

// NewInstagramEmbed returns an embed in the loading state for the given
// permalink.
func NewInstagramEmbed(permalink string) *InstagramEmbed {
	return &InstagramEmbed{
		permalink: permalink,
		log:       logger.WithNamespace("embed"),
	}
}

// Permalink returns the normalized post URL.
func (ig *InstagramEmbed) Permalink() string { return ig.permalink }

// Loaded reports whether the provider rendering has completed.
func (ig *InstagramEmbed) Loaded() bool {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	return ig.state == instagramLoaded
}

// Mount ensures the shared script is loading and invokes the provider
// processing entry point once it is available. process is the third-party
// global; a panic from it is swallowed by the loader. It is safe to mount
// many embeds: the script is injected once and process may run repeatedly.
func (ig *InstagramEmbed) Mount(inject func(done func()), process func()) {
	instagramScript.Ensure(inject, process)
}

// Observe registers the teardown of the completion observer. The observer
// itself lives with the host integration; it must call HandleMutation on
// every structural change of the embed container.
func (ig *InstagramEmbed) Observe(stop func()) {
	ig.mu.Lock()
	defer ig.mu.Unlock()
	ig.stop = stop
}

// Mutation describes a structural change observed inside the embed
// container.
type Mutation struct {
	// AddedIFrame is true when an iframe appeared anywhere in the subtree.
	AddedIFrame bool
}

// HandleMutation transitions to loaded on the first mutation carrying an
// iframe, tears the observer down, and reports whether a transition
// happened. Later mutations are ignored.
func (ig *InstagramEmbed) HandleMutation(m Mutation) bool {
	ig.mu.Lock()
	if ig.state == instagramLoaded || !m.AddedIFrame {
		ig.mu.Unlock()
		return false
	}
	ig.state = instagramLoaded
	stop := ig.stop
	ig.stop = nil
	ig.mu.Unlock()

	if stop != nil {
		stop()
	}
	ig.log.Debugf("Instagram embed %s is loaded", ig.permalink)
	return true
}
