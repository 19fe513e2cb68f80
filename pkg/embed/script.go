// Package embed renders the embed and adSnippet nodes of a post to HTML,
// and manages the lifecycle of the provider integrations.
package embed

import (
	"sync"

	"github.com/openpress/openpress-stack/pkg/logger"
)

// Instagram embed script, loaded at most once per process.
const (
	InstagramScriptURL = "https://www.instagram.com/embed.js"
	InstagramScriptID  = "instagram-embed-script"
)

type scriptState int

const (
	scriptNotLoaded scriptState = iota
	scriptLoading
	scriptLoaded
)

// ScriptLoader serializes the one-time injection of a third-party embed
// script. The first Ensure call starts the injection; later calls, made
// while the script is still loading, queue their ready callback. Once the
// script is available, ready callbacks run immediately.
type ScriptLoader struct {
	mu      sync.Mutex
	state   scriptState
	pending []func()
	log     logger.Logger
}

// NewScriptLoader returns a loader in the not-loaded state.
func NewScriptLoader() *ScriptLoader {
	return &ScriptLoader{log: logger.WithNamespace("embed")}
}

// Ensure guarantees that the script injection has been started at most
// once. start receives a done function to call when the script has finished
// loading; ready is invoked once the script is available, synchronously if
// it already is. A panic inside ready is swallowed: a third-party failure
// must not break the host.
func (l *ScriptLoader) Ensure(start func(done func()), ready func()) {
	l.mu.Lock()
	switch l.state {
	case scriptLoaded:
		l.mu.Unlock()
		l.invoke(ready)
		return
	case scriptLoading:
		l.pending = append(l.pending, ready)
		l.mu.Unlock()
		return
	}
	l.state = scriptLoading
	l.pending = append(l.pending, ready)
	l.mu.Unlock()

	start(l.done)
}

// done flips the loader to loaded and drains the queued callbacks.
func (l *ScriptLoader) done() {
	l.mu.Lock()
	if l.state == scriptLoaded {
		l.mu.Unlock()
		return
	}
	l.state = scriptLoaded
	pending := l.pending
	l.pending = nil
	l.mu.Unlock()

	for _, ready := range pending {
		l.invoke(ready)
	}
}

// Loaded reports whether the script has finished loading.
func (l *ScriptLoader) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state == scriptLoaded
}

func (l *ScriptLoader) invoke(ready func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Warnf("Embed script callback has panicked: %v", r)
		}
	}()
	ready()
}
