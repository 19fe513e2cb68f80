package embed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScriptLoaderInjectsOnce(t *testing.T) {
	loader := NewScriptLoader()
	var starts int
	var dones []func()
	start := func(done func()) {
		starts++
		dones = append(dones, done)
	}

	var readies int
	loader.Ensure(start, func() { readies++ })
	loader.Ensure(start, func() { readies++ })
	loader.Ensure(start, func() { readies++ })

	assert.Equal(t, 1, starts)
	assert.Equal(t, 0, readies)
	assert.False(t, loader.Loaded())

	dones[0]()
	assert.True(t, loader.Loaded())
	assert.Equal(t, 3, readies)

	// Once loaded, callbacks run synchronously and nothing is re-injected.
	loader.Ensure(start, func() { readies++ })
	assert.Equal(t, 1, starts)
	assert.Equal(t, 4, readies)
}

func TestScriptLoaderDoneIsIdempotent(t *testing.T) {
	loader := NewScriptLoader()
	var readies int
	var done func()
	loader.Ensure(func(d func()) { done = d }, func() { readies++ })

	done()
	done()
	assert.Equal(t, 1, readies)
}

func TestScriptLoaderSwallowsPanics(t *testing.T) {
	loader := NewScriptLoader()
	var done func()
	loader.Ensure(func(d func()) { done = d }, func() {
		panic("third-party script failure")
	})

	assert.NotPanics(t, func() { done() })
	assert.True(t, loader.Loaded())

	// A panicking callback must not prevent later ones from running.
	var ran bool
	assert.NotPanics(t, func() {
		loader.Ensure(func(func()) { t.Fatal("should not re-inject") }, func() { ran = true })
	})
	assert.True(t, ran)
}
