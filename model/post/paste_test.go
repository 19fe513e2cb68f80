package post

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cozy/prosemirror-go/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openpress/openpress-stack/pkg/assets"
)

type fakeUploader struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (u *fakeUploader) Upload(_ context.Context, data []byte, name string) (*assets.UploadResult, error) {
	u.mu.Lock()
	u.calls++
	u.mu.Unlock()
	if u.fail {
		return nil, assets.ErrUploadFailed
	}
	return &assets.UploadResult{URL: "https://cdn.example.com/uploaded.png"}, nil
}

func (u *fakeUploader) uploadCalls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls
}

func TestPasteImageTakesPrecedenceOverURL(t *testing.T) {
	s := newTestSession(t, nil)
	uploader := &fakeUploader{}
	p := NewPipeline(s, uploader)

	clip := Clipboard{Items: []Item{
		{Type: "text/plain", Data: []byte("https://youtu.be/abc123")},
		{Type: "image/png", Data: []byte("not-a-real-png")},
	}}
	assert.True(t, p.HandlePaste(context.Background(), clip))
	p.Flush()

	assert.Equal(t, 1, uploader.uploadCalls())
	blocks := topBlocks(t, s)
	for _, block := range blocks {
		assert.NotEqual(t, "embed", block.Type.Name)
	}
}

func TestPasteImageInsertsAtCompletionTime(t *testing.T) {
	s := newTestSession(t, nil)
	p := NewPipeline(s, &fakeUploader{})

	clip := Clipboard{Items: []Item{{Type: "image/png", Data: []byte("png-bytes")}}}
	assert.True(t, p.HandlePaste(context.Background(), clip))
	p.Flush()

	blocks := topBlocks(t, s)
	require.Len(t, blocks, 2)
	para := blocks[0]
	require.Equal(t, "paragraph", para.Type.Name)
	found := false
	para.ForEach(func(child *model.Node, _ int, _ int) {
		if child.Type.Name == "image" {
			found = true
		}
	})
	assert.True(t, found)
}

func TestPasteUploadFailureLeavesDocumentUntouched(t *testing.T) {
	s := newTestSession(t, nil)
	uploader := &fakeUploader{fail: true}
	p := NewPipeline(s, uploader)

	var notified error
	p.OnUploadError = func(err error) { notified = err }

	before := s.Snapshot()
	version := s.Version()

	clip := Clipboard{Items: []Item{{Type: "image/jpeg", Data: []byte("jpeg-bytes")}}}
	assert.True(t, p.HandlePaste(context.Background(), clip))
	p.Flush()

	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, version, s.Version())
	assert.ErrorIs(t, notified, assets.ErrUploadFailed)
}

func TestPasteEmbeddableURL(t *testing.T) {
	s := newTestSession(t, nil)
	p := NewPipeline(s, &fakeUploader{})

	clip := Clipboard{Items: []Item{
		{Type: "text/plain", Data: []byte("  https://www.instagram.com/p/xyz \n")},
	}}
	assert.True(t, p.HandlePaste(context.Background(), clip))

	blocks := topBlocks(t, s)
	require.Len(t, blocks, 2)
	embed := blocks[0]
	assert.Equal(t, "embed", embed.Type.Name)
	assert.Equal(t, "instagram", embed.Attrs["provider"])
	assert.Equal(t, "https://www.instagram.com/p/xyz/", embed.Attrs["url"])
}

func TestPasteFallsThroughForPlainText(t *testing.T) {
	s := newTestSession(t, nil)
	p := NewPipeline(s, &fakeUploader{})

	clip := Clipboard{Items: []Item{
		{Type: "text/plain", Data: []byte("just some words, not a URL")},
	}}
	assert.False(t, p.HandlePaste(context.Background(), clip))
	require.NoError(t, p.PasteFallback(clip))

	blocks := topBlocks(t, s)
	require.Len(t, blocks, 2)
	assert.Equal(t, "just some words, not a URL", blocks[0].TextContent())
}

func TestPasteFallbackSanitizesHTML(t *testing.T) {
	s := newTestSession(t, nil)
	p := NewPipeline(s, &fakeUploader{})

	clip := Clipboard{Items: []Item{
		{Type: "text/html", Data: []byte(`<p>keep me</p><script>alert("xss")</script><p>and me</p>`)},
	}}
	require.NoError(t, p.PasteFallback(clip))

	blocks := topBlocks(t, s)
	require.Len(t, blocks, 3)
	assert.Equal(t, "keep me", blocks[0].TextContent())
	assert.Equal(t, "and me", blocks[1].TextContent())
}

func TestInsertImageFromPicker(t *testing.T) {
	s := newTestSession(t, nil)
	p := NewPipeline(s, &fakeUploader{})

	require.NoError(t, p.InsertImageFromPicker(context.Background(), []byte("png"), "pick.png"))
	blocks := topBlocks(t, s)
	require.Len(t, blocks, 2)
	assert.Equal(t, "paragraph", blocks[0].Type.Name)
}

func TestInsertImageFromPickerFailure(t *testing.T) {
	s := newTestSession(t, nil)
	p := NewPipeline(s, &fakeUploader{fail: true})

	before := s.Snapshot()
	err := p.InsertImageFromPicker(context.Background(), []byte("png"), "pick.png")
	assert.True(t, errors.Is(err, assets.ErrUploadFailed))
	assert.Equal(t, before, s.Snapshot())
}

func TestSniffedImageWithoutMimeType(t *testing.T) {
	s := newTestSession(t, nil)
	uploader := &fakeUploader{}
	p := NewPipeline(s, uploader)

	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	clip := Clipboard{Items: []Item{{Type: "", Data: png}}}
	assert.True(t, p.HandlePaste(context.Background(), clip))
	p.Flush()
	assert.Equal(t, 1, uploader.uploadCalls())
}
