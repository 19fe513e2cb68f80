package assets

import (
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngHeader is the minimal signature recognized as image/png.
var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

func TestLocalUpload(t *testing.T) {
	fs := afero.NewMemMapFs()
	uploader := NewLocalUploader(fs, "http://localhost:8080/assets")

	res, err := uploader.Upload(context.Background(), pngHeader, "photo.png")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, strings.HasPrefix(res.URL, "http://localhost:8080/assets/"))
	assert.True(t, strings.HasSuffix(res.URL, ".png"))

	object := strings.TrimPrefix(res.URL, "http://localhost:8080/assets/")
	saved, err := afero.ReadFile(fs, object)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, saved)
}

func TestUploadRejectsNonImages(t *testing.T) {
	uploader := NewLocalUploader(afero.NewMemMapFs(), "http://localhost")
	res, err := uploader.Upload(context.Background(), []byte("just some text"), "note.txt")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestSniff(t *testing.T) {
	mime, ext, err := sniff(pngHeader)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mime)
	assert.Equal(t, "png", ext)
}
