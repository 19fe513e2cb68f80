// Package assets is the upload gateway used by the editor: it takes the raw
// bytes of an image and stores them durably, returning a public URL. The
// editor never blocks on it and never persists anything but the URL.
package assets

import (
	"context"
	"errors"
	"path"

	"github.com/gofrs/uuid/v5"
	"github.com/h2non/filetype"
)

var (
	// ErrNotAnImage is used when the uploaded payload is not a supported
	// image format.
	ErrNotAnImage = errors.New("The payload is not an image")
	// ErrUploadFailed is used when the storage backend rejected the upload.
	ErrUploadFailed = errors.New("The upload has failed")
)

// UploadResult is the ephemeral value returned by a successful upload. It
// is consumed to build an inline image node and never stored.
type UploadResult struct {
	URL string `json:"url"`
}

// Uploader stores raw image bytes and returns a durable URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, name string) (*UploadResult, error)
}

// sniff returns the mime type and canonical extension of an image payload,
// or ErrNotAnImage.
func sniff(data []byte) (mime string, ext string, err error) {
	kind, err := filetype.Image(data)
	if err != nil {
		return "", "", ErrNotAnImage
	}
	return kind.MIME.Value, kind.Extension, nil
}

// objectName builds a unique object name, keeping the sniffed extension so
// that the URL stays recognizable as an image.
func objectName(name, ext string) string {
	id, _ := uuid.NewV4()
	if e := path.Ext(name); e != "" {
		ext = e[1:]
	}
	return id.String() + "." + ext
}
