package assets

import (
	"context"

	"github.com/spf13/afero"
)

// LocalUploader stores the editor images on a filesystem. It is used in
// development and in tests, where an object storage is not available.
type LocalUploader struct {
	fs      afero.Fs
	baseURL string
}

// NewLocalUploader returns an uploader writing in the given filesystem.
func NewLocalUploader(fs afero.Fs, baseURL string) *LocalUploader {
	return &LocalUploader{fs: fs, baseURL: baseURL}
}

// Upload writes the image and returns the URL under which it is served.
func (u *LocalUploader) Upload(ctx context.Context, data []byte, name string) (*UploadResult, error) {
	_, ext, err := sniff(data)
	if err != nil {
		return nil, err
	}
	object := objectName(name, ext)
	if err := afero.WriteFile(u.fs, object, data, 0o644); err != nil {
		return nil, ErrUploadFailed
	}
	return &UploadResult{URL: u.baseURL + "/" + object}, nil
}

var _ Uploader = (*LocalUploader)(nil)
