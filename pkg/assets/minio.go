package assets

import (
	"bytes"
	"context"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/openpress/openpress-stack/pkg/logger"
)

// MinioUploader stores the editor images in a S3-compatible bucket.
type MinioUploader struct {
	client  *minio.Client
	bucket  string
	baseURL string
	log     logger.Logger
}

// MinioOptions are the connection parameters of the bucket.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// BaseURL is the public prefix under which the objects are served.
	BaseURL string
}

// NewMinioUploader connects to the object storage and ensures the bucket
// exists.
func NewMinioUploader(ctx context.Context, opts MinioOptions) (*MinioUploader, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}

	return &MinioUploader{
		client:  client,
		bucket:  opts.Bucket,
		baseURL: opts.BaseURL,
		log:     logger.WithNamespace("assets"),
	}, nil
}

// Upload puts the image in the bucket and returns its public URL.
func (u *MinioUploader) Upload(ctx context.Context, data []byte, name string) (*UploadResult, error) {
	mime, ext, err := sniff(data)
	if err != nil {
		return nil, err
	}
	object := objectName(name, ext)
	_, err = u.client.PutObject(ctx, u.bucket, object,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: mime})
	if err != nil {
		resp := minio.ToErrorResponse(err)
		u.log.WithField("code", resp.StatusCode).
			Warnf("Cannot upload image %s: %s", object, resp.Message)
		return nil, ErrUploadFailed
	}
	return &UploadResult{URL: u.baseURL + "/" + u.bucket + "/" + object}, nil
}

var _ Uploader = (*MinioUploader)(nil)
