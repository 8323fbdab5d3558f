package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Config encapsulates the connection info for an S3-compatible
// destination bucket.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	Region    string
	UseSSL    bool
}

// S3Destination implements Destination for S3-compatible services.
type S3Destination struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewS3Destination builds a new S3Destination backed by a minio client.
func NewS3Destination(cfg S3Config) (*S3Destination, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint must be provided")
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("s3 credentials must be provided")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket must be provided")
	}

	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed creating s3 client: %w", err)
	}

	return &S3Destination{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

// Place writes data under the configured bucket and root prefix,
// preserving the relative key path. Re-placement overwrites.
func (d *S3Destination) Place(ctx context.Context, key string, data []byte) error {
	objectKey := key
	if d.prefix != "" {
		objectKey = path.Join(d.prefix, key)
	}

	_, err := d.client.PutObject(ctx, d.bucket, objectKey,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return &PlacementError{Key: key, Err: err}
	}
	return nil
}

var _ Destination = (*S3Destination)(nil)
