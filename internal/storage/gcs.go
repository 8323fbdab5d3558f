package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// GCSConfig encapsulates the connection info for the Google Cloud Storage
// source bucket.
type GCSConfig struct {
	Bucket          string
	CredentialsJSON []byte
}

// GCSClient implements SourceStore over a GCS bucket.
type GCSClient struct {
	client *gcs.Client
	bucket string
}

// NewGCSClient builds a GCSClient from service-account JSON credentials.
func NewGCSClient(ctx context.Context, cfg GCSConfig) (*GCSClient, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket must be provided")
	}

	var opts []option.ClientOption
	if len(cfg.CredentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed creating gcs client: %w", err)
	}

	return &GCSClient{client: client, bucket: cfg.Bucket}, nil
}

// BucketExists reports whether the configured bucket exists and is readable.
func (c *GCSClient) BucketExists(ctx context.Context) (bool, error) {
	_, err := c.client.Bucket(c.bucket).Attrs(ctx)
	if err != nil {
		if errors.Is(err, gcs.ErrBucketNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed checking bucket %s: %w", c.bucket, err)
	}
	return true, nil
}

// ListObjects lists objects under prefix whose keys end with suffix.
// The suffix comparison is case-insensitive; an empty suffix matches all.
func (c *GCSClient) ListObjects(ctx context.Context, prefix, suffix string) ([]ObjectInfo, error) {
	it := c.client.Bucket(c.bucket).Objects(ctx, &gcs.Query{Prefix: prefix})

	suffix = strings.ToLower(suffix)
	results := make([]ObjectInfo, 0)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gcs list failed for prefix %s: %w", prefix, err)
		}
		if suffix != "" && !strings.HasSuffix(strings.ToLower(attrs.Name), suffix) {
			continue
		}
		results = append(results, ObjectInfo{
			Key:          attrs.Name,
			Size:         attrs.Size,
			LastModified: attrs.Updated,
		})
	}
	return results, nil
}

// Download reads the full content of an object.
func (c *GCSClient) Download(ctx context.Context, key string) ([]byte, error) {
	r, err := c.client.Bucket(c.bucket).Object(key).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed opening gcs object %s: %w", key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed reading gcs object %s: %w", key, err)
	}
	return data, nil
}

// Close releases the underlying client.
func (c *GCSClient) Close() error {
	return c.client.Close()
}

var _ SourceStore = (*GCSClient)(nil)
