package storage

import (
	"context"
	"fmt"
	"time"
)

// ObjectInfo represents metadata for a remote file/object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// SourceStore captures the minimal operations the pipeline needs from the
// store it transfers from.
type SourceStore interface {
	BucketExists(ctx context.Context) (bool, error)
	ListObjects(ctx context.Context, prefix, suffix string) ([]ObjectInfo, error)
	Download(ctx context.Context, key string) ([]byte, error)
}

// Destination writes transferred bytes under a target root, preserving the
// relative key path.
type Destination interface {
	Place(ctx context.Context, key string, data []byte) error
}

// DiscoveryError is fatal: without a candidate set the batch cannot proceed.
type DiscoveryError struct {
	Bucket string
	Err    error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("discovery failed for bucket %s: %v", e.Bucket, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// PlacementError marks a single object's write failure. It does not stop
// other in-flight objects.
type PlacementError struct {
	Key string
	Err error
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("placement failed for %s: %v", e.Key, e.Err)
}

func (e *PlacementError) Unwrap() error { return e.Err }
