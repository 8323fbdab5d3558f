package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FSDestination implements Destination over a local or mounted filesystem
// directory.
type FSDestination struct {
	root string
}

// NewFSDestination builds a filesystem destination rooted at dir.
func NewFSDestination(dir string) (*FSDestination, error) {
	if dir == "" {
		return nil, fmt.Errorf("destination directory must be provided")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure destination dir %s: %w", dir, err)
	}
	return &FSDestination{root: dir}, nil
}

// Place writes data under the root directory, creating intermediate
// directories as needed. Re-placement overwrites.
func (d *FSDestination) Place(ctx context.Context, key string, data []byte) error {
	destPath := filepath.Join(d.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return &PlacementError{Key: key, Err: err}
	}
	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return &PlacementError{Key: key, Err: err}
	}
	return nil
}

var _ Destination = (*FSDestination)(nil)
