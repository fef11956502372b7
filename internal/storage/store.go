package storage

import (
	"context"
	"io"
)

// Store defines the interface for the relay's blob storage backend. Blobs are
// independently named, so no cross-file coordination happens here; callers
// own naming and collision avoidance.
type Store interface {
	// Save writes the reader's content under the given path and returns the
	// number of bytes written. A failed save must not leave a readable
	// partial blob behind.
	Save(ctx context.Context, path string, reader io.Reader) (int64, error)
	// Open returns a reader for a stored blob.
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	// Exists reports whether a blob is present under the given path.
	Exists(ctx context.Context, path string) (bool, error)
	// Delete removes a single blob.
	Delete(ctx context.Context, path string) error
	// Clear removes every stored blob.
	Clear(ctx context.Context) error
}
