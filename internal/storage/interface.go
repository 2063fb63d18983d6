package storage

import (
	"context"
	"io"
)

// ObjectStorage is the subset of an object store the publisher needs.
type ObjectStorage interface {
	// Upload stores an object under key, replacing any previous version.
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download opens an object for reading.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// GetURL returns the public URL of an object.
	GetURL(key string) string

	// Exists checks whether an object is present.
	Exists(ctx context.Context, key string) (bool, error)
}
