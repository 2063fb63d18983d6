package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/timmy/tractorhub/internal/config"
)

// ErrDisabled is returned when artifact publishing is not configured.
var ErrDisabled = errors.New("artifact storage disabled")

// NewStorage creates the configured object store.
// Parameters:
//   - ctx: bounds client setup.
//   - cfg: storage section; Type is detected from the endpoint when empty.
//
// Returns:
//   - ObjectStorage: initialized client.
//   - error: ErrDisabled when storage is off, or a client error.
func NewStorage(ctx context.Context, cfg config.StorageConfig) (ObjectStorage, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	storeType := StorageType(cfg.Type)
	if storeType == "" {
		storeType = detectStorageType(cfg.Endpoint)
	}
	return NewS3Storage(ctx, cfg, storeType)
}

// detectStorageType guesses the provider from the endpoint host.
func detectStorageType(endpoint string) StorageType {
	endpoint = strings.ToLower(endpoint)

	switch {
	case strings.Contains(endpoint, "r2.cloudflarestorage.com"):
		return StorageTypeR2
	case strings.Contains(endpoint, "amazonaws.com"):
		return StorageTypeS3
	default:
		return StorageTypeS3Compatible
	}
}
