// Package storage publishes rendered files to the configured backend.
package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/couchcryptid/weathercal/internal/config"
)

// Store writes one object under key.
type Store interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
}

// New builds the Store selected by STORAGE_BACKEND.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageBackend {
	case config.StorageS3:
		return NewS3Store(ctx, cfg.BucketName, cfg.S3PublicRead)
	case config.StorageStdout:
		return NewWriterStore(os.Stdout), nil
	case config.StorageFS:
		return NewFSStore(cfg.OutputDir), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// cleanKey rejects keys that would escape the store root.
func cleanKey(key string) (string, error) {
	k := path.Clean("/" + key)[1:]
	if k == "" || k != strings.TrimPrefix(key, "/") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return k, nil
}
