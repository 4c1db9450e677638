// Package telops persists the weather code table between runs so the
// forecast page is only scraped when no table is on disk.
package telops

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/weathercal/internal/domain"
	"gopkg.in/yaml.v3"
)

// Fetcher downloads a fresh telop table.
type Fetcher interface {
	FetchTelops(ctx context.Context) (domain.TelopTable, error)
}

// FileStore reads and writes the telop table as YAML.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file.
func (s *FileStore) Path() string { return s.path }

// Load reads the table. A missing file returns an error wrapping fs.ErrNotExist.
func (s *FileStore) Load() (domain.TelopTable, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read telops: %w", err)
	}

	// Keys may be written quoted ("100") or bare (100).
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode telops %s: %w", s.path, err)
	}
	table := make(domain.TelopTable, len(raw))
	for k, v := range raw {
		code, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("decode telops %s: non-numeric code %q", s.path, k)
		}
		table[code] = v
	}
	return table, nil
}

// Save writes the table atomically.
func (s *FileStore) Save(table domain.TelopTable) error {
	data, err := yaml.Marshal(map[int][]string(table))
	if err != nil {
		return fmt.Errorf("encode telops: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create telops dir: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write telops: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("write telops: %w", err)
	}
	return nil
}

// Resolve returns the stored table, or fetches and stores one when the file
// does not exist yet. A corrupt file is an error rather than a refetch.
func Resolve(ctx context.Context, store *FileStore, fetcher Fetcher, logger *slog.Logger) (domain.TelopTable, error) {
	table, err := store.Load()
	switch {
	case err == nil && len(table) > 0:
		logger.Debug("telops loaded", "path", store.Path(), "codes", len(table))
		return table, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	if fetcher == nil {
		return nil, fmt.Errorf("no telops at %s and no fetcher configured", store.Path())
	}
	table, err = fetcher.FetchTelops(ctx)
	if err != nil {
		return nil, err
	}
	if err := store.Save(table); err != nil {
		return nil, err
	}
	logger.Info("telops fetched", "path", store.Path(), "codes", len(table))
	return table, nil
}
