// Package jsonstore persists the catalog and training content as JSON files on disk.
package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/salescoach/backend/internal/domain"
)

// CatalogFile stores the whole catalog as one JSON array, most recent entry first.
// Mutations are serialized and written through a temp file renamed over the original,
// so readers never observe a truncated file.
type CatalogFile struct {
	path string
	mu   sync.Mutex
}

// NewCatalogFile creates a store backed by path. The file is created on first write.
func NewCatalogFile(path string) *CatalogFile {
	return &CatalogFile{path: path}
}

// Load reads the full catalog. A missing file is an empty catalog.
func (c *CatalogFile) Load(ctx context.Context) ([]domain.CatalogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.read()
}

// Mutate loads the catalog, applies fn, and rewrites the file only when fn reports a change.
func (c *CatalogFile) Mutate(ctx context.Context, fn func([]domain.CatalogEntry) ([]domain.CatalogEntry, bool, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := c.read()
	if err != nil {
		return err
	}

	updated, changed, err := fn(entries)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return writeJSONAtomic(c.path, updated)
}

func (c *CatalogFile) read() ([]domain.CatalogEntry, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return []domain.CatalogEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var entries []domain.CatalogEntry
	if len(data) == 0 {
		return []domain.CatalogEntry{}, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", c.path, err)
	}
	if entries == nil {
		entries = []domain.CatalogEntry{}
	}
	return entries, nil
}

// writeJSONAtomic writes v to a temp file next to path and renames it into place
func writeJSONAtomic(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
