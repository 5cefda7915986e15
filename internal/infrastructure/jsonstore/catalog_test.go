package jsonstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescoach/backend/internal/domain"
)

func TestCatalogFile_LoadMissingFile(t *testing.T) {
	store := NewCatalogFile(filepath.Join(t.TempDir(), "catalog.json"))

	entries, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}

func TestCatalogFile_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewCatalogFile(path).Load(context.Background())
	assert.Error(t, err)
}

func TestCatalogFile_MutateWritesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "catalog.json")
	store := NewCatalogFile(path)
	ctx := context.Background()

	err := store.Mutate(ctx, func(entries []domain.CatalogEntry) ([]domain.CatalogEntry, bool, error) {
		return append(entries, domain.CatalogEntry{ID: 1, Name: "Toyota Camry"}), true, nil
	})
	require.NoError(t, err)

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Toyota Camry", entries[0].Name)

	// only the catalog itself remains, no temp files
	files, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "catalog.json", files[0].Name())
}

func TestCatalogFile_MutateWithoutChangeLeavesFileUntouched(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	original := []byte("[\n  {\"id\": 7, \"name\": \"Kia Seltos\"}\n]\n")
	require.NoError(t, os.WriteFile(path, original, 0o644))
	before, err := os.Stat(path)
	require.NoError(t, err)

	store := NewCatalogFile(path)
	err = store.Mutate(context.Background(), func(entries []domain.CatalogEntry) ([]domain.CatalogEntry, bool, error) {
		return entries, false, domain.ErrNotFound
	})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	err = store.Mutate(context.Background(), func(entries []domain.CatalogEntry) ([]domain.CatalogEntry, bool, error) {
		return entries, false, nil
	})
	require.NoError(t, err)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, after)

	stat, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, before.ModTime(), stat.ModTime())
}

func TestCatalogFile_ConcurrentMutationsAreSerialized(t *testing.T) {
	store := NewCatalogFile(filepath.Join(t.TempDir(), "catalog.json"))
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			err := store.Mutate(ctx, func(entries []domain.CatalogEntry) ([]domain.CatalogEntry, bool, error) {
				return append([]domain.CatalogEntry{{ID: id}}, entries...), true, nil
			})
			assert.NoError(t, err)
		}(int64(i + 1))
	}
	wg.Wait()

	entries, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, writers)
}

func TestCatalogFile_CanceledContext(t *testing.T) {
	store := NewCatalogFile(filepath.Join(t.TempDir(), "catalog.json"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	err = store.Mutate(ctx, func(entries []domain.CatalogEntry) ([]domain.CatalogEntry, bool, error) {
		t.Fatal("mutation must not run")
		return nil, false, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
