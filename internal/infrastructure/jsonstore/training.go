package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/salescoach/backend/internal/domain"
)

// readOnlyFile lazily decodes a JSON file once and serves the cached value afterwards
type readOnlyFile[T any] struct {
	path   string
	once   sync.Once
	value  []T
	loaded error
}

func (f *readOnlyFile[T]) load(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.once.Do(func() {
		data, err := os.ReadFile(f.path)
		if err != nil {
			f.loaded = fmt.Errorf("read %s: %w", f.path, err)
			return
		}
		if err := json.Unmarshal(data, &f.value); err != nil {
			f.loaded = fmt.Errorf("decode %s: %w", f.path, err)
		}
	})
	return f.value, f.loaded
}

// QuizFile serves quiz questions from a JSON array
type QuizFile struct {
	file readOnlyFile[domain.QuizQuestion]
}

// NewQuizFile creates a quiz repository backed by path
func NewQuizFile(path string) *QuizFile {
	return &QuizFile{file: readOnlyFile[domain.QuizQuestion]{path: path}}
}

// Questions returns every question in file order
func (q *QuizFile) Questions(ctx context.Context) ([]domain.QuizQuestion, error) {
	return q.file.load(ctx)
}

// ScriptFile serves sales scripts from a JSON array
type ScriptFile struct {
	file readOnlyFile[domain.SalesScript]
}

// NewScriptFile creates a script repository backed by path
func NewScriptFile(path string) *ScriptFile {
	return &ScriptFile{file: readOnlyFile[domain.SalesScript]{path: path}}
}

// Scripts returns every script in file order
func (s *ScriptFile) Scripts(ctx context.Context) ([]domain.SalesScript, error) {
	return s.file.load(ctx)
}
