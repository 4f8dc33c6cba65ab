// Package state persists rumination novelty counters between runs.
package state

import (
	"context"
	"fmt"

	"insights/internal/domain"
	"insights/internal/state/file"
	"insights/internal/state/sqlite"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Store loads and saves the novelty state.
type Store interface {
	// Load returns the stored state, or an empty state when nothing was saved yet.
	Load(ctx context.Context) (*domain.NoveltyState, error)
	Save(ctx context.Context, s *domain.NoveltyState) error
	Close() error
}

var (
	_ Store = (*file.Store)(nil)
	_ Store = (*sqlite.Store)(nil)
)

// Open returns the store for backend at path.
func Open(backend, path string) (Store, error) {
	switch backend {
	case BackendFile, "":
		return file.New(path), nil
	case BackendSQLite:
		s, err := sqlite.Open(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("state backend %q: %w", backend, domain.ErrInvalidInput)
	}
}
