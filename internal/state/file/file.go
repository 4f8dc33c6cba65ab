// Package file stores the novelty state as a YAML document.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"insights/internal/domain"
)

const formatVersion = 1

type pairEntry struct {
	A         string    `yaml:"a"`
	B         string    `yaml:"b"`
	Count     int       `yaml:"count"`
	LastShown time.Time `yaml:"last_shown"`
}

type document struct {
	Version int         `yaml:"version"`
	Pairs   []pairEntry `yaml:"pairs"`
}

// Store reads and writes a single YAML file. Writes go through a temp file and rename.
type Store struct {
	mu   sync.Mutex
	path string
}

// New returns a store backed by path. The file is created on first Save.
func New(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Load reads the state. A missing file yields an empty state.
func (s *Store) Load(ctx context.Context) (*domain.NoveltyState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.NewNoveltyState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", s.path, err)
	}
	st := domain.NewNoveltyState()
	for _, p := range doc.Pairs {
		if p.A == "" || p.B == "" {
			continue
		}
		st.SeenPairs[domain.PairKey(p.A, p.B)] = domain.PairRecord{Count: p.Count, LastShown: p.LastShown}
	}
	return st, nil
}

// Save replaces the file with st.
func (s *Store) Save(ctx context.Context, st *domain.NoveltyState) error {
	if st == nil {
		return domain.ErrInvalidInput
	}
	doc := document{Version: formatVersion, Pairs: make([]pairEntry, 0, len(st.SeenPairs))}
	for key, rec := range st.SeenPairs {
		a, b, ok := domain.SplitPairKey(key)
		if !ok {
			continue
		}
		doc.Pairs = append(doc.Pairs, pairEntry{A: a, B: b, Count: rec.Count, LastShown: rec.LastShown})
	}
	sort.Slice(doc.Pairs, func(i, j int) bool {
		if doc.Pairs[i].A != doc.Pairs[j].A {
			return doc.Pairs[i].A < doc.Pairs[j].A
		}
		return doc.Pairs[i].B < doc.Pairs[j].B
	})

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".state-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
