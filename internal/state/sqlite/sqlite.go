// Package sqlite stores the novelty state in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"insights/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS seen_pairs (
	pair_key   TEXT PRIMARY KEY,
	a_path     TEXT NOT NULL,
	b_path     TEXT NOT NULL,
	count      INTEGER NOT NULL,
	last_shown TEXT NOT NULL
)`

// Store keeps one row per document pair.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating state directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating seen_pairs table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// Load returns every stored pair.
func (s *Store) Load(ctx context.Context) (*domain.NoveltyState, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT a_path, b_path, count, last_shown FROM seen_pairs`)
	if err != nil {
		return nil, fmt.Errorf("querying seen pairs: %w", err)
	}
	defer rows.Close()

	st := domain.NewNoveltyState()
	for rows.Next() {
		var (
			a, b, shown string
			count       int
		)
		if err := rows.Scan(&a, &b, &count, &shown); err != nil {
			return nil, fmt.Errorf("scanning seen pair: %w", err)
		}
		at, err := time.Parse(time.RFC3339Nano, shown)
		if err != nil {
			return nil, fmt.Errorf("parsing last_shown of %s/%s: %w", a, b, err)
		}
		st.SeenPairs[domain.PairKey(a, b)] = domain.PairRecord{Count: count, LastShown: at}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating seen pairs: %w", err)
	}
	return st, nil
}

// Save upserts every pair of st in one transaction. Stored counts never decrease.
func (s *Store) Save(ctx context.Context, st *domain.NoveltyState) error {
	if st == nil {
		return domain.ErrInvalidInput
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO seen_pairs (pair_key, a_path, b_path, count, last_shown)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(pair_key) DO UPDATE SET
			count = MAX(seen_pairs.count, excluded.count),
			last_shown = excluded.last_shown
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for key, rec := range st.SeenPairs {
		a, b, ok := domain.SplitPairKey(key)
		if !ok {
			continue
		}
		if _, err := stmt.ExecContext(ctx, key, a, b, rec.Count, rec.LastShown.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("saving pair %s/%s: %w", a, b, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seen pairs: %w", err)
	}
	return nil
}
