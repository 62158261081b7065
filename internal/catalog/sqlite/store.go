// Package sqlite persists the catalog in a SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"isacore/internal/catalog/core"
	"isacore/internal/catalog/memory"
)

const schema = `CREATE TABLE IF NOT EXISTS catalog_entries (
	identifier  TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	studies     INTEGER NOT NULL,
	assays      INTEGER NOT NULL,
	fingerprint TEXT NOT NULL,
	document    BLOB NOT NULL,
	updated_at  TEXT NOT NULL
)`

// Store serves reads from memory and writes every change through to the
// database.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// Open opens or creates the database at path and loads its entries.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = "isacore.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create catalog table: %w", err)
	}
	s := &Store{Store: memory.New(), db: db, path: path}
	if err := s.load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT identifier, title, studies, assays, fingerprint, document, updated_at FROM catalog_entries`)
	if err != nil {
		return fmt.Errorf("select catalog: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var entries []core.Entry
	for rows.Next() {
		var (
			e       core.Entry
			updated string
		)
		if err := rows.Scan(&e.Identifier, &e.Title, &e.Studies, &e.Assays, &e.Fingerprint, &e.Document, &updated); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if e.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
			return fmt.Errorf("entry %s: %w", e.Identifier, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	s.Import(entries)
	return nil
}

func (s *Store) Driver() core.Driver { return core.DriverSQLite }

func (s *Store) Put(ctx context.Context, e core.Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, err := s.Store.Get(ctx, e.Identifier); err == nil && old.Fingerprint == e.Fingerprint {
		return false, nil
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO catalog_entries(identifier, title, studies, assays, fingerprint, document, updated_at)
		VALUES(?,?,?,?,?,?,?)
		ON CONFLICT(identifier) DO UPDATE SET title=excluded.title, studies=excluded.studies, assays=excluded.assays,
			fingerprint=excluded.fingerprint, document=excluded.document, updated_at=excluded.updated_at`,
		e.Identifier, e.Title, e.Studies, e.Assays, e.Fingerprint, e.Document, e.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return false, fmt.Errorf("upsert %s: %w", e.Identifier, err)
	}
	return s.Store.Put(ctx, e)
}

func (s *Store) Delete(ctx context.Context, identifier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM catalog_entries WHERE identifier = ?`, identifier); err != nil {
		return false, fmt.Errorf("delete %s: %w", identifier, err)
	}
	return s.Store.Delete(ctx, identifier)
}

func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file.
func (s *Store) Path() string { return s.path }
