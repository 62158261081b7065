// Package postgres persists the catalog in a Postgres table through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"isacore/internal/catalog/core"
	"isacore/internal/catalog/memory"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/isacore?sslmode=disable"
)

var sqlOpen = sql.Open

const schema = `CREATE TABLE IF NOT EXISTS catalog_entries (
	identifier  TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	studies     INTEGER NOT NULL,
	assays      INTEGER NOT NULL,
	fingerprint TEXT NOT NULL,
	document    BYTEA NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
)`

// Store serves reads from memory and writes every change through to
// Postgres.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// Open connects to dsn (a local default when empty), ensures the table and
// loads its entries.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sqlOpen(defaultDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	s, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New uses an already opened database.
func New(ctx context.Context, db *sql.DB) (*Store, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("ensure catalog table: %w", err)
	}
	s := &Store{Store: memory.New(), db: db}
	if err := s.load(ctx); err != nil {
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
		var e core.Entry
		if err := rows.Scan(&e.Identifier, &e.Title, &e.Studies, &e.Assays, &e.Fingerprint, &e.Document, &e.UpdatedAt); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	s.Import(entries)
	return nil
}

func (s *Store) Driver() core.Driver { return core.DriverPostgres }

func (s *Store) Put(ctx context.Context, e core.Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, err := s.Store.Get(ctx, e.Identifier); err == nil && old.Fingerprint == e.Fingerprint {
		return false, nil
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO catalog_entries (identifier, title, studies, assays, fingerprint, document, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (identifier) DO UPDATE SET title=EXCLUDED.title, studies=EXCLUDED.studies, assays=EXCLUDED.assays,
			fingerprint=EXCLUDED.fingerprint, document=EXCLUDED.document, updated_at=EXCLUDED.updated_at`,
		e.Identifier, e.Title, e.Studies, e.Assays, e.Fingerprint, e.Document, e.UpdatedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("upsert %s: %w", e.Identifier, err)
	}
	return s.Store.Put(ctx, e)
}

func (s *Store) Delete(ctx context.Context, identifier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM catalog_entries WHERE identifier=$1`, identifier); err != nil {
		return false, fmt.Errorf("delete %s: %w", identifier, err)
	}
	return s.Store.Delete(ctx, identifier)
}

func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying database for integration tests.
func (s *Store) DB() *sql.DB { return s.db }
