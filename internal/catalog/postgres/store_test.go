package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"isacore/internal/catalog/core"
)

// stubConn keeps catalog rows keyed by identifier and records statements.
type stubConn struct {
	execs    []string
	rows     map[string][]driver.Value
	failExec bool
}

var stubSeq atomic.Int64

func newStubDB(t *testing.T) (*sql.DB, *stubConn) {
	t.Helper()
	conn := &stubConn{rows: make(map[string][]driver.Value)}
	name := fmt.Sprintf("stubpg%d", stubSeq.Add(1))
	sql.Register(name, stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	require.NoError(t, err)
	return db, conn
}

type stubDriver struct{ conn *stubConn }

func (d stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

func (c *stubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }
func (c *stubConn) Close() error                        { return nil }
func (c *stubConn) Begin() (driver.Tx, error)           { return nil, fmt.Errorf("not implemented") }
func (c *stubConn) Ping(context.Context) error          { return nil }

func (c *stubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.execs = append(c.execs, query)
	if c.failExec {
		return nil, fmt.Errorf("exec fail")
	}
	q := strings.TrimSpace(query)
	switch {
	case strings.HasPrefix(q, "INSERT"):
		vals := make([]driver.Value, len(args))
		for i, a := range args {
			vals[i] = a.Value
		}
		c.rows[vals[0].(string)] = vals
	case strings.HasPrefix(q, "DELETE"):
		delete(c.rows, args[0].Value.(string))
	}
	return driver.RowsAffected(1), nil
}

func (c *stubConn) QueryContext(context.Context, string, []driver.NamedValue) (driver.Rows, error) {
	keys := make([]string, 0, len(c.rows))
	for k := range c.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := &stubRows{}
	for _, k := range keys {
		out.data = append(out.data, c.rows[k])
	}
	return out, nil
}

type stubRows struct {
	data [][]driver.Value
	pos  int
}

func (r *stubRows) Columns() []string {
	return []string{"identifier", "title", "studies", "assays", "fingerprint", "document", "updated_at"}
}
func (r *stubRows) Close() error { return nil }
func (r *stubRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.pos])
	r.pos++
	return nil
}

func entry(id, fp string) core.Entry {
	return core.Entry{Identifier: id, Title: "T " + id, Studies: 1, Assays: 2, Fingerprint: fp,
		Document: []byte(`{"identifier":"` + id + `"}`), UpdatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func TestWriteThroughAndReload(t *testing.T) {
	ctx := context.Background()
	db, conn := newStubDB(t)
	s, err := New(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, core.DriverPostgres, s.Driver())
	assert.Contains(t, conn.execs[0], "CREATE TABLE IF NOT EXISTS catalog_entries")

	changed, err := s.Put(ctx, entry("I-1", "aa"))
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = s.Put(ctx, entry("I-1", "aa"))
	require.NoError(t, err)
	assert.False(t, changed)
	_, err = s.Put(ctx, entry("I-2", "bb"))
	require.NoError(t, err)
	assert.Len(t, conn.rows, 2)

	ok, err := s.Delete(ctx, "I-2")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, conn.rows, 1)

	reloaded, err := New(ctx, db)
	require.NoError(t, err)
	e, err := reloaded.Get(ctx, "I-1")
	require.NoError(t, err)
	assert.Equal(t, "aa", e.Fingerprint)
	assert.Equal(t, 2, e.Assays)
	assert.Equal(t, `{"identifier":"I-1"}`, string(e.Document))
}

func TestFailedWriteLeavesMemoryUntouched(t *testing.T) {
	ctx := context.Background()
	db, conn := newStubDB(t)
	s, err := New(ctx, db)
	require.NoError(t, err)
	conn.failExec = true
	_, err = s.Put(ctx, entry("I-1", "aa"))
	require.Error(t, err)
	_, err = s.Get(ctx, "I-1")
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestOpenUsesInjectedDriver(t *testing.T) {
	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })
	db, _ := newStubDB(t)
	var gotDriver, gotDSN string
	sqlOpen = func(name, dsn string) (*sql.DB, error) {
		gotDriver, gotDSN = name, dsn
		return db, nil
	}
	_, err := Open(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "pgx", gotDriver)
	assert.Equal(t, defaultDSN, gotDSN)
}

func TestLiveDatabase(t *testing.T) {
	dsn := os.Getenv("ISACORE_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ISACORE_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer s.Close()
	id := fmt.Sprintf("live-%d", time.Now().UnixNano())
	_, err = s.Put(ctx, entry(id, "ff"))
	require.NoError(t, err)
	ok, err := s.Delete(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
}
