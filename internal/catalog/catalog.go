// Package catalog indexes loaded investigations by identifier with a
// structural fingerprint, so unchanged re-imports are detected.
package catalog

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"isacore/internal/catalog/core"
	"isacore/internal/catalog/memory"
	"isacore/internal/catalog/postgres"
	"isacore/internal/catalog/sqlite"
	"isacore/internal/logging"
	"isacore/pkg/isa"
	"isacore/pkg/isajson"
)

type (
	Driver = core.Driver
	Entry  = core.Entry
	Store  = core.Store
)

const (
	DriverMemory   = core.DriverMemory
	DriverSQLite   = core.DriverSQLite
	DriverPostgres = core.DriverPostgres
)

var ErrNotFound = core.ErrNotFound

// Open selects a catalog from the environment.
//
//	ISACORE_CATALOG_DRIVER  memory|sqlite|postgres (default sqlite)
//	ISACORE_SQLITE_PATH     database file (default isacore.db)
//	ISACORE_POSTGRES_DSN    connection string
func Open(ctx context.Context) (Store, error) {
	driver := Driver(strings.ToLower(strings.TrimSpace(os.Getenv("ISACORE_CATALOG_DRIVER"))))
	if driver == "" {
		driver = DriverSQLite
	}
	logging.L().Debug("opening catalog", "driver", string(driver))
	switch driver {
	case DriverMemory:
		return memory.New(), nil
	case DriverSQLite:
		return sqlite.Open(ctx, os.Getenv("ISACORE_SQLITE_PATH"))
	case DriverPostgres:
		return postgres.Open(ctx, os.Getenv("ISACORE_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown catalog driver %q", driver)
	}
}

// Register indexes inv, encoding its document with counter identifiers.
// It reports whether the catalog changed.
func Register(ctx context.Context, store Store, inv *isa.Investigation) (bool, error) {
	e, err := core.NewEntry(inv, isajson.Writer{}, time.Now())
	if err != nil {
		return false, err
	}
	changed, err := store.Put(ctx, e)
	if err != nil {
		return false, err
	}
	logging.L().Debug("catalog entry registered", "investigation", e.Identifier,
		"fingerprint", e.Fingerprint, "changed", changed)
	return changed, nil
}
