// Package core defines catalog entries and the store contract shared by the
// catalog drivers.
package core

import (
	"context"
	"errors"
	"strconv"
	"time"

	"isacore/pkg/isa"
	"isacore/pkg/isajson"
)

// Driver identifies a catalog backend.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ErrNotFound is returned for unknown identifiers.
var ErrNotFound = errors.New("catalog: investigation not found")

// Entry indexes one investigation by identifier.
type Entry struct {
	Identifier  string    `json:"identifier"`
	Title       string    `json:"title,omitempty"`
	Studies     int       `json:"studies"`
	Assays      int       `json:"assays"`
	Fingerprint string    `json:"fingerprint"`
	Document    []byte    `json:"-"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store keeps one entry per identifier. Put reports whether the stored
// entry changed; an entry with an unchanged fingerprint is left as is.
// List returns entries sorted by identifier.
type Store interface {
	Put(ctx context.Context, e Entry) (bool, error)
	Get(ctx context.Context, identifier string) (Entry, error)
	List(ctx context.Context) ([]Entry, error)
	Delete(ctx context.Context, identifier string) (bool, error)
	Driver() Driver
	Close() error
}

// NewEntry summarizes inv and encodes its document with w. Unused
// synthetic protocols of inv are pruned first.
func NewEntry(inv *isa.Investigation, w isajson.Writer, now time.Time) (Entry, error) {
	if inv.Identifier == "" {
		return Entry{}, errors.New("catalog: investigation has no identifier")
	}
	inv.PruneSyntheticProtocols()
	sum, err := isa.Hash(inv)
	if err != nil {
		return Entry{}, err
	}
	doc, err := w.Marshal(inv)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{
		Identifier:  inv.Identifier,
		Title:       inv.Title,
		Studies:     len(inv.Studies),
		Fingerprint: strconv.FormatUint(sum, 16),
		Document:    doc,
		UpdatedAt:   now.UTC(),
	}
	for _, s := range inv.Studies {
		e.Assays += len(s.Assays)
	}
	return e, nil
}

// Investigation decodes the stored document.
func (e Entry) Investigation() (*isa.Investigation, error) {
	return isajson.Unmarshal(e.Document, isajson.Options{Name: e.Identifier})
}

// Clone copies e so the document is not shared.
func (e Entry) Clone() Entry {
	e.Document = append([]byte(nil), e.Document...)
	return e
}
