// Package memory is the in-process catalog. The sqlite and postgres drivers
// wrap it and mirror every change to their tables.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"isacore/internal/catalog/core"
)

type Store struct {
	mu      sync.RWMutex
	entries map[string]core.Entry
}

func New() *Store {
	return &Store{entries: make(map[string]core.Entry)}
}

func (s *Store) Driver() core.Driver { return core.DriverMemory }

func (s *Store) Close() error { return nil }

func (s *Store) Put(_ context.Context, e core.Entry) (bool, error) {
	if e.Identifier == "" {
		return false, fmt.Errorf("catalog: entry without identifier")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.entries[e.Identifier]; ok && old.Fingerprint == e.Fingerprint {
		return false, nil
	}
	s.entries[e.Identifier] = e.Clone()
	return true, nil
}

func (s *Store) Get(_ context.Context, identifier string) (core.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[identifier]
	if !ok {
		return core.Entry{}, fmt.Errorf("%w: %s", core.ErrNotFound, identifier)
	}
	return e.Clone(), nil
}

func (s *Store) List(context.Context) ([]core.Entry, error) {
	s.mu.RLock()
	out := make([]core.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.Clone())
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier < out[j].Identifier })
	return out, nil
}

func (s *Store) Delete(_ context.Context, identifier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[identifier]; !ok {
		return false, nil
	}
	delete(s.entries, identifier)
	return true, nil
}

// Import replaces the contents with entries.
func (s *Store) Import(entries []core.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]core.Entry, len(entries))
	for _, e := range entries {
		s.entries[e.Identifier] = e.Clone()
	}
}
