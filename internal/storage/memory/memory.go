// Package memory is an in-process key-value store, optionally seeded from a
// data directory.
package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"tracker/internal/storage"
)

// SeedFile is read from the data directory by NewFromDir; its content becomes
// the initial transaction log.
const SeedFile = "seed_transactions.json"

type Store struct {
	mu     sync.Mutex
	values map[string]string
	writes int
}

var _ storage.KeyValueStore = (*Store)(nil)

func New() *Store {
	return &Store{values: make(map[string]string)}
}

// NewFromDir returns a store whose transaction log holds the contents of
// base/seed_transactions.json, when that file exists.
func NewFromDir(base string) *Store {
	s := New()
	b, err := os.ReadFile(filepath.Join(base, SeedFile))
	if err != nil {
		return s
	}
	if seed := strings.TrimSpace(string(b)); seed != "" {
		s.values[storage.TransactionKey] = seed
	}
	return s
}

// Get returns the stored value for key.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

// Set overwrites the value for key.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.writes++
	return nil
}

// Writes returns how many times Set was called.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
