package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"ledger/internal/slot"
)

var _ slot.Slot = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	values map[string][]byte
	writes int
}

func New() *Store {
	return &Store{values: map[string][]byte{}}
}

// NewFromDir seeds the store with every <key>.json file found in dir. A
// missing directory yields an empty store.
func NewFromDir(dir string) *Store {
	s := New()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return s
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			continue
		}
		s.values[strings.TrimSuffix(e.Name(), ".json")] = b
	}
	return s
}

// Read returns a copy of the value stored under key.
func (s *Store) Read(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return nil, slot.ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *Store) Write(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = append([]byte(nil), value...)
	s.writes++
	return nil
}

// Writes reports how many times Write has been called.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
