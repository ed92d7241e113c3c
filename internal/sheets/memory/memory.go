package memory

import (
	"bufio"
	"context"
	"os"
	"strings"
	"sync"

	"ledger/internal/sheets"
	"ledger/internal/view"
)

var (
	_ sheets.SnapshotExporter = (*Store)(nil)
	_ sheets.TaxonomyReader   = (*Store)(nil)
)

// DefaultCategories seed the taxonomy when nothing is configured.
var DefaultCategories = []string{"Food", "Transport", "Housing", "Utilities", "Entertainment", "Health", "Salary", "Other"}

// Store keeps exported snapshots and a fixed category list in memory.
type Store struct {
	mu      sync.Mutex
	cats    []string
	exports []view.Snapshot
}

func New(cats []string) *Store {
	return &Store{cats: dedupe(cats)}
}

// NewFromFile reads one category per line, skipping blanks and # comments.
// DefaultCategories are used when the file is missing or empty.
func NewFromFile(path string) *Store {
	cats := readLines(path)
	if len(cats) == 0 {
		cats = DefaultCategories
	}
	return New(cats)
}

// Export records snap.
func (s *Store) Export(_ context.Context, snap view.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exports = append(s.exports, snap)
	return nil
}

// Last returns the most recent export.
func (s *Store) Last() (view.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.exports) == 0 {
		return view.Snapshot{}, false
	}
	return s.exports[len(s.exports)-1], true
}

// Exports returns how many snapshots were exported.
func (s *Store) Exports() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.exports)
}

func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.cats...), nil
}

func readLines(path string) []string {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

// dedupe drops blanks and repeats, preserving input order.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
