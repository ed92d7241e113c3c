// Package ledger owns the ordered collection of transactions and keeps it
// synchronised with a durable slot.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/slot"
)

// DefaultKey is the slot key the browser widget used for its collection.
const DefaultKey = "transactions"

type Option func(*Store)

// WithIDSource replaces the random id generator.
func WithIDSource(ids IDSource) Option {
	return func(s *Store) { s.ids = ids }
}

func WithLogger(logger *log.Logger) Option {
	return func(s *Store) { s.logger = logger.WithComponent(log.ComponentLedger) }
}

// Store is the ledger state. Every successful Add or Remove rewrites the
// whole collection to the slot before it becomes visible in memory.
type Store struct {
	mu      sync.RWMutex
	slot    slot.Slot
	key     string
	records []core.Transaction
	version uint64
	ids     IDSource
	logger  *log.Logger
}

// New returns an empty store bound to key in s. Nothing is read.
func New(s slot.Slot, key string, opts ...Option) *Store {
	if key == "" {
		key = DefaultKey
	}
	st := &Store{
		slot:   s,
		key:    key,
		ids:    RandomIDs,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(st)
	}
	return st
}

// Open creates a store and hydrates it from the slot. A missing or
// malformed value yields an empty collection; only read failures of the
// slot itself are returned.
func Open(ctx context.Context, s slot.Slot, key string, opts ...Option) (*Store, error) {
	st := New(s, key, opts...)
	if err := st.load(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Store) load(ctx context.Context) error {
	txs, err := s.read(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.records = txs
	s.mu.Unlock()
	return nil
}

func (s *Store) read(ctx context.Context) ([]core.Transaction, error) {
	b, err := s.slot.Read(ctx, s.key)
	if errors.Is(err, slot.ErrNotFound) {
		s.logger.InfoContext(ctx, "Ledger slot empty, starting fresh", log.FieldSlotKey, s.key)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	txs, skipped, err := Decode(b)
	if err != nil {
		s.logger.WarnContext(ctx, "Ledger slot malformed, starting empty",
			log.FieldSlotKey, s.key, log.FieldError, err)
		return nil, nil
	}
	for _, sk := range skipped {
		s.logger.WarnContext(ctx, "Skipping malformed ledger record",
			log.FieldSlotKey, s.key, "index", sk.Index, log.FieldError, sk.Err)
	}

	s.logger.InfoContext(ctx, "Ledger loaded",
		log.FieldSlotKey, s.key, log.FieldCount, len(txs), "skipped", len(skipped))
	return txs, nil
}

// Add validates sub, appends it with a fresh id and persists the result.
// Validation failures are *core.ValidationError and leave the store as is.
func (s *Store) Add(ctx context.Context, sub core.Submission) (core.Transaction, error) {
	tx, err := sub.Transaction()
	if err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx.ID, err = s.nextID()
	if err != nil {
		return core.Transaction{}, err
	}

	next := append(slices.Clip(s.records), tx)
	if err := s.persist(ctx, next); err != nil {
		return core.Transaction{}, err
	}
	s.records = next
	s.version++
	return tx, nil
}

// Remove deletes the transaction with id. An unknown id is not an error;
// the slot is rewritten either way. The result reports whether a record
// was removed.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := slices.DeleteFunc(slices.Clone(s.records), func(tx core.Transaction) bool {
		return tx.ID == id
	})
	if err := s.persist(ctx, next); err != nil {
		return false, err
	}
	removed := len(next) != len(s.records)
	s.records = next
	if removed {
		s.version++
	}
	return removed, nil
}

// All returns a copy of the collection in insertion order.
func (s *Store) All() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.records)
}

// ByCategory returns the transactions whose category equals filter, or
// all of them for core.AllCategories.
func (s *Store) ByCategory(filter string) []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Transaction, 0, len(s.records))
	for _, tx := range s.records {
		if core.MatchesCategory(filter, tx.Category) {
			out = append(out, tx)
		}
	}
	return out
}

// Len returns the number of stored transactions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Version increases by one with every mutation that changed the collection.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Key returns the slot key the store persists under.
func (s *Store) Key() string {
	return s.key
}

// Reload replaces the in-memory collection with what the slot holds now.
// Used by readers that share a slot with another writer process.
func (s *Store) Reload(ctx context.Context) error {
	txs, err := s.read(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.records = txs
	s.version++
	s.mu.Unlock()
	return nil
}

func (s *Store) persist(ctx context.Context, txs []core.Transaction) error {
	b, err := Encode(txs)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := s.slot.Write(ctx, s.key, b); err != nil {
		return fmt.Errorf("persist ledger: %w", err)
	}
	return nil
}

// nextID must be called with s.mu held.
func (s *Store) nextID() (int64, error) {
	for range maxIDAttempts {
		id, err := s.ids()
		if err != nil {
			return 0, fmt.Errorf("generate id: %w", err)
		}
		if !slices.ContainsFunc(s.records, func(tx core.Transaction) bool { return tx.ID == id }) {
			return id, nil
		}
	}
	return 0, ErrIDExhausted
}
