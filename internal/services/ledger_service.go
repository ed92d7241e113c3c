package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"ledger/internal/amqp"
	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/ledger"
	"ledger/internal/log"
	"ledger/internal/view"
)

// EventPublisher announces ledger mutations. *amqp.Client implements it.
type EventPublisher interface {
	PublishCreated(ctx context.Context, id int64, version uint64) error
	PublishDeleted(ctx context.Context, id int64, version uint64) error
}

var _ EventPublisher = (*amqp.Client)(nil)

// LedgerService runs every user event to completion: mutate the store
// (which persists), publish a change event, and serve the recomputed
// projection.
type LedgerService struct {
	store     *ledger.Store
	publisher EventPublisher
	snapshots cache.Cache[view.Snapshot]
	closers   []io.Closer
	logger    *log.Logger
}

type Option func(*LedgerService)

// WithPublisher enables change events. Without one mutations are silent.
func WithPublisher(p EventPublisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

// WithSnapshotCache memoises projections per (version, filter).
func WithSnapshotCache(c cache.Cache[view.Snapshot]) Option {
	return func(s *LedgerService) { s.snapshots = c }
}

// WithCloser registers a resource released by Close, in order.
func WithCloser(c io.Closer) Option {
	return func(s *LedgerService) {
		if c != nil {
			s.closers = append(s.closers, c)
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *LedgerService) { s.logger = l }
}

func NewLedgerService(store *ledger.Store, opts ...Option) *LedgerService {
	s := &LedgerService{store: store, logger: log.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent(log.ComponentLedger)
	return s
}

// Store exposes the underlying ledger for read-only callers.
func (s *LedgerService) Store() *ledger.Store {
	return s.store
}

// Create adds a transaction and publishes a created event. Validation
// failures are returned as *core.ValidationError.
func (s *LedgerService) Create(ctx context.Context, sub core.Submission) (core.Transaction, error) {
	tx, err := s.store.Add(ctx, sub)
	if err != nil {
		var verr *core.ValidationError
		if errors.As(err, &verr) {
			s.logger.InfoContext(ctx, "Submission rejected", "field", verr.Field, log.FieldError, verr.Err)
			return core.Transaction{}, err
		}
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}

	fields := log.NewFields().WithOperation(log.OpCreate).WithTransaction(tx)
	s.logger.InfoContext(ctx, "Transaction created", fields.ToSlice()...)

	if s.publisher != nil {
		if err := s.publisher.PublishCreated(ctx, tx.ID, s.store.Version()); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish created event",
				log.FieldTransactionID, tx.ID, log.FieldError, err)
		}
	}
	return tx, nil
}

// Delete removes id. Removing an unknown id succeeds and publishes nothing.
func (s *LedgerService) Delete(ctx context.Context, id int64) (bool, error) {
	removed, err := s.store.Remove(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete transaction: %w", err)
	}
	if !removed {
		s.logger.DebugContext(ctx, "Delete of unknown transaction", log.FieldTransactionID, id)
		return false, nil
	}

	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldOperation, log.OpDelete, log.FieldTransactionID, id)

	if s.publisher != nil {
		if err := s.publisher.PublishDeleted(ctx, id, s.store.Version()); err != nil {
			s.logger.ErrorContext(ctx, "Failed to publish deleted event",
				log.FieldTransactionID, id, log.FieldError, err)
		}
	}
	return true, nil
}

// Snapshot projects the current ledger for filter.
func (s *LedgerService) Snapshot(filter string) view.Snapshot {
	filter = core.NormalizeFilter(filter)
	if s.snapshots == nil {
		return view.Project(s.store.All(), filter)
	}

	key := snapshotKey(s.store.Version(), filter)
	if snap, ok := s.snapshots.Get(key); ok {
		return snap
	}
	snap := view.Project(s.store.All(), filter)
	s.snapshots.Set(key, snap)
	return snap
}

// Reload re-reads the slot, for processes that do not own the writes.
func (s *LedgerService) Reload(ctx context.Context) error {
	if err := s.store.Reload(ctx); err != nil {
		return err
	}
	if s.snapshots != nil {
		s.snapshots.Purge()
	}
	return nil
}

// Categories returns the distinct categories present in the ledger, in
// order of first appearance.
func (s *LedgerService) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, tx := range s.store.All() {
		if tx.Category == "" || seen[tx.Category] {
			continue
		}
		seen[tx.Category] = true
		out = append(out, tx.Category)
	}
	return out
}

func snapshotKey(version uint64, filter string) string {
	return strconv.FormatUint(version, 10) + ":" + filter
}

// Close releases registered resources and reports every failure.
func (s *LedgerService) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close ledger service: %w", err)
	}
	return nil
}
