package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/log"
	"ledger/internal/sheets"
	"ledger/internal/view"
)

// Source is where the worker gets the ledger it exports.
// *services.LedgerService implements it.
type Source interface {
	Reload(ctx context.Context) error
	Snapshot(filter string) view.Snapshot
}

// SyncWorker mirrors the ledger into an external sheet. Each change event
// triggers a full reload and re-export, so lost or reordered events only
// delay convergence.
type SyncWorker struct {
	source   Source
	exporter sheets.SnapshotExporter
	filter   string
	logger   *log.Logger

	mu       sync.Mutex
	exported int
}

func NewSyncWorker(source Source, exporter sheets.SnapshotExporter, filter string, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		source:   source,
		exporter: exporter,
		filter:   filter,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent processes one ledger event from AMQP. A returned error makes
// the consumer requeue the message.
func (w *SyncWorker) HandleEvent(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		"event", msg.Event,
		"message_id", msg.MessageID,
		log.FieldTransactionID, msg.ID,
		log.FieldVersion, msg.Version)

	if err := w.Sync(ctx); err != nil {
		return fmt.Errorf("sync after %s event %d: %w", msg.Event, msg.ID, err)
	}
	return nil
}

// Sync reloads the ledger and exports the current snapshot.
func (w *SyncWorker) Sync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.source.Reload(ctx); err != nil {
		return fmt.Errorf("reload ledger: %w", err)
	}
	snap := w.source.Snapshot(w.filter)
	if err := w.exporter.Export(ctx, snap); err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	w.exported++

	w.logger.InfoContext(ctx, "Ledger exported",
		log.FieldCount, len(snap.Rows),
		log.FieldFilter, snap.Filter)
	return nil
}

// RunPeriodic syncs every interval until ctx is cancelled. Failures are
// logged and retried on the next tick.
func (w *SyncWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	w.logger.InfoContext(ctx, "Starting periodic sync", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := w.Sync(ctx); err != nil && ctx.Err() == nil {
			w.logger.ErrorContext(ctx, "Periodic sync failed", log.FieldError, err)
		}
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Periodic sync stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Exported reports how many snapshots were exported successfully.
func (w *SyncWorker) Exported() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exported
}
