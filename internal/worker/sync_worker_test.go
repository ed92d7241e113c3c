package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/ledger"
	"ledger/internal/services"
	"ledger/internal/sheets/memory"
	slotmem "ledger/internal/slot/memory"
	"ledger/internal/view"
)

type failingExporter struct{ err error }

func (f failingExporter) Export(context.Context, view.Snapshot) error { return f.err }

func setup(t *testing.T) (writer *services.LedgerService, reader *services.LedgerService) {
	t.Helper()
	ctx := context.Background()
	slot := slotmem.New()

	ws, err := ledger.Open(ctx, slot, ledger.DefaultKey)
	require.NoError(t, err)
	rs, err := ledger.Open(ctx, slot, ledger.DefaultKey)
	require.NoError(t, err)
	return services.NewLedgerService(ws), services.NewLedgerService(rs)
}

func TestHandleEventExportsFreshSnapshot(t *testing.T) {
	writer, reader := setup(t)
	exporter := memory.New(nil)
	w := NewSyncWorker(reader, exporter, "Food", nil)
	ctx := context.Background()

	tx, err := writer.Create(ctx, core.Submission{Kind: "expense", Description: "Lunch", Amount: "12.50", Category: "Food", Date: "2024-01-02"})
	require.NoError(t, err)
	_, err = writer.Create(ctx, core.Submission{Kind: "income", Description: "Salary", Amount: "1000", Category: "Job", Date: "2024-01-01"})
	require.NoError(t, err)

	require.NoError(t, w.HandleEvent(ctx, amqp.NewLedgerEventMessage(amqp.EventCreated, tx.ID, 2)))

	snap, ok := exporter.Last()
	require.True(t, ok)
	assert.Equal(t, "Food", snap.Filter)
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, "Lunch", snap.Rows[0].Description)
	assert.Equal(t, "987.50", snap.Summary.Total)
	assert.Equal(t, 1, w.Exported())
}

func TestHandleEventReportsExportFailure(t *testing.T) {
	_, reader := setup(t)
	boom := errors.New("quota exceeded")
	w := NewSyncWorker(reader, failingExporter{err: boom}, "", nil)

	err := w.HandleEvent(context.Background(), amqp.NewLedgerEventMessage(amqp.EventDeleted, 7, 3))
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, w.Exported())
}

func TestRunPeriodicStopsOnCancel(t *testing.T) {
	_, reader := setup(t)
	exporter := memory.New(nil)
	w := NewSyncWorker(reader, exporter, "", nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.RunPeriodic(ctx, 5*time.Millisecond) }()

	require.Eventually(t, func() bool { return exporter.Exports() >= 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
