package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ledger/internal/amqp"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/worker"
)

func (a *app) newExportCommand() *cobra.Command {
	var (
		category string
		stdout   bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the current snapshot to Google Sheets, or print it as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			rt, err := openLedger(ctx, a.cfg, a.logger, false)
			if err != nil {
				return err
			}
			defer rt.svc.Close()

			snap := rt.svc.Snapshot(category)
			if stdout || !a.cfg.SheetsEnabled() {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}

			exporter, err := newExporter(ctx, a.cfg, a.logger)
			if err != nil {
				return err
			}
			if err := exporter.Export(ctx, snap); err != nil {
				return fmt.Errorf("export snapshot: %w", err)
			}
			fmt.Fprintf(a.out, "Exported %d transactions to %s\n", len(snap.Rows), a.cfg.GoogleSheetName)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", core.AllCategories, "only export this category")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "print the snapshot as JSON instead of exporting")
	return cmd
}

func (a *app) newSyncWorkerCommand() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "sync-worker",
		Short: "Mirror the ledger to Google Sheets on every change event",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return a.runSyncWorker(ctx, category)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", core.AllCategories, "only export this category")
	return cmd
}

// runSyncWorker exports on every AMQP event and on a timer, so missed
// events are caught up within one SyncInterval.
func (a *app) runSyncWorker(ctx context.Context, category string) error {
	a.logger.InfoContext(ctx, "Starting sync worker", log.FieldOperation, log.OpStartup)

	rt, err := openLedger(ctx, a.cfg, a.logger, false)
	if err != nil {
		return err
	}
	defer rt.svc.Close()

	exporter, err := newExporter(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	sw := worker.NewSyncWorker(rt.svc, exporter, category, a.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sw.RunPeriodic(gctx, a.cfg.SyncInterval)
	})

	if a.cfg.AMQPEnabled() {
		client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue, a.logger)
		if err != nil {
			return fmt.Errorf("connect to AMQP: %w", err)
		}
		defer client.Close()
		g.Go(func() error {
			return client.Consume(gctx, sw.HandleEvent)
		})
	} else {
		a.logger.InfoContext(ctx, "AMQP disabled, relying on periodic sync", "interval", a.cfg.SyncInterval)
	}

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Info("Sync worker stopped", log.FieldCount, sw.Exported())
	return nil
}
