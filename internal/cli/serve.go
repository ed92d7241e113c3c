package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ledger/internal/cache"
	apphttp "ledger/internal/http"
	"ledger/internal/log"
)

const (
	shutdownTimeout = 30 * time.Second
	janitorInterval = time.Minute
)

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func (a *app) newServeCommand() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ledger as a JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port == "" {
				port = a.cfg.Port
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return a.serve(ctx, ":"+port)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default $PORT or 8081)")
	return cmd
}

// serve runs the API until ctx is cancelled, then drains in-flight
// requests and releases the ledger.
func (a *app) serve(ctx context.Context, addr string) error {
	rt, err := openLedger(ctx, a.cfg, a.logger, true)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.svc.Close(); err != nil {
			a.logger.Error("Failed to release ledger resources", log.FieldError, err)
		}
	}()

	taxonomy, err := newTaxonomy(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}

	srv := apphttp.NewServer(addr, rt.svc, taxonomy,
		apphttp.WithLogger(a.logger),
		apphttp.WithRateLimit(a.cfg.RateLimitPerMinute))

	janitor := cache.NewJanitor(a.logger)
	if rt.snapshots != nil {
		janitor.Register(rt.snapshots)
	}

	a.logger.InfoContext(ctx, "Starting ledger server",
		log.FieldOperation, log.OpStartup,
		"addr", addr,
		log.FieldBackend, a.cfg.DataBackend,
		"events", a.cfg.AMQPEnabled())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		janitor.Run(gctx, janitorInterval)
		return nil
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Info("Server stopped gracefully")
	return nil
}
