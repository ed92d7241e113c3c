// Package cli wires configuration, storage and transports into the ledger
// command tree shared by every entry point.
package cli

import (
	"context"
	"errors"
	"io"
	"io/fs"

	"github.com/joho/godotenv"

	"ledger/internal/amqp"
	"ledger/internal/backend"
	"ledger/internal/cache"
	"ledger/internal/config"
	"ledger/internal/ledger"
	"ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/sheets"
	gsheet "ledger/internal/sheets/google"
	mem "ledger/internal/sheets/memory"
	"ledger/internal/view"
)

const snapshotCacheSize = 128

// SetupLogger builds the process logger at level and makes it the default.
func SetupLogger(level string, out io.Writer) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := log.New(log.Config{Level: lvl, Component: log.ComponentCLI, Output: out})
	log.SetDefault(logger)
	return logger, nil
}

// LoadEnvFile loads path into the environment. A missing default .env is
// not an error; a missing explicitly requested file is.
func LoadEnvFile(path string, explicit bool) error {
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// runtime is an opened ledger with the resources it owns.
type runtime struct {
	svc       *services.LedgerService
	snapshots *cache.LRU[view.Snapshot]
}

// openLedger creates the configured slot backend, hydrates the store and
// attaches the optional snapshot cache and event publisher. The caller
// must Close the returned service.
func openLedger(ctx context.Context, cfg *config.Config, logger *log.Logger, publish bool) (*runtime, error) {
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backend.ConfigFromAppConfig(cfg))
	if err != nil {
		return nil, err
	}

	store, err := ledger.Open(ctx, res.Slot, cfg.SlotKey, ledger.WithLogger(logger))
	if err != nil {
		_ = res.Cleanup.Close()
		return nil, err
	}

	rt := &runtime{}
	opts := []services.Option{
		services.WithLogger(logger),
		services.WithCloser(res.Cleanup),
	}
	if cfg.CacheTTL > 0 {
		rt.snapshots = cache.NewLRU[view.Snapshot](snapshotCacheSize, cfg.CacheTTL)
		opts = append(opts, services.WithSnapshotCache(rt.snapshots))
	}

	if publish && cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			// Events are best-effort; the ledger works without a broker.
			logger.WarnContext(ctx, "AMQP unavailable, change events disabled", log.FieldError, err)
		} else {
			opts = append(opts, services.WithPublisher(client), services.WithCloser(client))
		}
	}

	rt.svc = services.NewLedgerService(store, opts...)
	logger.DebugContext(ctx, "Ledger opened",
		log.FieldBackend, res.Type,
		log.FieldSlotKey, store.Key(),
		log.FieldCount, store.Len())
	return rt, nil
}

func sheetsConfig(cfg *config.Config) gsheet.Config {
	return gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CategoriesSheet: cfg.GoogleCategoriesSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
		OAuth:           oauthConfig(cfg),
	}
}

func oauthConfig(cfg *config.Config) gsheet.OAuthConfig {
	return gsheet.OAuthConfig{
		ClientJSON: cfg.GoogleOAuthClientJSON,
		ClientFile: cfg.GoogleOAuthClientFile,
		TokenJSON:  cfg.GoogleOAuthTokenJSON,
		TokenFile:  cfg.GoogleOAuthTokenFile,
	}
}

// newTaxonomy reads categories from the spreadsheet when one is configured
// with a categories sheet, otherwise from LEDGER_CATEGORIES.
func newTaxonomy(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.TaxonomyReader, error) {
	if cfg.SheetsEnabled() && cfg.GoogleCategoriesSheetName != "" {
		return gsheet.New(ctx, sheetsConfig(cfg), logger)
	}
	if len(cfg.Categories) == 0 {
		return mem.New(mem.DefaultCategories), nil
	}
	return mem.New(cfg.Categories), nil
}

// newExporter returns the spreadsheet exporter, or an in-memory one when
// no spreadsheet is configured.
func newExporter(ctx context.Context, cfg *config.Config, logger *log.Logger) (sheets.SnapshotExporter, error) {
	if !cfg.SheetsEnabled() {
		logger.WarnContext(ctx, "Google Sheets disabled, exports are kept in memory")
		return mem.New(nil), nil
	}
	client, err := gsheet.New(ctx, sheetsConfig(cfg), logger)
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}
