package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"ledger/internal/config"
	"ledger/internal/log"
)

// app carries state shared by every subcommand once the root pre-run has
// loaded configuration.
type app struct {
	out    io.Writer
	errOut io.Writer
	cfg    *config.Config
	logger *log.Logger

	envFile    string
	backend    string
	key        string
	dataDir    string
	sqlitePath string
	redisURL   string
	logLevel   string
}

// NewRootCommand builds the ledger command tree writing results to out and
// logs to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "ledger",
		Short:         "Record income and expenses and see where the money goes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.envFile, "env-file", ".env", "environment file to load")
	pf.StringVarP(&a.backend, "backend", "b", "", "durable slot backend (memory, file, sqlite, redis)")
	pf.StringVarP(&a.key, "key", "k", "", "slot key holding the collection")
	pf.StringVar(&a.dataDir, "data-dir", "", "directory for the file and memory backends")
	pf.StringVar(&a.sqlitePath, "sqlite-path", "", "database path for the sqlite backend")
	pf.StringVar(&a.redisURL, "redis-url", "", "connection URL for the redis backend")
	pf.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		a.newAddCommand(),
		a.newRemoveCommand(),
		a.newListCommand(),
		a.newSummaryCommand(),
		a.newChartCommand(),
		a.newServeCommand(),
		a.newExportCommand(),
		a.newSyncWorkerCommand(),
		a.newSheetsAuthCommand(),
	)
	return root
}

// load reads the environment, applies flag overrides and validates the
// result before any subcommand runs.
func (a *app) load(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if err := LoadEnvFile(a.envFile, flags.Changed("env-file")); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}

	cfg := config.Load()
	override := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	override("backend", &cfg.DataBackend, a.backend)
	override("key", &cfg.SlotKey, a.key)
	override("data-dir", &cfg.DataFileDir, a.dataDir)
	override("sqlite-path", &cfg.SQLiteDBPath, a.sqlitePath)
	override("redis-url", &cfg.RedisURL, a.redisURL)
	override("log-level", &cfg.LogLevel, a.logLevel)

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := SetupLogger(cfg.LogLevel, a.errOut)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// Execute runs the command tree with args and returns the exit code.
func Execute(args []string) int {
	root := NewRootCommand(os.Stdout, os.Stderr)
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
