// Command isdnews triggers collect and enrich runs by hand and manages the
// source registry and the configuration store.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"isdnews/internal/app"
	"isdnews/internal/infra/db"
	"isdnews/internal/infra/worker"
	"isdnews/internal/observability/logging"
	"isdnews/internal/pkg/secret"
)

var version = "dev"

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// env is what the subcommands share once the root pre-run has opened the
// database.
type env struct {
	cfg     *worker.WorkerConfig
	db      *sql.DB
	dialect db.Dialect
	app     *app.App
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:           "isdnews",
		Short:         "Collect and enrich team news",
		Long:          "isdnews collects articles from registered sources, enriches them with AI summaries and announces them per team.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			return e.open(cmd.Context())
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newCollectCmd(e),
		newEnrichCmd(e),
		newMigrateCmd(e),
		newImportSourcesCmd(e),
		newConfigCmd(e),
	)
	return root
}

func (e *env) open(ctx context.Context) error {
	// CLI の実行ではメトリクスを公開しない
	cfg, err := worker.LoadConfigFromEnv(slog.Default(), worker.NewWorkerMetricsWith(prometheus.NewRegistry()))
	if err != nil {
		return err
	}
	e.cfg = cfg

	database, dialect, err := db.Open(ctx)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	e.db, e.dialect = database, dialect

	if err := db.MigrateUp(database, dialect); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	a, err := app.New(database, dialect, cfg)
	if err != nil {
		return err
	}
	e.app = a
	return nil
}

func (e *env) close() error {
	if e.app != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := e.app.Notify.Shutdown(ctx); err != nil {
			slog.Warn("notification shutdown incomplete", slog.Any("error", err))
		}
		if err := e.app.Close(); err != nil {
			slog.Warn("failed to close renderer", slog.Any("error", err))
		}
	}
	if e.db != nil {
		return e.db.Close()
	}
	return nil
}

// execute runs the root command with args, releases what the pre-run
// opened and reports errors with secrets masked.
func execute(ctx context.Context, args []string, out, errOut io.Writer) error {
	e := &env{}
	defer func() {
		if err := e.close(); err != nil {
			slog.Warn("failed to close database", slog.Any("error", err))
		}
	}()

	cmd := newRootCmd(e)
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", secret.MaskError(err))
		return err
	}
	return nil
}
