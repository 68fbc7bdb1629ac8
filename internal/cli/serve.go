package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nrivas2017/gcp-datalake-pipeline/internal/db"
	"github.com/nrivas2017/gcp-datalake-pipeline/internal/dispatch"
	"github.com/nrivas2017/gcp-datalake-pipeline/internal/storage"
	"github.com/nrivas2017/gcp-datalake-pipeline/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storage notification server",
	Long: `Starts an HTTP server that accepts object-finalize notifications on
POST /events and imports each recognized CSV file into the database.
Objects outside the ingest prefix are acknowledged and skipped.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	pool, closePool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closePool()

	store, err := storage.NewGCS(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	server := web.NewServer(&dispatch.Dispatcher{
		Pool:         pool,
		Store:        store,
		IngestPrefix: cfg.Storage.IngestPrefix,
	})

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(cfg.Server); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
