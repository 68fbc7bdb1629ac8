// Package cli defines the etl command tree.
package cli

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nrivas2017/gcp-datalake-pipeline/internal/config"
	"github.com/nrivas2017/gcp-datalake-pipeline/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "etl",
	Short: "Document data loader for the transport datalake",
	Long: `etl ingests the flat CSV exports of the document pipeline (carriers,
drivers, vehicles) into the normalized PostgreSQL schema.

Each row is imported in its own transaction: a rejected row never takes
its neighbors down with it. Catalog values (carrier types, license
classes, vehicle brands and models, ...) are resolved to their
surrogate keys on the fly, creating missing entries as needed.

Run modes:
  etl serve   - HTTP server receiving storage object notifications
  etl run     - one-shot import of a bucket object or local file`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setup loads .env, configuration and the global logger. Every
// subcommand starts here.
func setup() (*config.Config, error) {
	// Overload overwrites already-exported variables with .env values
	if err := godotenv.Overload(); err == nil {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())
	return cfg, nil
}
