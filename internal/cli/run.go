package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nrivas2017/gcp-datalake-pipeline/internal/db"
	"github.com/nrivas2017/gcp-datalake-pipeline/internal/dispatch"
	"github.com/nrivas2017/gcp-datalake-pipeline/internal/storage"
)

var (
	runBucket string
	runName   string
	runFile   string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Import one file and exit",
	Long: `Imports a single CSV file, either a bucket object (--name, with
--bucket or BUCKET_NAME) or a local file (--file). The entity is
detected from the filename the same way the notification server does
it, but without the ingest prefix restriction.`,
	RunE: runOnce,
}

func init() {
	runCmd.Flags().StringVar(&runBucket, "bucket", "", "bucket holding the object (default: BUCKET_NAME)")
	runCmd.Flags().StringVar(&runName, "name", "", "object name to import")
	runCmd.Flags().StringVar(&runFile, "file", "", "local CSV file to import")
	runCmd.MarkFlagsMutuallyExclusive("name", "file")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	if runName == "" && runFile == "" {
		return fmt.Errorf("one of --name or --file is required")
	}

	ctx := cmd.Context()

	pool, closePool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closePool()

	d := &dispatch.Dispatcher{Pool: pool}

	bucket := runBucket
	name := runName
	if runFile != "" {
		dir, base := filepath.Split(runFile)
		d.Store = storage.Dir{Root: dir}
		name = base
	} else {
		if bucket == "" {
			bucket = cfg.Storage.Bucket
		}
		if bucket == "" {
			return fmt.Errorf("--bucket or BUCKET_NAME is required with --name")
		}
		store, err := storage.NewGCS(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		d.Store = store
	}

	sum, err := d.HandleObject(ctx, bucket, name)
	if err != nil {
		return err
	}

	slog.Info("run finished",
		"rows", sum.Rows,
		"imported", sum.Imported,
		"rejected", sum.Rejected,
	)
	return nil
}
