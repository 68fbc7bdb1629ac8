// Package dispatch routes an incoming storage object to the entity
// importer its filename identifies, and owns the lifecycle of one file
// run: open the stream, check out a connection, preload catalog caches,
// feed rows to the orchestrator, and log the outcome.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nrivas2017/gcp-datalake-pipeline/internal/csv"
	"github.com/nrivas2017/gcp-datalake-pipeline/internal/importer"
	"github.com/nrivas2017/gcp-datalake-pipeline/internal/storage"
)

// Kind identifies which entity a file carries.
type Kind string

const (
	KindCarrier Kind = "carrier"
	KindDriver  Kind = "driver"
	KindVehicle Kind = "vehicle"
	KindUnknown Kind = ""
)

// Match classifies a file by name: files must end in .csv and carry one of
// the entity markers the upstream document pipeline puts in filenames.
func Match(name string) Kind {
	lower := strings.ToLower(name)
	if !strings.HasSuffix(lower, ".csv") {
		return KindUnknown
	}

	switch {
	case strings.Contains(lower, "empresa"):
		return KindCarrier
	case strings.Contains(lower, "conductor"):
		return KindDriver
	case strings.Contains(lower, "vehiculo"):
		return KindVehicle
	default:
		return KindUnknown
	}
}

// Dispatcher wires the object store and the database pool to the importers.
type Dispatcher struct {
	Pool  *pgxpool.Pool
	Store storage.ObjectStore

	// IngestPrefix restricts event-driven processing to objects under one
	// bucket prefix; empty disables the check (one-shot CLI runs).
	IngestPrefix string
}

// HandleObject processes one storage object end to end. Files outside the
// ingest prefix or without a recognized entity marker are skipped, not
// failed. The returned summary is zero-valued for skipped files.
func (d *Dispatcher) HandleObject(ctx context.Context, bucket, name string) (importer.Summary, error) {
	log := slog.With("bucket", bucket, "object", name, "run_id", uuid.NewString())

	if d.IngestPrefix != "" && !strings.HasPrefix(name, d.IngestPrefix) {
		log.Info("object outside ingest prefix, skipping")
		return importer.Summary{}, nil
	}

	kind := Match(name)
	if kind == KindUnknown {
		log.Info("object not recognized as an ingest file, skipping")
		return importer.Summary{}, nil
	}

	var proc importer.RowProcessor
	switch kind {
	case KindCarrier:
		proc = importer.NewCarrier()
	case KindDriver:
		proc = importer.NewDriver()
	case KindVehicle:
		proc = importer.NewVehicle()
	}

	log = log.With("entity", proc.Entity())
	log.Info("file run started")

	rc, err := d.Store.Open(ctx, bucket, name)
	if err != nil {
		return importer.Summary{}, fmt.Errorf("opening object: %w", err)
	}
	defer rc.Close()

	// One connection per run: catalog preloads and every row transaction
	// share it, and it goes back to the pool on every exit path.
	conn, err := d.Pool.Acquire(ctx)
	if err != nil {
		return importer.Summary{}, fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	if err := proc.Preload(ctx, conn); err != nil {
		return importer.Summary{}, fmt.Errorf("preloading catalogs: %w", err)
	}

	sum, err := importer.Run(ctx, conn, csv.NewReader(rc), proc)
	if err != nil {
		log.Error("file run aborted",
			"rows", sum.Rows,
			"imported", sum.Imported,
			"rejected", sum.Rejected,
			"error", err,
		)
		return sum, err
	}

	log.Info("file run completed",
		"rows", sum.Rows,
		"imported", sum.Imported,
		"rejected", sum.Rejected,
	)
	return sum, nil
}
