// Package importer loads decoded ingest rows into the relational schema.
//
// Each row runs inside its own transaction: the entity upsert and every
// nested child insert either all commit or all roll back, and a failed row
// never stops the rest of the file. The three entity importers (carrier,
// driver, vehicle) share the per-row orchestration in Run and the catalog
// caches they preload at the start of a file run.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/nrivas2017/gcp-datalake-pipeline/internal/csv"
)

// DBTX is the interface for database operations.
// Satisfied by *pgxpool.Pool, *pgxpool.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxBeginner opens transactions. Satisfied by *pgxpool.Conn and *pgxpool.Pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// RowSource yields decoded records until io.EOF. *csv.Reader satisfies it.
type RowSource interface {
	Next() (csv.Record, error)
}

// RowProcessor is one entity importer. Preload fills its catalog caches
// from storage once per file run; ProcessRow upserts a single record and
// its children inside the supplied transaction; Key extracts the record's
// natural key for rejection reporting.
type RowProcessor interface {
	Entity() string
	Preload(ctx context.Context, db DBTX) error
	Key(rec csv.Record) string
	ProcessRow(ctx context.Context, tx DBTX, rec csv.Record) error
}

// Rejection identifies one rejected row.
type Rejection struct {
	Row int    // 1-based data row ordinal within the file
	Key string // the row's natural-key value, possibly unvalidated
	Err error
}

// Summary is the outcome of one file run.
type Summary struct {
	Rows       int
	Imported   int
	Rejected   int
	Rejections []Rejection
}

// Run feeds rows from src to proc sequentially, one transaction per row.
//
// Row-level errors (structural, referential, constraint) roll back that
// row's transaction, are appended to the summary, and processing continues.
// A source failure is fatal: the remaining rows are abandoned and the
// partial summary is returned alongside the error; rows already committed
// stay committed. Rows must be strictly sequential because the catalog
// caches mutated during processing have to observe their own writes.
func Run(ctx context.Context, db TxBeginner, src RowSource, proc RowProcessor) (Summary, error) {
	var sum Summary

	for {
		rec, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return sum, fmt.Errorf("%w: %v", ErrStream, err)
		}
		sum.Rows++

		tx, err := db.Begin(ctx)
		if err != nil {
			return sum, fmt.Errorf("beginning transaction for row %d: %w", sum.Rows, err)
		}

		if err := proc.ProcessRow(ctx, tx, rec); err != nil {
			tx.Rollback(ctx)
			sum.reject(sum.Rows, proc.Key(rec), err)
			slog.Warn("row rejected",
				"entity", proc.Entity(),
				"row", sum.Rows,
				"key", proc.Key(rec),
				"error", err,
			)
			continue
		}

		if err := tx.Commit(ctx); err != nil {
			sum.reject(sum.Rows, proc.Key(rec), fmt.Errorf("%w: commit: %v", ErrConstraint, err))
			slog.Warn("row commit failed",
				"entity", proc.Entity(),
				"row", sum.Rows,
				"key", proc.Key(rec),
				"error", err,
			)
			continue
		}

		sum.Imported++
	}

	return sum, nil
}

func (s *Summary) reject(row int, key string, err error) {
	s.Rejected++
	s.Rejections = append(s.Rejections, Rejection{Row: row, Key: key, Err: err})
}

// Kind classifies a row-level error for reporting.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrStructural):
		return "structural"
	case errors.Is(err, ErrReferential):
		return "referential"
	case errors.Is(err, ErrStream):
		return "stream"
	default:
		return "constraint"
	}
}
