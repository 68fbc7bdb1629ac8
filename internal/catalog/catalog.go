// Package catalog resolves free-text labels against small reference tables
// (carrier type, driver role, license class, vehicle type, designation,
// brand), creating missing entries lazily.
//
// Each file-processing run owns its own Cache, pre-populated with a bulk
// read of the catalog table. The cache is written only by Resolve and is
// never shared across runs: two concurrent runs introducing the same new
// label both fall through to the insert-or-fetch statement, and the
// storage-level uniqueness constraint keeps them convergent.
package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DB is the subset of pgx operations the resolver needs. Satisfied by
// *pgxpool.Pool, a pooled connection, and pgx.Tx.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Cache maps a normalized label to its surrogate id for one run.
type Cache map[string]int32

// Preload fills the cache with every row of a catalog table.
func Preload(ctx context.Context, db DB, cache Cache, table, labelCol, idCol string) error {
	rows, err := db.Query(ctx, fmt.Sprintf("SELECT %s, %s FROM %s", idCol, labelCol, table))
	if err != nil {
		return fmt.Errorf("preloading %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int32
		var label string
		if err := rows.Scan(&id, &label); err != nil {
			return fmt.Errorf("scanning %s: %w", table, err)
		}
		cache[label] = id
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("preloading %s: %w", table, err)
	}
	return nil
}

// Resolve returns the surrogate id for a label, creating the catalog entry
// when it does not exist yet. A cache hit returns without touching storage.
// On a miss the insert lands on the label's uniqueness constraint, so a
// concurrent creation of the same label by another run resolves to the
// existing row instead of failing. The id is cached before returning.
func Resolve(ctx context.Context, db DB, cache Cache, label, table, labelCol, idCol string) (int32, error) {
	if id, ok := cache[label]; ok {
		return id, nil
	}

	// Insert-or-fetch: the no-op DO UPDATE makes RETURNING yield the
	// surviving row's id whether we created it or lost the race.
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES ($1) ON CONFLICT (%s) DO UPDATE SET %s = EXCLUDED.%s RETURNING %s",
		table, labelCol, labelCol, labelCol, labelCol, idCol,
	)

	var id int32
	if err := db.QueryRow(ctx, query, label).Scan(&id); err != nil {
		return 0, fmt.Errorf("creating %s %q: %w", table, label, err)
	}

	cache[label] = id
	return id, nil
}

// PreloadKeyed fills a cache from an arbitrary two-column query, for lookups
// that are not simple catalogs: the carrier business-partner index
// (carrier_bp -> carrier_id) and the brand|model compound key.
func PreloadKeyed(ctx context.Context, db DB, cache Cache, query string) error {
	rows, err := db.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("preloading keyed cache: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int32
		var key string
		if err := rows.Scan(&id, &key); err != nil {
			return fmt.Errorf("scanning keyed cache: %w", err)
		}
		cache[key] = id
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("preloading keyed cache: %w", err)
	}
	return nil
}
