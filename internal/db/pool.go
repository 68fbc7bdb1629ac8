// Package db builds the pgx connection pool the loader runs against,
// either from a plain connection string or through the Cloud SQL Go
// Connector when an instance connection name is configured.
package db

import (
	"context"
	"fmt"
	"net"

	"cloud.google.com/go/cloudsqlconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nrivas2017/gcp-datalake-pipeline/internal/config"
)

// Connect builds, pings and returns the pool. The returned close func
// tears down the pool and, when the Cloud SQL path was used, the dialer.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, func(), error) {
	var (
		poolCfg *pgxpool.Config
		dialer  *cloudsqlconn.Dialer
		err     error
	)

	if cfg.InstanceConnectionName != "" {
		poolCfg, dialer, err = cloudSQLConfig(ctx, cfg)
	} else {
		poolCfg, err = pgxpool.ParseConfig(cfg.URL)
		if err != nil {
			err = fmt.Errorf("parsing database URL: %w", err)
		}
	}
	if err != nil {
		return nil, nil, err
	}

	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		closeDialer(dialer)
		return nil, nil, fmt.Errorf("creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		closeDialer(dialer)
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	cleanup := func() {
		pool.Close()
		closeDialer(dialer)
	}
	return pool, cleanup, nil
}

// cloudSQLConfig routes connections through the Cloud SQL dialer, matching
// how the function runs inside GCP without exposing a database host.
func cloudSQLConfig(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Config, *cloudsqlconn.Dialer, error) {
	dialer, err := cloudsqlconn.NewDialer(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("creating Cloud SQL dialer: %w", err)
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.InstanceConnectionName, cfg.User, cfg.Password, cfg.Name)
	if cfg.Schema != "" {
		dsn += fmt.Sprintf(" options=-c search_path=%s", cfg.Schema)
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		dialer.Close()
		return nil, nil, fmt.Errorf("parsing Cloud SQL config: %w", err)
	}

	instance := cfg.InstanceConnectionName
	poolCfg.ConnConfig.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialer.Dial(ctx, instance)
	}

	return poolCfg, dialer, nil
}

func closeDialer(d *cloudsqlconn.Dialer) {
	if d != nil {
		d.Close()
	}
}
