// Package store persists fetched SEC payloads. It runs as a hybrid vault:
// Postgres when a DATABASE_URL is configured, file system otherwise.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Open creates a database connection pool from a connection string. Callers
// own the pool and close it on shutdown.
func Open(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is empty")
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the tables the facts cache and snapshot store need.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	ddls := []string{
		`
		CREATE TABLE IF NOT EXISTS companyfacts_cache (
			cik          TEXT PRIMARY KEY,
			ticker       TEXT NOT NULL,
			payload      JSONB NOT NULL,
			fetched_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)
		`,
		`
		CREATE TABLE IF NOT EXISTS kpi_snapshots (
			id           BIGSERIAL PRIMARY KEY,
			ticker       TEXT NOT NULL,
			doc_id       TEXT NOT NULL,
			kpis         JSONB NOT NULL,
			extracted_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
		`,
		`
		CREATE INDEX IF NOT EXISTS kpi_snapshots_ticker_idx
		ON kpi_snapshots (ticker, extracted_at DESC)
		`,
	}
	for _, ddl := range ddls {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
