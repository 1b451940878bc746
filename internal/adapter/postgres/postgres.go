// Package postgres persists finalized snapshots and consensus results.
// Everything here is append-only; finalized rows are never updated.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	slog.Info("Database SSL mode", "sslmode", extractSSLMode(databaseURL))

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("Database connected", "min_conns", poolCfg.MinConns, "max_conns", poolCfg.MaxConns)
	return pool, nil
}

func extractSSLMode(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "unknown"
	}
	mode := strings.ToLower(u.Query().Get("sslmode"))
	if mode == "" {
		return "prefer (default)"
	}
	return mode
}

const (
	// migrationLockID is a PostgreSQL advisory lock ID for coordinating
	// migrations across nodes. Value: 0x746f6b656e70 ("tokenp" in ASCII hex)
	migrationLockID             = 0x746f6b656e70
	migrationLockReleaseTimeout = 5 * time.Second
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS window_snapshots (
		asset_id       TEXT             NOT NULL,
		window_start   TIMESTAMPTZ      NOT NULL,
		window_end     TIMESTAMPTZ      NOT NULL,
		score          DOUBLE PRECISION NOT NULL,
		label          TEXT             NOT NULL,
		confidence     DOUBLE PRECISION NOT NULL,
		sample_size    INTEGER          NOT NULL,
		bullish_count  INTEGER          NOT NULL,
		neutral_count  INTEGER          NOT NULL,
		bearish_count  INTEGER          NOT NULL,
		avg_engagement DOUBLE PRECISION NOT NULL,
		created_at     TIMESTAMPTZ      NOT NULL DEFAULT now(),
		PRIMARY KEY (asset_id, window_end)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_window_snapshots_asset_end
		ON window_snapshots (asset_id, window_end DESC)`,
	`CREATE TABLE IF NOT EXISTS consensus_results (
		asset_id            TEXT             NOT NULL,
		epoch               BIGINT           NOT NULL,
		score               DOUBLE PRECISION NOT NULL,
		confidence          DOUBLE PRECISION NOT NULL,
		participating_nodes INTEGER          NOT NULL,
		rejected_outliers   INTEGER          NOT NULL,
		quorum_met          BOOLEAN          NOT NULL,
		created_at          TIMESTAMPTZ      NOT NULL DEFAULT now(),
		PRIMARY KEY (asset_id, epoch)
	)`,
}

// RunMigrations applies the schema under an advisory lock so concurrent
// nodes starting together do not race each other.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection for migration: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), migrationLockReleaseTimeout)
		defer cancel()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", migrationLockID); err != nil {
			slog.Error("failed to release migration lock", "error", err)
		}
	}()

	slog.Info("running database migrations")
	for i, stmt := range migrations {
		if _, err := conn.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
