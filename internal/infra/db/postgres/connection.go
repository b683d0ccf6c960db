package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

// NewPgxPool opens a pgx pool against dsn with a bounded connection count.
func NewPgxPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the two tables if they do not exist. The storage
// layout is intentionally minimal: every operation is single-row, so no
// foreign keys or multi-row transactions are needed.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS catalog_items (
    key             TEXT PRIMARY KEY,
    title           TEXT NOT NULL,
    file_id         TEXT NOT NULL,
    channel_msg_id  BIGINT NOT NULL DEFAULT 0,
    retention_hours INT NOT NULL,
    added_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS deliveries (
    id           TEXT PRIMARY KEY,
    chat_id      BIGINT NOT NULL,
    message_id   INT NOT NULL,
    source_key   TEXT NOT NULL,
    delivered_at TIMESTAMPTZ NOT NULL,
    expire_at    TIMESTAMPTZ NOT NULL
);
`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
