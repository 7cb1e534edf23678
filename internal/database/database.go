package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx connection pool using the provided DSN.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MaxConnIdleTime = 5 * time.Minute
	return pgxpool.NewWithConfig(ctx, cfg)
}

// EnsureSchema creates the verifications table if needed. Records are
// append-only, so the surrogate id is the primary key and the verification id
// is only a lookup index. The registration-number index is partial: records
// without a number are simply absent from it.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const stmt = `
CREATE TABLE IF NOT EXISTS verifications (
	id BIGSERIAL PRIMARY KEY,
	verification_id TEXT NOT NULL,
	ts TEXT NOT NULL,
	image_key TEXT NOT NULL,
	registration_number TEXT,
	validation_result JSONB NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_verifications_verification_id ON verifications(verification_id, ts);
CREATE INDEX IF NOT EXISTS idx_verifications_registration_number
	ON verifications(registration_number, ts)
	WHERE registration_number IS NOT NULL;`
	_, err := pool.Exec(ctx, stmt)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
