package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrationStatements = []string{
	`DO $$ BEGIN CREATE TYPE run_status AS ENUM ('done', 'failed', 'partial'); EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`CREATE TABLE IF NOT EXISTS conversion_runs (
		id UUID PRIMARY KEY,
		source TEXT NOT NULL,
		input_kind TEXT NOT NULL,
		transcript TEXT NOT NULL DEFAULT '',
		phonemes TEXT NOT NULL DEFAULT '',
		synthesis_backend TEXT NOT NULL DEFAULT '',
		status run_status NOT NULL,
		failed_stage TEXT NOT NULL DEFAULT '',
		failure_kind TEXT NOT NULL DEFAULT '',
		error_text TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_conversion_runs_started ON conversion_runs (started_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_conversion_runs_failures ON conversion_runs (failure_kind) WHERE status <> 'done'`,
}

func RunMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range migrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
