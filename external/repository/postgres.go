package repository

import (
	"context"

	"github.com/foxseedlab/hatsuon/internal/repository"
	"github.com/jackc/pgx/v5/pgconn"
)

// execer is the part of pgxpool.Pool the recorder needs.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type PostgresRecorder struct {
	db execer
}

func NewPostgresRecorder(db execer) repository.RunRecorder {
	return &PostgresRecorder{db: db}
}

func (r *PostgresRecorder) RecordRun(ctx context.Context, rec repository.RunRecord) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO conversion_runs (id, source, input_kind, transcript, phonemes, synthesis_backend,
		   status, failed_stage, failure_kind, error_text, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO NOTHING`,
		rec.ID, rec.Source, rec.InputKind, rec.Transcript, rec.Phonemes, rec.SynthesisBackend,
		string(rec.Status), rec.FailedStage, rec.FailureKind, rec.ErrorText, rec.StartedAt, rec.FinishedAt)
	return err
}

// Shutdown is called by the injector; it closes the pool when the recorder owns one.
func (r *PostgresRecorder) Shutdown() error {
	if c, ok := r.db.(interface{ Close() }); ok {
		c.Close()
	}
	return nil
}
