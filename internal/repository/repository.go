package repository

import "context"

// RunRecorder persists run history. Runs never read it back.
type RunRecorder interface {
	RecordRun(ctx context.Context, record RunRecord) error
}

type NoopRecorder struct{}

func (NoopRecorder) RecordRun(context.Context, RunRecord) error {
	return nil
}
