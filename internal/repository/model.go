package repository

import "time"

type RunStatus string

const (
	RunStatusDone    RunStatus = "done"
	RunStatusFailed  RunStatus = "failed"
	RunStatusPartial RunStatus = "partial"
)

// RunRecord is the audit row written once per finished pipeline run.
type RunRecord struct {
	ID               string
	Source           string
	InputKind        string
	Transcript       string
	Phonemes         string
	SynthesisBackend string
	Status           RunStatus
	FailedStage      string
	FailureKind      string
	ErrorText        string
	StartedAt        time.Time
	FinishedAt       time.Time
}
