package webhook

import (
	"context"
	"time"
)

type RunWebhookPayload struct {
	RunID            string    `json:"run_id"`
	Source           string    `json:"source"`
	Status           string    `json:"status"`
	Transcript       string    `json:"transcript,omitempty"`
	Phonemes         string    `json:"phonemes,omitempty"`
	SynthesisBackend string    `json:"synthesis_backend,omitempty"`
	FailedStage      string    `json:"failed_stage,omitempty"`
	FailureKind      string    `json:"failure_kind,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	DurationMillis   int64     `json:"duration_ms"`
}

type Sender interface {
	SendRun(ctx context.Context, payload RunWebhookPayload) error
}
