package synthesis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/foxseedlab/hatsuon/internal/audio"
)

var (
	ErrNoBackendAvailable = errors.New("no speech synthesis backend available")
	// ErrEngine wraps any failure of an available backend.
	ErrEngine = errors.New("speech synthesis engine error")
)

// InputKind names which representation of the sentence a backend speaks.
type InputKind string

const (
	InputTranscript InputKind = "transcript"
	InputPhonemes   InputKind = "phonemes"
)

func ParseInputKind(s string) (InputKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "transcript", "text":
		return InputTranscript, nil
	case "phonemes", "ipa":
		return InputPhonemes, nil
	default:
		return "", fmt.Errorf("unknown synthesis input kind %q", s)
	}
}

type Backend interface {
	Name() string
	// Available must be cheap and must not synthesize anything.
	Available(ctx context.Context) bool
	Synthesize(ctx context.Context, text string) (audio.Blob, error)
}

// Request carries both representations; each backend picks one by its InputKind.
type Request struct {
	Transcript string
	Phonemes   string
}

func (r Request) textFor(kind InputKind) string {
	if kind == InputPhonemes {
		return strings.TrimSpace(r.Phonemes)
	}
	return strings.TrimSpace(r.Transcript)
}

type AttemptOutcome string

const (
	AttemptSkipped   AttemptOutcome = "skipped"
	AttemptFailed    AttemptOutcome = "failed"
	AttemptSucceeded AttemptOutcome = "succeeded"
)

type Attempt struct {
	Backend string
	Input   InputKind
	Outcome AttemptOutcome
	Err     error
}

type Result struct {
	Audio    audio.Blob
	Backend  string
	Input    InputKind
	Attempts []Attempt
}

// RouterError is returned when every backend was skipped or failed.
type RouterError struct {
	Attempts []Attempt
}

func (e *RouterError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		if a.Err != nil {
			parts = append(parts, fmt.Sprintf("%s %s: %v", a.Backend, a.Outcome, a.Err))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s %s", a.Backend, a.Outcome))
	}
	if len(parts) == 0 {
		return ErrNoBackendAvailable.Error() + ": none configured"
	}
	return ErrNoBackendAvailable.Error() + ": " + strings.Join(parts, "; ")
}

func (e *RouterError) Unwrap() error {
	return ErrNoBackendAvailable
}
