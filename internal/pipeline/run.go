package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/foxseedlab/hatsuon/internal/audio"
	"github.com/foxseedlab/hatsuon/internal/synthesis"
)

var (
	ErrInputMissing  = errors.New("neither audio nor text was provided")
	ErrRunInProgress = errors.New("a conversion is already in progress")
)

type Stage string

const (
	StageIdle         Stage = "idle"
	StageCapturing    Stage = "capturing"
	StageTranscoding  Stage = "transcoding"
	StageRecognizing  Stage = "recognizing"
	StagePhonemizing  Stage = "phonemizing"
	StageSynthesizing Stage = "synthesizing"
	StageDone         Stage = "done"
	StageFailed       Stage = "failed"
)

type FailureKind string

const (
	KindInputMissing       FailureKind = "input_missing"
	KindDecodeFailure      FailureKind = "decode_failure"
	KindUnintelligible     FailureKind = "unintelligible"
	KindServiceUnavailable FailureKind = "service_unavailable"
	KindEmptyInput         FailureKind = "empty_input"
	KindEngineError        FailureKind = "engine_error"
	KindNoBackendAvailable FailureKind = "no_backend_available"
)

// Input is either captured audio or typed text. When both are set the audio
// wins and the text is ignored.
type Input struct {
	Audio         *audio.Blob
	Text          string
	SkipSynthesis bool
	// Source names the surface that captured the input (cli, discord).
	Source string
}

func AudioInput(b audio.Blob) Input {
	return Input{Audio: &b}
}

func TextInput(s string) Input {
	return Input{Text: s}
}

func (in Input) HasAudio() bool {
	return in.Audio != nil && !in.Audio.Empty()
}

func (in Input) present() bool {
	return in.HasAudio() || in.Text != ""
}

func (in Input) kind() string {
	if in.HasAudio() {
		return "audio"
	}
	return "text"
}

type Failure struct {
	Stage Stage
	Kind  FailureKind
	Err   error
}

type StageError struct {
	Stage Stage
	Err   error
}

// Run is the record of one invocation. It is created per call and never shared
// between calls.
type Run struct {
	ID         string
	Input      Input
	Transcript string
	Phonemes   string
	Synthesis  *synthesis.Result
	State      Stage
	Failure    *Failure
	Errors     []StageError
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r *Run) Succeeded() bool {
	return r.State == StageDone
}

// PartialSuccess reports a run that produced a transcript and IPA but no audio
// because no synthesis backend could serve it.
func (r *Run) PartialSuccess() bool {
	return r.Failure != nil &&
		r.Failure.Kind == KindNoBackendAvailable &&
		strings.TrimSpace(r.Phonemes) != ""
}

func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// recordAttempts keeps the error of every failed synthesis backend, including
// those that were followed by a successful one.
func (r *Run) recordAttempts(attempts []synthesis.Attempt) {
	for _, a := range attempts {
		if a.Outcome != synthesis.AttemptFailed || a.Err == nil {
			continue
		}
		r.Errors = append(r.Errors, StageError{
			Stage: StageSynthesizing,
			Err:   fmt.Errorf("%s: %w", a.Backend, a.Err),
		})
	}
}

func (r *Run) fail(stage Stage, kind FailureKind, err error) {
	r.State = StageFailed
	r.Failure = &Failure{Stage: stage, Kind: kind, Err: err}
	r.Errors = append(r.Errors, StageError{Stage: stage, Err: err})
}
