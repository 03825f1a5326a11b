package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/foxseedlab/hatsuon/internal/audio"
	"github.com/foxseedlab/hatsuon/internal/metrics"
	"github.com/foxseedlab/hatsuon/internal/phonemizer"
	"github.com/foxseedlab/hatsuon/internal/repository"
	"github.com/foxseedlab/hatsuon/internal/synthesis"
	"github.com/foxseedlab/hatsuon/internal/transcriber"
	"github.com/foxseedlab/hatsuon/internal/webhook"
	"github.com/google/uuid"
)

const reportTimeout = 10 * time.Second

type Phonemizer interface {
	Phonemize(ctx context.Context, text string) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, req synthesis.Request) (*synthesis.Result, error)
}

type Dependencies struct {
	Transcoder  audio.Transcoder
	Transcriber transcriber.Transcriber
	Phonemizer  Phonemizer
	Synthesizer Synthesizer
	// Optional; nil values disable the corresponding reporting.
	Recorder repository.RunRecorder
	Webhook  webhook.Sender
	Metrics  *metrics.Metrics
}

type Orchestrator struct {
	deps    Dependencies
	timeout time.Duration
	running atomic.Bool
	now     func() time.Time
	newID   func() string
}

func NewOrchestrator(deps Dependencies, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		deps:    deps,
		timeout: timeout,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// Busy reports whether a run is in flight.
func (o *Orchestrator) Busy() bool {
	return o.running.Load()
}

// Run executes one conversion. It returns ErrInputMissing or ErrRunInProgress
// without starting a run; every started run is returned with a nil error and
// its outcome recorded in Run.State and Run.Failure.
func (o *Orchestrator) Run(ctx context.Context, in Input) (*Run, error) {
	if !in.present() {
		slog.Info("conversion not started: input missing", "source", in.Source)
		return nil, ErrInputMissing
	}
	if !o.running.CompareAndSwap(false, true) {
		slog.Warn("conversion rejected: another run is in flight", "source", in.Source)
		if o.deps.Metrics != nil {
			o.deps.Metrics.RecordRunRejected()
		}
		return nil, ErrRunInProgress
	}
	defer o.running.Store(false)

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	run := &Run{
		ID:        o.newID(),
		Input:     in,
		State:     StageIdle,
		StartedAt: o.now(),
	}
	log := slog.With("run_id", run.ID, "source", in.Source, "input", in.kind())
	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordRunStarted()
	}

	o.execute(ctx, run, log)

	run.FinishedAt = o.now()
	if run.Failure != nil {
		log.Warn("conversion failed",
			"stage", run.Failure.Stage,
			"kind", run.Failure.Kind,
			"error", run.Failure.Err,
			"partial_success", run.PartialSuccess())
	} else {
		log.Info("conversion finished", "duration_ms", run.Duration().Milliseconds())
	}
	o.report(run, log)
	return run, nil
}

func (o *Orchestrator) execute(ctx context.Context, run *Run, log *slog.Logger) {
	o.enter(run, StageCapturing, log)
	text := run.Input.Text

	if run.Input.HasAudio() {
		if run.Input.Text != "" {
			log.Debug("typed text ignored because audio was captured")
		}
		transcript, ok := o.recognize(ctx, run, log)
		if !ok {
			return
		}
		run.Transcript = transcript
		text = transcript
	} else {
		run.Transcript = strings.TrimSpace(text)
	}

	o.enter(run, StagePhonemizing, log)
	if strings.TrimSpace(text) == "" {
		run.fail(StagePhonemizing, KindEmptyInput, phonemizer.ErrEmptyInput)
		return
	}
	phonemes, err := o.timed(StagePhonemizing, func() (string, error) {
		return o.deps.Phonemizer.Phonemize(ctx, text)
	})
	if err != nil {
		if errors.Is(err, phonemizer.ErrEmptyInput) {
			run.fail(StagePhonemizing, KindEmptyInput, err)
		} else {
			run.fail(StagePhonemizing, KindEngineError, err)
		}
		return
	}
	run.Phonemes = phonemes
	log.Info("phonemes produced", "transcript", run.Transcript, "phonemes", phonemes)

	if run.Input.SkipSynthesis || o.deps.Synthesizer == nil {
		o.enter(run, StageDone, log)
		return
	}

	o.enter(run, StageSynthesizing, log)
	start := o.now()
	res, err := o.deps.Synthesizer.Synthesize(ctx, synthesis.Request{
		Transcript: run.Transcript,
		Phonemes:   run.Phonemes,
	})
	o.observeStage(StageSynthesizing, start)
	run.recordAttempts(attemptsOf(res, err))
	if err != nil {
		// Cancellation or a timeout leaves no backend able to serve the run.
		run.fail(StageSynthesizing, KindNoBackendAvailable, err)
		return
	}
	run.Synthesis = res
	o.enter(run, StageDone, log)
}

// recognize runs Transcoding and Recognizing. It returns false after recording
// the failure on run.
func (o *Orchestrator) recognize(ctx context.Context, run *Run, log *slog.Logger) (string, bool) {
	o.enter(run, StageTranscoding, log)
	start := o.now()
	waveform, err := o.deps.Transcoder.Transcode(ctx, *run.Input.Audio, audio.RecognitionSpec)
	o.observeStage(StageTranscoding, start)
	if err != nil {
		run.fail(StageTranscoding, KindDecodeFailure, err)
		return "", false
	}

	o.enter(run, StageRecognizing, log)
	transcript, err := o.timed(StageRecognizing, func() (string, error) {
		return o.deps.Transcriber.Recognize(ctx, waveform)
	})
	switch {
	case errors.Is(err, transcriber.ErrUnintelligible):
		run.fail(StageRecognizing, KindUnintelligible, err)
		return "", false
	case err != nil:
		run.fail(StageRecognizing, KindServiceUnavailable, err)
		return "", false
	case strings.TrimSpace(transcript) == "":
		run.fail(StageRecognizing, KindUnintelligible, transcriber.ErrUnintelligible)
		return "", false
	}
	log.Info("speech recognized", "transcript", transcript)
	return strings.TrimSpace(transcript), true
}

func (o *Orchestrator) enter(run *Run, stage Stage, log *slog.Logger) {
	log.Debug("stage transition", "from", run.State, "to", stage)
	run.State = stage
}

func (o *Orchestrator) timed(stage Stage, fn func() (string, error)) (string, error) {
	start := o.now()
	out, err := fn()
	o.observeStage(stage, start)
	return out, err
}

func (o *Orchestrator) observeStage(stage Stage, start time.Time) {
	if o.deps.Metrics != nil {
		o.deps.Metrics.RecordStage(string(stage), o.now().Sub(start))
	}
}

// report is best effort: failures are logged and never change the run.
func (o *Orchestrator) report(run *Run, log *slog.Logger) {
	if o.deps.Metrics != nil {
		stage, kind := string(run.State), ""
		if run.Failure != nil {
			stage, kind = string(run.Failure.Stage), string(run.Failure.Kind)
		}
		o.deps.Metrics.RecordRunFinished(stage, kind, run.Duration())
	}
	if o.deps.Recorder == nil && o.deps.Webhook == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()
	if o.deps.Recorder != nil {
		if err := o.deps.Recorder.RecordRun(ctx, RecordOf(run)); err != nil {
			log.Error("failed to record run history", "error", err)
		}
	}
	if o.deps.Webhook != nil {
		if err := o.deps.Webhook.SendRun(ctx, PayloadOf(run)); err != nil {
			log.Error("failed to send run webhook", "error", err)
		}
	}
}

func status(run *Run) repository.RunStatus {
	switch {
	case run.Succeeded():
		return repository.RunStatusDone
	case run.PartialSuccess():
		return repository.RunStatusPartial
	default:
		return repository.RunStatusFailed
	}
}

func RecordOf(run *Run) repository.RunRecord {
	rec := repository.RunRecord{
		ID:         run.ID,
		Source:     run.Input.Source,
		InputKind:  run.Input.kind(),
		Transcript: run.Transcript,
		Phonemes:   run.Phonemes,
		Status:     status(run),
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
	if run.Synthesis != nil {
		rec.SynthesisBackend = run.Synthesis.Backend
	}
	if run.Failure != nil {
		rec.FailedStage = string(run.Failure.Stage)
		rec.FailureKind = string(run.Failure.Kind)
		if run.Failure.Err != nil {
			rec.ErrorText = run.Failure.Err.Error()
		}
	}
	return rec
}

func PayloadOf(run *Run) webhook.RunWebhookPayload {
	rec := RecordOf(run)
	return webhook.RunWebhookPayload{
		RunID:            rec.ID,
		Source:           rec.Source,
		Status:           string(rec.Status),
		Transcript:       rec.Transcript,
		Phonemes:         rec.Phonemes,
		SynthesisBackend: rec.SynthesisBackend,
		FailedStage:      rec.FailedStage,
		FailureKind:      rec.FailureKind,
		StartedAt:        rec.StartedAt,
		FinishedAt:       rec.FinishedAt,
		DurationMillis:   run.Duration().Milliseconds(),
	}
}

func attemptsOf(res *synthesis.Result, err error) []synthesis.Attempt {
	if res != nil {
		return res.Attempts
	}
	var re *synthesis.RouterError
	if errors.As(err, &re) {
		return re.Attempts
	}
	return nil
}

func (f *Failure) String() string {
	return fmt.Sprintf("%s(%s, %s)", StageFailed, f.Stage, f.Kind)
}
