package pipeline

import (
	"time"

	"github.com/foxseedlab/hatsuon/internal/audio"
	"github.com/foxseedlab/hatsuon/internal/config"
	"github.com/foxseedlab/hatsuon/internal/metrics"
	"github.com/foxseedlab/hatsuon/internal/phonemizer"
	"github.com/foxseedlab/hatsuon/internal/repository"
	"github.com/foxseedlab/hatsuon/internal/synthesis"
	"github.com/foxseedlab/hatsuon/internal/transcriber"
	"github.com/foxseedlab/hatsuon/internal/webhook"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Orchestrator, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return NewOrchestrator(Dependencies{
			Transcoder:  do.MustInvoke[audio.Transcoder](i),
			Transcriber: do.MustInvoke[transcriber.Transcriber](i),
			Phonemizer:  do.MustInvoke[*phonemizer.Phonemizer](i),
			Synthesizer: do.MustInvoke[*synthesis.Router](i),
			Recorder:    do.MustInvoke[repository.RunRecorder](i),
			Webhook:     do.MustInvoke[webhook.Sender](i),
			Metrics:     do.MustInvoke[*metrics.Metrics](i),
		}, time.Duration(cfg.RunTimeoutSec)*time.Second), nil
	})
}
