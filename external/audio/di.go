package audio

import (
	"github.com/foxseedlab/hatsuon/internal/audio"
	"github.com/foxseedlab/hatsuon/internal/config"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (audio.Transcoder, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewTranscoder(TranscoderConfig{
			FFmpegBinary:  c.FFmpegBinary,
			MaxInputBytes: c.MaxInputBytes,
		}), nil
	})
}
