package synthesis

import (
	"fmt"

	"github.com/foxseedlab/hatsuon/internal/audio"
	"github.com/foxseedlab/hatsuon/internal/config"
	"github.com/foxseedlab/hatsuon/internal/metrics"
	"github.com/foxseedlab/hatsuon/internal/synthesis"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*synthesis.Router, error) {
		c := do.MustInvoke[*config.Config](i)
		transcoder := do.MustInvoke[audio.Transcoder](i)
		m := do.MustInvoke[*metrics.Metrics](i)

		routes, err := NewRoutes(c)
		if err != nil {
			return nil, err
		}
		return synthesis.NewRouter(routes, transcoder, audio.PlaybackSpec(c.PlaybackSampleRate),
			synthesis.WithAttemptObserver(func(a synthesis.Attempt) {
				m.RecordSynthesisAttempt(a.Backend, string(a.Outcome))
			}),
		), nil
	})
}

// NewRoutes builds the backends named in TTS_BACKENDS, in order.
func NewRoutes(c *config.Config) ([]synthesis.Route, error) {
	routes := make([]synthesis.Route, 0, len(c.TTSBackends))
	for _, b := range c.TTSBackends {
		kind, err := synthesis.ParseInputKind(b.Input)
		if err != nil {
			return nil, err
		}
		backend, err := newBackend(c, b.Name, kind)
		if err != nil {
			return nil, err
		}
		routes = append(routes, synthesis.Route{Backend: backend, Input: kind})
	}
	return routes, nil
}

func newBackend(c *config.Config, name string, kind synthesis.InputKind) (synthesis.Backend, error) {
	switch name {
	case config.TTSBackendGoogle:
		return NewGoogleTTS(GoogleTTSConfig{
			CredentialsJSON: c.GoogleCloudCredentialsJSON,
			Language:        c.RecognitionLanguage,
			Voice:           c.GoogleTTSVoice,
			SampleRate:      c.PlaybackSampleRate,
			Phonemes:        kind == synthesis.InputPhonemes,
		}), nil
	case config.TTSBackendOpenAI:
		return NewOpenAITTS(OpenAITTSConfig{
			APIKey:  c.OpenAIAPIKey,
			BaseURL: c.OpenAIBaseURL,
			Model:   c.OpenAITTSModel,
			Voice:   c.OpenAITTSVoice,
		}), nil
	case config.TTSBackendElevenLabs:
		return NewElevenLabs(ElevenLabsConfig{
			APIKey:  c.ElevenLabsAPIKey,
			VoiceID: c.ElevenLabsVoiceID,
			ModelID: c.ElevenLabsModelID,
		}), nil
	case config.TTSBackendEspeak:
		return NewEspeak(c.EspeakBinary, c.EspeakVoice), nil
	default:
		return nil, fmt.Errorf("unknown synthesis backend %q", name)
	}
}
