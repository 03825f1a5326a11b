package transcriber

import (
	"github.com/foxseedlab/hatsuon/internal/config"
	"github.com/foxseedlab/hatsuon/internal/transcriber"
	"github.com/samber/do/v2"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (transcriber.Transcriber, error) {
		c := do.MustInvoke[*config.Config](i)
		if c.Recognizer == config.RecognizerOpenAI {
			return NewWhisperTranscriber(WhisperConfig{
				APIKey:   c.OpenAIAPIKey,
				BaseURL:  c.OpenAIBaseURL,
				Model:    c.OpenAISTTModel,
				Language: c.RecognitionLanguage,
			}), nil
		}
		return NewCloudSpeechTranscriber(CloudSpeechConfig{
			ProjectID:       c.GoogleCloudProjectID,
			CredentialsJSON: c.GoogleCloudCredentialsJSON,
			Language:        c.RecognitionLanguage,
			Location:        c.GoogleCloudSpeechLocation,
			Model:           c.GoogleCloudSpeechModel,
		}), nil
	})
}
