package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/hatsuon/internal/config"
	"github.com/joho/godotenv"
)

type envConfig struct {
	Env                        string `env:"ENV" envDefault:"production"`
	Recognizer                 string `env:"RECOGNIZER" envDefault:"google"`
	RecognitionLanguage        string `env:"RECOGNITION_LANGUAGE" envDefault:"en-GB"`
	GoogleCloudProjectID       string `env:"GOOGLE_CLOUD_PROJECT_ID"`
	GoogleCloudCredentialsJSON string `env:"GOOGLE_CLOUD_CREDENTIALS_JSON"`
	GoogleCloudSpeechLocation  string `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"global"`
	GoogleCloudSpeechModel     string `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"short"`
	PhonemizerEngine           string `env:"PHONEMIZER_ENGINE" envDefault:"espeak"`
	PhonemizerLanguage         string `env:"PHONEMIZER_LANGUAGE" envDefault:"en-gb"`
	PhonemizerPunctuation      string `env:"PHONEMIZER_PUNCTUATION" envDefault:";:,.!?¡¿—…“”"`
	TTSBackends                string `env:"TTS_BACKENDS" envDefault:"google:phonemes,openai,elevenlabs,espeak"`
	GoogleTTSVoice             string `env:"GOOGLE_TTS_VOICE" envDefault:"en-GB-Neural2-B"`
	OpenAIAPIKey               string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL              string `env:"OPENAI_BASE_URL"`
	OpenAISTTModel             string `env:"OPENAI_STT_MODEL" envDefault:"whisper-1"`
	OpenAITTSModel             string `env:"OPENAI_TTS_MODEL" envDefault:"tts-1"`
	OpenAITTSVoice             string `env:"OPENAI_TTS_VOICE" envDefault:"fable"`
	ElevenLabsAPIKey           string `env:"ELEVENLABS_API_KEY"`
	ElevenLabsVoiceID          string `env:"ELEVENLABS_VOICE_ID"`
	ElevenLabsModelID          string `env:"ELEVENLABS_MODEL_ID" envDefault:"eleven_multilingual_v2"`
	EspeakBinary               string `env:"ESPEAK_BINARY" envDefault:"espeak-ng"`
	EspeakVoice                string `env:"ESPEAK_VOICE" envDefault:"en-gb"`
	FFmpegBinary               string `env:"FFMPEG_BINARY" envDefault:"ffmpeg"`
	PlaybackSampleRate         int    `env:"PLAYBACK_SAMPLE_RATE" envDefault:"24000"`
	MaxInputBytes              int    `env:"MAX_INPUT_BYTES" envDefault:"26214400"`
	RunTimeoutSec              int    `env:"RUN_TIMEOUT_SEC" envDefault:"120"`
	CommandRatePerMin          int    `env:"COMMAND_RATE_PER_MIN" envDefault:"12"`
	DatabaseURL                string `env:"DATABASE_URL"`
	ResultWebhookURL           string `env:"RESULT_WEBHOOK_URL"`
	DiscordToken               string `env:"DISCORD_TOKEN"`
	DiscordGuildID             string `env:"DISCORD_GUILD_ID"`
	MetricsAddr                string `env:"METRICS_ADDR" envDefault:":9090"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func Load(dotenvFiles ...string) (*internalconfig.Config, error) {
	if err := loadDotenv(dotenvFiles); err != nil {
		return nil, err
	}

	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}
	backends, err := internalconfig.ParseTTSBackends(raw.TTSBackends)
	if err != nil {
		return nil, err
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		Recognizer:                 raw.Recognizer,
		RecognitionLanguage:        raw.RecognitionLanguage,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		PhonemizerEngine:           raw.PhonemizerEngine,
		PhonemizerLanguage:         raw.PhonemizerLanguage,
		PhonemizerPunctuation:      raw.PhonemizerPunctuation,
		TTSBackends:                backends,
		GoogleTTSVoice:             raw.GoogleTTSVoice,
		OpenAIAPIKey:               raw.OpenAIAPIKey,
		OpenAIBaseURL:              raw.OpenAIBaseURL,
		OpenAISTTModel:             raw.OpenAISTTModel,
		OpenAITTSModel:             raw.OpenAITTSModel,
		OpenAITTSVoice:             raw.OpenAITTSVoice,
		ElevenLabsAPIKey:           raw.ElevenLabsAPIKey,
		ElevenLabsVoiceID:          raw.ElevenLabsVoiceID,
		ElevenLabsModelID:          raw.ElevenLabsModelID,
		EspeakBinary:               raw.EspeakBinary,
		EspeakVoice:                raw.EspeakVoice,
		FFmpegBinary:               raw.FFmpegBinary,
		PlaybackSampleRate:         raw.PlaybackSampleRate,
		MaxInputBytes:              raw.MaxInputBytes,
		RunTimeoutSec:              raw.RunTimeoutSec,
		CommandRatePerMin:          raw.CommandRatePerMin,
		DatabaseURL:                raw.DatabaseURL,
		ResultWebhookURL:           raw.ResultWebhookURL,
		DiscordToken:               raw.DiscordToken,
		DiscordGuildID:             raw.DiscordGuildID,
		MetricsAddr:                raw.MetricsAddr,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotenv(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		err := godotenv.Load(f)
		if err == nil {
			slog.Debug("loaded dotenv file", "path", f)
			continue
		}
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return fmt.Errorf("failed to load %s: %w", f, err)
	}
	return nil
}
