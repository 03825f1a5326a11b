package config

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	RecognizerGoogle = "google"
	RecognizerOpenAI = "openai"

	PhonemizerEngineEspeak = "espeak"
	PhonemizerEngineGoruut = "goruut"

	TTSBackendGoogle     = "google"
	TTSBackendOpenAI     = "openai"
	TTSBackendElevenLabs = "elevenlabs"
	TTSBackendEspeak     = "espeak"

	TTSInputTranscript = "transcript"
	TTSInputPhonemes   = "phonemes"
)

var localePattern = regexp.MustCompile(`^[a-z]{2,3}(-[a-z0-9]{2,8})*$`)

// TTSBackend is one entry of the ordered synthesis fallback list.
type TTSBackend struct {
	Name  string
	Input string
}

type Config struct {
	Env                        string
	Recognizer                 string
	RecognitionLanguage        string
	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string
	PhonemizerEngine           string
	PhonemizerLanguage         string
	PhonemizerPunctuation      string
	TTSBackends                []TTSBackend
	GoogleTTSVoice             string
	OpenAIAPIKey               string
	OpenAIBaseURL              string
	OpenAISTTModel             string
	OpenAITTSModel             string
	OpenAITTSVoice             string
	ElevenLabsAPIKey           string
	ElevenLabsVoiceID          string
	ElevenLabsModelID          string
	EspeakBinary               string
	EspeakVoice                string
	FFmpegBinary               string
	PlaybackSampleRate         int
	MaxInputBytes              int
	RunTimeoutSec              int
	CommandRatePerMin          int
	DatabaseURL                string
	ResultWebhookURL           string
	DiscordToken               string
	DiscordGuildID             string
	MetricsAddr                string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	switch c.Recognizer {
	case RecognizerGoogle:
	case RecognizerOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when RECOGNIZER=openai")
		}
	default:
		return fmt.Errorf("RECOGNIZER must be %q or %q, got %q", RecognizerGoogle, RecognizerOpenAI, c.Recognizer)
	}
	switch c.PhonemizerEngine {
	case PhonemizerEngineEspeak, PhonemizerEngineGoruut:
	default:
		return fmt.Errorf("PHONEMIZER_ENGINE must be %q or %q, got %q", PhonemizerEngineEspeak, PhonemizerEngineGoruut, c.PhonemizerEngine)
	}
	if !localePattern.MatchString(strings.ToLower(c.PhonemizerLanguage)) {
		return fmt.Errorf("PHONEMIZER_LANGUAGE is not a locale tag: %q", c.PhonemizerLanguage)
	}
	for _, b := range c.TTSBackends {
		if b.Input == TTSInputPhonemes && b.Name != TTSBackendGoogle {
			return fmt.Errorf("TTS_BACKENDS: %s cannot speak phonemes", b.Name)
		}
	}
	if c.PlaybackSampleRate < 8000 || c.PlaybackSampleRate > 48000 {
		return fmt.Errorf("PLAYBACK_SAMPLE_RATE must be between 8000 and 48000, got %d", c.PlaybackSampleRate)
	}
	if c.MaxInputBytes <= 0 {
		return fmt.Errorf("MAX_INPUT_BYTES must be positive, got %d", c.MaxInputBytes)
	}
	if c.RunTimeoutSec <= 0 {
		return fmt.Errorf("RUN_TIMEOUT_SEC must be positive, got %d", c.RunTimeoutSec)
	}
	if c.CommandRatePerMin < 0 {
		return fmt.Errorf("COMMAND_RATE_PER_MIN must not be negative, got %d", c.CommandRatePerMin)
	}
	return nil
}

// ValidateForServe adds the checks only the long-running bot needs.
func (c *Config) ValidateForServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	if c.DiscordGuildID == "" {
		return fmt.Errorf("DISCORD_GUILD_ID is required")
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "RECOGNITION_LANGUAGE", value: c.RecognitionLanguage},
		{name: "PHONEMIZER_LANGUAGE", value: c.PhonemizerLanguage},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ParseTTSBackends reads "name[:input],..." into an ordered backend list.
// Input defaults to transcript.
func ParseTTSBackends(raw string) ([]TTSBackend, error) {
	var out []TTSBackend
	seen := map[string]bool{}
	for _, item := range strings.Split(raw, ",") {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		name, input, _ := strings.Cut(item, ":")
		name = strings.TrimSpace(name)
		input = strings.TrimSpace(input)
		switch name {
		case TTSBackendGoogle, TTSBackendOpenAI, TTSBackendElevenLabs, TTSBackendEspeak:
		default:
			return nil, fmt.Errorf("TTS_BACKENDS: unknown backend %q", name)
		}
		switch input {
		case "":
			input = TTSInputTranscript
		case TTSInputTranscript, TTSInputPhonemes:
		default:
			return nil, fmt.Errorf("TTS_BACKENDS: unknown input %q for %s", input, name)
		}
		if seen[name] {
			return nil, fmt.Errorf("TTS_BACKENDS: %s listed twice", name)
		}
		seen[name] = true
		out = append(out, TTSBackend{Name: name, Input: input})
	}
	return out, nil
}
