package synthesis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/foxseedlab/hatsuon/internal/audio"
	"github.com/foxseedlab/hatsuon/internal/synthesis"
	"github.com/sashabaranov/go-openai"
)

type OpenAITTSConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Voice   string
}

type OpenAITTS struct {
	apiKey  string
	baseURL string
	model   string
	voice   string
}

func NewOpenAITTS(cfg OpenAITTSConfig) *OpenAITTS {
	model := cfg.Model
	if model == "" {
		model = string(openai.TTSModel1)
	}
	voice := cfg.Voice
	if voice == "" {
		voice = string(openai.VoiceFable)
	}
	return &OpenAITTS{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   model,
		voice:   voice,
	}
}

func (o *OpenAITTS) Name() string {
	return "openai"
}

func (o *OpenAITTS) Available(context.Context) bool {
	return strings.TrimSpace(o.apiKey) != ""
}

func (o *OpenAITTS) Synthesize(ctx context.Context, text string) (audio.Blob, error) {
	clientCfg := openai.DefaultConfig(o.apiKey)
	if o.baseURL != "" {
		clientCfg.BaseURL = o.baseURL
	}
	client := openai.NewClientWithConfig(clientCfg)

	resp, err := client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.model),
		Input:          text,
		Voice:          openai.SpeechVoice(o.voice),
		ResponseFormat: openai.SpeechResponseFormatWav,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			slog.Warn("openai speech request failed", "status", apiErr.HTTPStatusCode, "message", apiErr.Message)
		}
		return audio.Blob{}, fmt.Errorf("%w: %v", synthesis.ErrEngine, err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return audio.Blob{}, fmt.Errorf("%w: read speech body: %v", synthesis.ErrEngine, err)
	}
	return audio.Blob{Data: data, Format: audio.FormatWAV}, nil
}
