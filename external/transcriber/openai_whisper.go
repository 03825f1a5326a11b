package transcriber

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/foxseedlab/hatsuon/internal/audio"
	"github.com/foxseedlab/hatsuon/internal/transcriber"
	"github.com/sashabaranov/go-openai"
)

type WhisperConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
}

type WhisperTranscriber struct {
	apiKey   string
	baseURL  string
	model    string
	language string
}

func NewWhisperTranscriber(cfg WhisperConfig) transcriber.Transcriber {
	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperTranscriber{
		apiKey:   cfg.APIKey,
		baseURL:  cfg.BaseURL,
		model:    model,
		language: isoLanguage(cfg.Language),
	}
}

func (t *WhisperTranscriber) Recognize(ctx context.Context, waveform audio.Blob) (string, error) {
	clientCfg := openai.DefaultConfig(t.apiKey)
	if t.baseURL != "" {
		clientCfg.BaseURL = t.baseURL
	}
	client := openai.NewClientWithConfig(clientCfg)

	slog.Info("sending openai transcription request", "model", t.model, "language", t.language, "bytes", len(waveform.Data))
	resp, err := client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.model,
		FilePath: "speech.wav",
		Reader:   bytes.NewReader(waveform.Data),
		Language: t.language,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			slog.Warn("openai transcription failed", "status", apiErr.HTTPStatusCode, "message", apiErr.Message)
		} else {
			slog.Warn("openai transcription failed", "error", err)
		}
		return "", fmt.Errorf("%w: %v", transcriber.ErrServiceUnavailable, err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", transcriber.ErrUnintelligible
	}
	return text, nil
}

// isoLanguage reduces a BCP-47 tag such as en-GB to the ISO-639-1 code Whisper expects.
func isoLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}
