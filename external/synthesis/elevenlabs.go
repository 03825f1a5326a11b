package synthesis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/foxseedlab/hatsuon/internal/audio"
	"github.com/foxseedlab/hatsuon/internal/synthesis"
)

const (
	defaultElevenLabsBaseURL = "https://api.elevenlabs.io"
	defaultElevenLabsModel   = "eleven_multilingual_v2"
	elevenLabsSampleRate     = 16000
	elevenLabsTimeout        = 60 * time.Second
	maxErrorBodyBytes        = 4 << 10
)

type ElevenLabsConfig struct {
	APIKey  string
	VoiceID string
	ModelID string
	BaseURL string
}

type ElevenLabs struct {
	apiKey  string
	voiceID string
	modelID string
	baseURL string
	client  *http.Client
}

func NewElevenLabs(cfg ElevenLabsConfig) *ElevenLabs {
	modelID := cfg.ModelID
	if modelID == "" {
		modelID = defaultElevenLabsModel
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultElevenLabsBaseURL
	}
	return &ElevenLabs{
		apiKey:  cfg.APIKey,
		voiceID: cfg.VoiceID,
		modelID: modelID,
		baseURL: baseURL,
		client:  &http.Client{Timeout: elevenLabsTimeout},
	}
}

func (e *ElevenLabs) Name() string {
	return "elevenlabs"
}

func (e *ElevenLabs) Available(context.Context) bool {
	return e.apiKey != "" && e.voiceID != ""
}

type elevenLabsRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id"`
	VoiceSettings elevenLabsVoiceSettings `json:"voice_settings"`
}

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text string) (audio.Blob, error) {
	body, err := json.Marshal(elevenLabsRequest{
		Text:    text,
		ModelID: e.modelID,
		VoiceSettings: elevenLabsVoiceSettings{
			Stability:       0.75,
			SimilarityBoost: 0.7,
		},
	})
	if err != nil {
		return audio.Blob{}, fmt.Errorf("%w: marshal request: %v", synthesis.ErrEngine, err)
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s?%s", e.baseURL, url.PathEscape(e.voiceID),
		url.Values{"output_format": {fmt.Sprintf("pcm_%d", elevenLabsSampleRate)}}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return audio.Blob{}, fmt.Errorf("%w: build request: %v", synthesis.ErrEngine, err)
	}
	req.Header.Set("xi-api-key", e.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return audio.Blob{}, fmt.Errorf("%w: %v", synthesis.ErrEngine, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return audio.Blob{}, fmt.Errorf("%w: elevenlabs returned %s: %s", synthesis.ErrEngine, resp.Status, strings.TrimSpace(string(msg)))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return audio.Blob{}, fmt.Errorf("%w: read audio: %v", synthesis.ErrEngine, err)
	}
	if len(data)%2 != 0 {
		data = data[:len(data)-1]
	}
	return audio.Blob{Data: data, Format: audio.FormatPCM16, SampleRate: elevenLabsSampleRate, Channels: 1}, nil
}
