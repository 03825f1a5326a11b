package synthesis

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"

	"cloud.google.com/go/auth/credentials"
	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/foxseedlab/hatsuon/internal/audio"
	"github.com/foxseedlab/hatsuon/internal/synthesis"
	"google.golang.org/api/option"
)

type GoogleTTSConfig struct {
	CredentialsJSON string
	Language        string
	Voice           string
	SampleRate      int
	// Phonemes makes the backend read IPA through an SSML phoneme tag.
	Phonemes bool
}

type speechSynthesizer interface {
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error)
	Close() error
}

type GoogleTTS struct {
	credentialsJSON string
	language        string
	voice           string
	sampleRate      int
	phonemes        bool
	newClient       func(ctx context.Context) (speechSynthesizer, error)
	// detectDefault reports whether application default credentials exist.
	detectDefault func() bool

	adcOnce sync.Once
	adc     bool
}

const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

func NewGoogleTTS(cfg GoogleTTSConfig) *GoogleTTS {
	g := &GoogleTTS{
		credentialsJSON: cfg.CredentialsJSON,
		language:        cfg.Language,
		voice:           cfg.Voice,
		sampleRate:      cfg.SampleRate,
		phonemes:        cfg.Phonemes,
	}
	g.newClient = g.dial
	g.detectDefault = applicationDefaultCredentials
	return g
}

func (g *GoogleTTS) Name() string {
	return "google"
}

// Available accepts the same credentials the recognizer dials with: inline JSON,
// or application default credentials when no JSON is configured.
func (g *GoogleTTS) Available(context.Context) bool {
	if strings.TrimSpace(g.credentialsJSON) != "" {
		return true
	}
	g.adcOnce.Do(func() {
		g.adc = g.detectDefault()
		if !g.adc {
			slog.Debug("google text-to-speech has no credentials")
		}
	})
	return g.adc
}

func applicationDefaultCredentials() bool {
	_, err := credentials.DetectDefault(&credentials.DetectOptions{Scopes: []string{cloudPlatformScope}})
	return err == nil
}

func (g *GoogleTTS) Synthesize(ctx context.Context, text string) (audio.Blob, error) {
	client, err := g.newClient(ctx)
	if err != nil {
		return audio.Blob{}, fmt.Errorf("%w: dial text-to-speech: %v", synthesis.ErrEngine, err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slog.Warn("failed to close text-to-speech client", "error", err)
		}
	}()

	resp, err := client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: g.input(text),
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: g.language,
			Name:         g.voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   texttospeechpb.AudioEncoding_LINEAR16,
			SampleRateHertz: int32(g.sampleRate),
		},
	})
	if err != nil {
		return audio.Blob{}, fmt.Errorf("%w: %v", synthesis.ErrEngine, err)
	}
	// LINEAR16 responses carry a WAV header.
	return audio.Blob{Data: resp.GetAudioContent(), Format: audio.FormatWAV}, nil
}

func (g *GoogleTTS) input(text string) *texttospeechpb.SynthesisInput {
	if !g.phonemes {
		return &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		}
	}
	return &texttospeechpb.SynthesisInput{
		InputSource: &texttospeechpb.SynthesisInput_Ssml{Ssml: phonemeSSML(text)},
	}
}

// phonemeSSML speaks each IPA word through its own phoneme tag.
func phonemeSSML(ipa string) string {
	var b strings.Builder
	b.WriteString("<speak>")
	for i, word := range strings.Fields(ipa) {
		if i > 0 {
			b.WriteString(" ")
		}
		esc := html.EscapeString(word)
		fmt.Fprintf(&b, `<phoneme alphabet="ipa" ph="%s">%s</phoneme>`, esc, esc)
	}
	b.WriteString("</speak>")
	return b.String()
}

func (g *GoogleTTS) dial(ctx context.Context) (speechSynthesizer, error) {
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(g.credentialsJSON),
		Scopes:          []string{cloudPlatformScope},
	})
	if err != nil {
		return nil, fmt.Errorf("detect credentials: %w", err)
	}
	client, err := texttospeech.NewClient(ctx, option.WithAuthCredentials(creds))
	if err != nil {
		return nil, err
	}
	return &ttsClient{client: client}, nil
}

type ttsClient struct {
	client *texttospeech.Client
}

func (c *ttsClient) SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest) (*texttospeechpb.SynthesizeSpeechResponse, error) {
	return c.client.SynthesizeSpeech(ctx, req)
}

func (c *ttsClient) Close() error {
	return c.client.Close()
}
