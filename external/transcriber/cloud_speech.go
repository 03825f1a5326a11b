package transcriber

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"github.com/foxseedlab/hatsuon/internal/audio"
	"github.com/foxseedlab/hatsuon/internal/transcriber"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const speechAPIEndpointPort = 443

type CloudSpeechConfig struct {
	ProjectID       string
	CredentialsJSON string
	Language        string
	Location        string
	Model           string
}

// speechRecognizer is the slice of the v2 client a single recognition needs.
type speechRecognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)
	Close() error
}

type CloudSpeechTranscriber struct {
	projectID       string
	credentialsJSON string
	language        string
	location        string
	model           string
	newClient       func(ctx context.Context) (speechRecognizer, error)
}

func NewCloudSpeechTranscriber(cfg CloudSpeechConfig) transcriber.Transcriber {
	t := &CloudSpeechTranscriber{
		projectID:       cfg.ProjectID,
		credentialsJSON: cfg.CredentialsJSON,
		language:        cfg.Language,
		location:        strings.TrimSpace(cfg.Location),
		model:           strings.TrimSpace(cfg.Model),
	}
	t.newClient = t.dial
	return t
}

func (t *CloudSpeechTranscriber) Recognize(ctx context.Context, waveform audio.Blob) (string, error) {
	pcm, err := audio.DecodeWAV(waveform.Data)
	if err != nil {
		return "", fmt.Errorf("recognizer input is not canonical wav: %w", err)
	}
	slog.Info("sending cloud speech recognize request", "location", t.location, "language", t.language, "model", t.model, "samples", len(pcm.Samples))

	client, err := t.newClient(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", transcriber.ErrServiceUnavailable, err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			slog.Warn("failed to close cloud speech client", "error", err)
		}
	}()

	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Recognizer: fmt.Sprintf("projects/%s/locations/%s/recognizers/_", t.projectID, t.location),
		Config: &speechpb.RecognitionConfig{
			Model:         t.model,
			LanguageCodes: []string{t.language},
			DecodingConfig: &speechpb.RecognitionConfig_ExplicitDecodingConfig{
				ExplicitDecodingConfig: &speechpb.ExplicitDecodingConfig{
					Encoding:          speechpb.ExplicitDecodingConfig_LINEAR16,
					SampleRateHertz:   int32(pcm.SampleRate),
					AudioChannelCount: int32(pcm.Channels),
				},
			},
			Features: &speechpb.RecognitionFeatures{EnableAutomaticPunctuation: true},
		},
		AudioSource: &speechpb.RecognizeRequest_Content{
			Content: audio.SamplesToBytes(pcm.Samples),
		},
	})
	if err != nil {
		return "", classifyRecognizeError(err)
	}

	text := joinTranscripts(resp)
	if text == "" {
		return "", transcriber.ErrUnintelligible
	}
	return text, nil
}

func (t *CloudSpeechTranscriber) dial(ctx context.Context) (speechRecognizer, error) {
	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(t.credentialsJSON),
		Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
	})
	if err != nil {
		return nil, fmt.Errorf("detect credentials: %w", err)
	}
	opts := []option.ClientOption{
		option.WithAuthCredentials(creds),
	}
	if t.location != "global" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:%d", t.location, speechAPIEndpointPort)))
	}
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &speechClient{client: client}, nil
}

type speechClient struct {
	client *speech.Client
}

func (c *speechClient) Recognize(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	return c.client.Recognize(ctx, req)
}

func (c *speechClient) Close() error {
	return c.client.Close()
}

func joinTranscripts(resp *speechpb.RecognizeResponse) string {
	parts := make([]string, 0, len(resp.GetResults()))
	for _, result := range resp.GetResults() {
		if len(result.GetAlternatives()) == 0 {
			continue
		}
		if text := strings.TrimSpace(result.GetAlternatives()[0].GetTranscript()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// classifyRecognizeError maps every failed call to ErrServiceUnavailable. The
// service reports silence as an empty result, never as an error.
func classifyRecognizeError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		slog.Warn("cloud speech recognize failed", "error", err)
		return fmt.Errorf("%w: %v", transcriber.ErrServiceUnavailable, err)
	}
	switch st.Code() {
	case codes.InvalidArgument:
		slog.Error("cloud speech rejected the request", "code", st.Code().String(), "message", st.Message())
	default:
		slog.Warn("cloud speech recognize failed", "code", st.Code().String(), "message", st.Message())
	}
	return fmt.Errorf("%w: %s: %s", transcriber.ErrServiceUnavailable, st.Code(), st.Message())
}
