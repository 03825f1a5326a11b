package transcriber

import (
	"context"
	"errors"

	"github.com/foxseedlab/hatsuon/internal/audio"
)

var (
	// ErrUnintelligible means the service answered but heard no usable speech.
	ErrUnintelligible = errors.New("speech was unintelligible")
	// ErrServiceUnavailable covers transport, quota and auth failures.
	ErrServiceUnavailable = errors.New("speech recognition service unavailable")
)

// Transcriber turns a canonical waveform (audio.RecognitionSpec) into text.
type Transcriber interface {
	Recognize(ctx context.Context, waveform audio.Blob) (string, error)
}
