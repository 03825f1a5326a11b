package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/foxseedlab/hatsuon/internal/audio"
)

const defaultFFmpegBinary = "ffmpeg"

type TranscoderConfig struct {
	FFmpegBinary  string
	MaxInputBytes int
}

type Transcoder struct {
	ffmpegBinary  string
	maxInputBytes int
}

func NewTranscoder(cfg TranscoderConfig) audio.Transcoder {
	binary := cfg.FFmpegBinary
	if binary == "" {
		binary = defaultFFmpegBinary
	}
	return &Transcoder{
		ffmpegBinary:  binary,
		maxInputBytes: cfg.MaxInputBytes,
	}
}

// Transcode returns in untouched when it already conforms to target. An untagged
// blob is sniffed first, so the pass-through copy carries the detected format
// while sharing the caller's bytes.
func (t *Transcoder) Transcode(ctx context.Context, in audio.Blob, target audio.Spec) (audio.Blob, error) {
	if in.Empty() {
		return audio.Blob{}, fmt.Errorf("%w: empty input", audio.ErrDecodeFailure)
	}
	if t.maxInputBytes > 0 && len(in.Data) > t.maxInputBytes {
		return audio.Blob{}, fmt.Errorf("%w: input is %d bytes, limit is %d", audio.ErrDecodeFailure, len(in.Data), t.maxInputBytes)
	}
	if in.Format == "" || in.Format == audio.FormatUnknown {
		in.Format = audio.Sniff(in.Data)
	}
	if in.Conforms(target) {
		return in, nil
	}

	pcm, err := t.decode(ctx, in, target.SampleRate)
	if err != nil {
		return audio.Blob{}, err
	}
	conformed, err := audio.Conform(pcm, target)
	if err != nil {
		return audio.Blob{}, err
	}
	out, err := audio.Encode(conformed, target)
	if err != nil {
		return audio.Blob{}, fmt.Errorf("%w: encode: %v", audio.ErrDecodeFailure, err)
	}
	slog.Debug("audio transcoded",
		"from_format", in.Format,
		"from_rate", pcm.SampleRate,
		"from_channels", pcm.Channels,
		"to_format", target.Format,
		"to_rate", target.SampleRate,
		"output_bytes", len(out.Data))
	return out, nil
}

func (t *Transcoder) decode(ctx context.Context, in audio.Blob, targetRate int) (audio.PCM, error) {
	switch in.Format {
	case audio.FormatWAV:
		pcm, err := audio.DecodeWAV(in.Data)
		if err == nil {
			return pcm, nil
		}
		if errors.Is(err, audio.ErrUnsupportedFormat) {
			return decodeWithFFmpeg(ctx, t.ffmpegBinary, in, targetRate)
		}
		return audio.PCM{}, fmt.Errorf("%w: %v", audio.ErrDecodeFailure, err)
	case audio.FormatPCM16:
		if in.SampleRate <= 0 || in.Channels <= 0 {
			return audio.PCM{}, fmt.Errorf("%w: raw pcm requires sample rate and channels", audio.ErrDecodeFailure)
		}
		if len(in.Data)%(2*in.Channels) != 0 {
			return audio.PCM{}, fmt.Errorf("%w: raw pcm length %d is not frame aligned", audio.ErrDecodeFailure, len(in.Data))
		}
		return audio.PCM{Samples: audio.BytesToSamples(in.Data), SampleRate: in.SampleRate, Channels: in.Channels}, nil
	case audio.FormatOggOpus:
		pcm, err := decodeOggOpus(in.Data)
		if err == nil {
			return pcm, nil
		}
		if errors.Is(err, audio.ErrUnsupportedFormat) {
			return decodeWithFFmpeg(ctx, t.ffmpegBinary, in, targetRate)
		}
		return audio.PCM{}, err
	default:
		return decodeWithFFmpeg(ctx, t.ffmpegBinary, in, targetRate)
	}
}
