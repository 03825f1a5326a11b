package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/foxseedlab/hatsuon/internal/audio"
)

func newTestTranscoder() audio.Transcoder {
	return NewTranscoder(TranscoderConfig{FFmpegBinary: "hatsuon-test-missing-ffmpeg", MaxInputBytes: 1 << 20})
}

func mustWAV(t *testing.T, p audio.PCM) []byte {
	t.Helper()
	b, err := audio.EncodeWAV(p)
	if err != nil {
		t.Fatalf("failed to encode wav: %v", err)
	}
	return b
}

func TestTranscode_CanonicalInputIsPassThrough(t *testing.T) {
	data := mustWAV(t, audio.PCM{Samples: make([]int16, 1600), SampleRate: 16000, Channels: 1})
	in := audio.Blob{Data: data, Format: audio.FormatWAV}

	out, err := newTestTranscoder().Transcode(context.Background(), in, audio.RecognitionSpec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Data) != len(data) || &out.Data[0] != &data[0] {
		t.Fatal("expected canonical input to be returned unchanged")
	}
}

func TestTranscode_StereoWAVIsNormalized(t *testing.T) {
	data := mustWAV(t, audio.PCM{Samples: make([]int16, 48000*2), SampleRate: 48000, Channels: 2})

	out, err := newTestTranscoder().Transcode(context.Background(), audio.Blob{Data: data, Format: audio.FormatWAV}, audio.RecognitionSpec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Conforms(audio.RecognitionSpec) {
		t.Fatalf("output does not conform: %+v", out)
	}
	pcm, err := audio.DecodeWAV(out.Data)
	if err != nil {
		t.Fatalf("output is not decodable: %v", err)
	}
	if len(pcm.Samples) != 16000 {
		t.Fatalf("expected one second at 16 kHz, got %d samples", len(pcm.Samples))
	}
}

func TestTranscode_UntaggedInputIsSniffed(t *testing.T) {
	data := mustWAV(t, audio.PCM{Samples: make([]int16, 160), SampleRate: 16000, Channels: 1})
	in := audio.Blob{Data: data}

	out, err := newTestTranscoder().Transcode(context.Background(), in, audio.RecognitionSpec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Format != audio.FormatWAV {
		t.Fatalf("unexpected format: %s", out.Format)
	}
	if &out.Data[0] != &data[0] {
		t.Fatal("expected the sniffed blob to share the caller's bytes")
	}
	if in.Format != "" {
		t.Fatalf("caller's blob was modified: %s", in.Format)
	}
}

func TestTranscode_HeaderOnlyWAVIsDecodeFailure(t *testing.T) {
	data := mustWAV(t, audio.PCM{Samples: make([]int16, 160), SampleRate: 16000, Channels: 1})[:44]
	binary.LittleEndian.PutUint32(data[4:8], 36)
	binary.LittleEndian.PutUint32(data[40:44], 0)

	for _, format := range []audio.Format{audio.FormatWAV, ""} {
		_, err := newTestTranscoder().Transcode(context.Background(), audio.Blob{Data: data, Format: format}, audio.RecognitionSpec)
		if !errors.Is(err, audio.ErrDecodeFailure) {
			t.Fatalf("format %q: expected ErrDecodeFailure, got %v", format, err)
		}
	}
}

func TestTranscode_RawPCM(t *testing.T) {
	in := audio.Blob{Data: make([]byte, 24000*2), Format: audio.FormatPCM16, SampleRate: 24000, Channels: 1}

	out, err := newTestTranscoder().Transcode(context.Background(), in, audio.PlaybackSpec(16000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Conforms(audio.PlaybackSpec(16000)) {
		t.Fatalf("output does not conform: %+v", out)
	}
}

func TestTranscode_RawPCMWithoutLayoutFails(t *testing.T) {
	in := audio.Blob{Data: make([]byte, 10), Format: audio.FormatPCM16}

	_, err := newTestTranscoder().Transcode(context.Background(), in, audio.RecognitionSpec)
	if !errors.Is(err, audio.ErrDecodeFailure) {
		t.Fatalf("expected ErrDecodeFailure, got %v", err)
	}
}

func TestTranscode_EmptyAndOversizedInputs(t *testing.T) {
	tr := newTestTranscoder()
	if _, err := tr.Transcode(context.Background(), audio.Blob{Format: audio.FormatWAV}, audio.RecognitionSpec); !errors.Is(err, audio.ErrDecodeFailure) {
		t.Fatalf("expected ErrDecodeFailure for empty input, got %v", err)
	}
	big := audio.Blob{Data: make([]byte, (1<<20)+1), Format: audio.FormatWebM}
	if _, err := tr.Transcode(context.Background(), big, audio.RecognitionSpec); !errors.Is(err, audio.ErrDecodeFailure) {
		t.Fatalf("expected ErrDecodeFailure for oversized input, got %v", err)
	}
}

func TestTranscode_CorruptWAV(t *testing.T) {
	in := audio.Blob{Data: []byte("RIFF\x00\x00\x00\x00WAVEjunk"), Format: audio.FormatWAV}

	_, err := newTestTranscoder().Transcode(context.Background(), in, audio.RecognitionSpec)
	if !errors.Is(err, audio.ErrDecodeFailure) {
		t.Fatalf("expected ErrDecodeFailure, got %v", err)
	}
}

func TestTranscode_UnknownContainerWithoutFFmpeg(t *testing.T) {
	in := audio.Blob{Data: []byte{0x1A, 0x45, 0xDF, 0xA3, 0, 0, 0, 0}, Format: audio.FormatWebM}

	_, err := newTestTranscoder().Transcode(context.Background(), in, audio.RecognitionSpec)
	if !errors.Is(err, audio.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}
