package audio

import (
	"context"
	"errors"
	"strings"
)

type Format string

const (
	FormatWAV     Format = "wav"
	FormatPCM16   Format = "pcm16"
	FormatOggOpus Format = "ogg_opus"
	FormatWebM    Format = "webm"
	FormatMP3     Format = "mp3"
	FormatMP4     Format = "mp4"
	FormatFLAC    Format = "flac"
	FormatUnknown Format = "unknown"
)

const (
	RecognitionSampleRate = 16000
	DefaultPlaybackRate   = 24000
	canonicalBitDepth     = 16
)

var (
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	ErrDecodeFailure     = errors.New("audio decode failure")
)

// Blob is captured or produced audio. SampleRate and Channels are only
// authoritative for FormatPCM16; container formats carry their own header.
type Blob struct {
	Data       []byte
	Format     Format
	SampleRate int
	Channels   int
}

func (b Blob) Empty() bool {
	return len(b.Data) == 0
}

// Spec describes a target waveform layout.
type Spec struct {
	Format     Format
	SampleRate int
	Channels   int
	BitDepth   int
}

var RecognitionSpec = Spec{
	Format:     FormatWAV,
	SampleRate: RecognitionSampleRate,
	Channels:   1,
	BitDepth:   canonicalBitDepth,
}

func PlaybackSpec(sampleRate int) Spec {
	if sampleRate <= 0 {
		sampleRate = DefaultPlaybackRate
	}
	return Spec{
		Format:     FormatWAV,
		SampleRate: sampleRate,
		Channels:   1,
		BitDepth:   canonicalBitDepth,
	}
}

// Conforms reports whether b can be handed to a consumer of s without re-encoding.
// A WAV whose data chunk holds no complete frame never conforms.
func (b Blob) Conforms(s Spec) bool {
	if b.Empty() || b.Format != s.Format {
		return false
	}
	switch b.Format {
	case FormatPCM16:
		return s.BitDepth == canonicalBitDepth && b.SampleRate == s.SampleRate && b.Channels == s.Channels
	case FormatWAV:
		h, err := ReadWAVHeader(b.Data)
		if err != nil {
			return false
		}
		frame := int(h.NumChannels) * int(h.BitsPerSample) / 8
		return h.AudioFormat == wavFormatPCM &&
			frame > 0 && h.dataSize >= frame &&
			int(h.SampleRate) == s.SampleRate &&
			int(h.NumChannels) == s.Channels &&
			int(h.BitsPerSample) == s.BitDepth
	default:
		return false
	}
}

type Transcoder interface {
	Transcode(ctx context.Context, in Blob, target Spec) (Blob, error)
}

// FormatFromName guesses a container from a MIME type or file name.
func FormatFromName(name string) Format {
	n := strings.ToLower(strings.TrimSpace(name))
	if i := strings.Index(n, ";"); i >= 0 {
		n = strings.TrimSpace(n[:i])
	}
	switch {
	case n == "":
		return FormatUnknown
	case strings.HasSuffix(n, ".wav"), n == "audio/wav", n == "audio/x-wav", n == "audio/wave":
		return FormatWAV
	case strings.HasSuffix(n, ".pcm"), strings.HasSuffix(n, ".raw"), n == "audio/l16", n == "audio/pcm":
		return FormatPCM16
	case strings.HasSuffix(n, ".ogg"), strings.HasSuffix(n, ".opus"), n == "audio/ogg", n == "audio/opus":
		return FormatOggOpus
	case strings.HasSuffix(n, ".webm"), n == "audio/webm", n == "video/webm":
		return FormatWebM
	case strings.HasSuffix(n, ".mp3"), n == "audio/mpeg", n == "audio/mp3":
		return FormatMP3
	case strings.HasSuffix(n, ".m4a"), strings.HasSuffix(n, ".mp4"), n == "audio/mp4", n == "audio/x-m4a":
		return FormatMP4
	case strings.HasSuffix(n, ".flac"), n == "audio/flac", n == "audio/x-flac":
		return FormatFLAC
	default:
		return FormatUnknown
	}
}

// Sniff identifies a container from its magic bytes.
func Sniff(data []byte) Format {
	switch {
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return FormatWAV
	case len(data) >= 4 && string(data[0:4]) == "OggS":
		return FormatOggOpus
	case len(data) >= 4 && data[0] == 0x1A && data[1] == 0x45 && data[2] == 0xDF && data[3] == 0xA3:
		return FormatWebM
	case len(data) >= 4 && string(data[0:4]) == "fLaC":
		return FormatFLAC
	case len(data) >= 3 && string(data[0:3]) == "ID3":
		return FormatMP3
	case len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return FormatMP3
	case len(data) >= 8 && string(data[4:8]) == "ftyp":
		return FormatMP4
	default:
		return FormatUnknown
	}
}

func (f Format) Extension() string {
	switch f {
	case FormatWAV:
		return ".wav"
	case FormatPCM16:
		return ".pcm"
	case FormatOggOpus:
		return ".ogg"
	case FormatWebM:
		return ".webm"
	case FormatMP3:
		return ".mp3"
	case FormatMP4:
		return ".m4a"
	case FormatFLAC:
		return ".flac"
	default:
		return ".bin"
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatWAV:
		return "audio/wav"
	case FormatPCM16:
		return "audio/l16"
	case FormatOggOpus:
		return "audio/ogg"
	case FormatWebM:
		return "audio/webm"
	case FormatMP3:
		return "audio/mpeg"
	case FormatMP4:
		return "audio/mp4"
	case FormatFLAC:
		return "audio/flac"
	default:
		return "application/octet-stream"
	}
}

// Sink receives the synthesized playback waveform.
type Sink interface {
	Play(ctx context.Context, waveform Blob) error
}
