package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

const (
	wavFormatPCM        = 1
	wavFormatFloat      = 3
	wavFormatExtensible = 0xFFFE
	wavHeaderSize       = 44
)

// WAVHeader is the subset of the RIFF "fmt " chunk needed to interpret samples.
type WAVHeader struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	BitsPerSample uint16
	dataOffset    int
	dataSize      int
}

// PCM is interleaved 16-bit audio.
type PCM struct {
	Samples    []int16
	SampleRate int
	Channels   int
}

func (p PCM) Frames() int {
	if p.Channels <= 0 {
		return 0
	}
	return len(p.Samples) / p.Channels
}

// EncodeWAV writes a canonical 44-byte-header PCM16 WAV.
func EncodeWAV(p PCM) ([]byte, error) {
	if len(p.Samples) == 0 {
		return nil, fmt.Errorf("cannot encode empty audio samples")
	}
	if p.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", p.SampleRate)
	}
	if p.Channels <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d", p.Channels)
	}
	channels := uint16(p.Channels)
	blockAlign := channels * 2
	dataSize := uint32(len(p.Samples) * 2)

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+len(p.Samples)*2))
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36)+dataSize)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(wavFormatPCM))
	_ = binary.Write(buf, binary.LittleEndian, channels)
	_ = binary.Write(buf, binary.LittleEndian, uint32(p.SampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(p.SampleRate)*uint32(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, blockAlign)
	_ = binary.Write(buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, dataSize)
	if err := binary.Write(buf, binary.LittleEndian, p.Samples); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadWAVHeader walks the RIFF chunk list until it finds both "fmt " and "data".
// A data chunk whose declared size overruns the buffer is clamped, which is what
// streaming encoders (espeak --stdout, ffmpeg pipes) produce.
func ReadWAVHeader(data []byte) (WAVHeader, error) {
	var h WAVHeader
	if len(data) < 12 {
		return h, fmt.Errorf("WAV data too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return h, fmt.Errorf("invalid WAV file: missing RIFF/WAVE header")
	}
	haveFmt := false
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		switch id {
		case "fmt ":
			if size < 16 || body+size > len(data) {
				return h, fmt.Errorf("invalid WAV file: truncated fmt chunk")
			}
			h.AudioFormat = binary.LittleEndian.Uint16(data[body:])
			h.NumChannels = binary.LittleEndian.Uint16(data[body+2:])
			h.SampleRate = binary.LittleEndian.Uint32(data[body+4:])
			h.BitsPerSample = binary.LittleEndian.Uint16(data[body+14:])
			if h.AudioFormat == wavFormatExtensible && size >= 26 {
				h.AudioFormat = binary.LittleEndian.Uint16(data[body+24:])
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return h, fmt.Errorf("invalid WAV file: data chunk before fmt chunk")
			}
			if size < 0 || body+size > len(data) {
				size = len(data) - body
			}
			h.dataOffset = body
			h.dataSize = size
			return h, nil
		}
		if size < 0 || body+size > len(data) {
			break
		}
		pos = body + size + size%2
	}
	if !haveFmt {
		return h, fmt.Errorf("invalid WAV file: missing fmt chunk")
	}
	return h, fmt.Errorf("invalid WAV file: missing data chunk")
}

// DecodeWAV converts integer (8/16/24/32-bit) or float32 WAV into interleaved PCM16.
// Encodings it cannot read are reported as ErrUnsupportedFormat.
func DecodeWAV(data []byte) (PCM, error) {
	h, err := ReadWAVHeader(data)
	if err != nil {
		return PCM{}, err
	}
	if h.NumChannels == 0 {
		return PCM{}, fmt.Errorf("invalid WAV file: zero channels")
	}
	if h.SampleRate == 0 {
		return PCM{}, fmt.Errorf("invalid WAV file: zero sample rate")
	}
	raw := data[h.dataOffset : h.dataOffset+h.dataSize]
	var samples []int16
	switch {
	case h.AudioFormat == wavFormatPCM && h.BitsPerSample == 8:
		samples = make([]int16, len(raw))
		for i, b := range raw {
			samples[i] = int16(int(b)-128) << 8
		}
	case h.AudioFormat == wavFormatPCM && h.BitsPerSample == 16:
		samples = BytesToSamples(raw)
	case h.AudioFormat == wavFormatPCM && h.BitsPerSample == 24:
		samples = make([]int16, len(raw)/3)
		for i := range samples {
			samples[i] = int16(uint16(raw[i*3+1]) | uint16(raw[i*3+2])<<8)
		}
	case h.AudioFormat == wavFormatPCM && h.BitsPerSample == 32:
		samples = make([]int16, len(raw)/4)
		for i := range samples {
			samples[i] = int16(int32(binary.LittleEndian.Uint32(raw[i*4:])) >> 16)
		}
	case h.AudioFormat == wavFormatFloat && h.BitsPerSample == 32:
		samples = make([]int16, len(raw)/4)
		for i := range samples {
			samples[i] = floatToPCM(math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:])))
		}
	default:
		return PCM{}, fmt.Errorf("%w: wav encoding %d with %d bits", ErrUnsupportedFormat, h.AudioFormat, h.BitsPerSample)
	}
	channels := int(h.NumChannels)
	samples = samples[:len(samples)-len(samples)%channels]
	if len(samples) == 0 {
		return PCM{}, fmt.Errorf("no audio data found")
	}
	return PCM{Samples: samples, SampleRate: int(h.SampleRate), Channels: channels}, nil
}

// BytesToSamples reads little-endian PCM16; a trailing odd byte is dropped.
func BytesToSamples(raw []byte) []int16 {
	out := make([]int16, len(raw)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return out
}

func SamplesToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func floatToPCM(v float32) int16 {
	return clampPCM(int32(math.Round(float64(v) * 32767)))
}
