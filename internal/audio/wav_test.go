package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func sineSamples(sampleRate int, seconds float64) []int16 {
	n := int(float64(sampleRate) * seconds)
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(16383 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
	}
	return samples
}

func TestEncodeDecodeWAV(t *testing.T) {
	original := PCM{Samples: []int16{100, -200, 300, -400, 500, -600}, SampleRate: 8000, Channels: 2}

	data, err := EncodeWAV(original)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}
	if len(data) != wavHeaderSize+len(original.Samples)*2 {
		t.Fatalf("unexpected WAV size: %d", len(data))
	}

	decoded, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if decoded.SampleRate != 8000 || decoded.Channels != 2 {
		t.Fatalf("unexpected layout: %+v", decoded)
	}
	for i, s := range original.Samples {
		if decoded.Samples[i] != s {
			t.Fatalf("sample %d mismatch: got %d want %d", i, decoded.Samples[i], s)
		}
	}
}

func TestEncodeWAV_RejectsEmpty(t *testing.T) {
	if _, err := EncodeWAV(PCM{SampleRate: 16000, Channels: 1}); err == nil {
		t.Fatal("expected error for empty samples")
	}
}

func TestReadWAVHeader_SkipsExtraChunksAndClampsStreamingSize(t *testing.T) {
	data, err := EncodeWAV(PCM{Samples: []int16{1, 2, 3, 4}, SampleRate: 22050, Channels: 1})
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}
	// Insert a LIST chunk between fmt and data and mark data size as unknown.
	list := append([]byte("LIST"), 0x03, 0, 0, 0, 'a', 'b', 'c', 0)
	withList := append([]byte{}, data[:36]...)
	withList = append(withList, list...)
	withList = append(withList, data[36:]...)
	binary.LittleEndian.PutUint32(withList[36+len(list)+4:], 0xFFFFFFFF)

	decoded, err := DecodeWAV(withList)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if len(decoded.Samples) != 4 || decoded.Samples[3] != 4 {
		t.Fatalf("unexpected samples: %v", decoded.Samples)
	}
}

func TestDecodeWAV_Float32(t *testing.T) {
	data := floatWAV([]float32{0, 1, -1, 0.5}, 16000)

	decoded, err := DecodeWAV(data)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	want := []int16{0, 32767, -32767, 16384}
	for i, w := range want {
		if decoded.Samples[i] != w {
			t.Fatalf("sample %d: got %d want %d", i, decoded.Samples[i], w)
		}
	}
}

func TestDecodeWAV_UnsupportedEncoding(t *testing.T) {
	data, _ := EncodeWAV(PCM{Samples: []int16{1, 2}, SampleRate: 8000, Channels: 1})
	binary.LittleEndian.PutUint16(data[20:], 2) // ADPCM
	_, err := DecodeWAV(data)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDecodeWAV_Garbage(t *testing.T) {
	if _, err := DecodeWAV([]byte("definitely not audio")); err == nil {
		t.Fatal("expected error for garbage input")
	}
}

func TestBlobConforms(t *testing.T) {
	canonical, _ := EncodeWAV(PCM{Samples: sineSamples(16000, 0.01), SampleRate: 16000, Channels: 1})
	if !(Blob{Data: canonical, Format: FormatWAV}).Conforms(RecognitionSpec) {
		t.Fatal("expected canonical wav to conform")
	}
	stereo, _ := EncodeWAV(PCM{Samples: sineSamples(16000, 0.01), SampleRate: 16000, Channels: 2})
	if (Blob{Data: stereo, Format: FormatWAV}).Conforms(RecognitionSpec) {
		t.Fatal("stereo wav must not conform to mono spec")
	}
	if (Blob{Data: canonical, Format: FormatOggOpus}).Conforms(RecognitionSpec) {
		t.Fatal("format tag mismatch must not conform")
	}
}

func TestBlobConforms_HeaderOnlyWAV(t *testing.T) {
	canonical, _ := EncodeWAV(PCM{Samples: sineSamples(16000, 0.01), SampleRate: 16000, Channels: 1})
	empty := append([]byte(nil), canonical[:wavHeaderSize]...)
	binary.LittleEndian.PutUint32(empty[4:8], 36)
	binary.LittleEndian.PutUint32(empty[40:44], 0)
	if (Blob{Data: empty, Format: FormatWAV}).Conforms(RecognitionSpec) {
		t.Fatal("wav without samples must not conform")
	}

	// Streaming header that promises data the buffer never delivers.
	truncated := append([]byte(nil), canonical[:wavHeaderSize+1]...)
	if (Blob{Data: truncated, Format: FormatWAV}).Conforms(RecognitionSpec) {
		t.Fatal("wav holding only a partial frame must not conform")
	}
}

func TestSniffAndFormatFromName(t *testing.T) {
	wav, _ := EncodeWAV(PCM{Samples: []int16{1}, SampleRate: 8000, Channels: 1})
	cases := []struct {
		data []byte
		want Format
	}{
		{wav, FormatWAV},
		{[]byte("OggS\x00\x02"), FormatOggOpus},
		{[]byte{0x1A, 0x45, 0xDF, 0xA3, 0x01}, FormatWebM},
		{[]byte("ID3\x04"), FormatMP3},
		{[]byte("nothing"), FormatUnknown},
	}
	for _, c := range cases {
		if got := Sniff(c.data); got != c.want {
			t.Fatalf("Sniff(%q) = %s, want %s", c.data, got, c.want)
		}
	}
	if got := FormatFromName("audio/ogg; codecs=opus"); got != FormatOggOpus {
		t.Fatalf("unexpected format for ogg mime: %s", got)
	}
	if got := FormatFromName("voice-message.webm"); got != FormatWebM {
		t.Fatalf("unexpected format for webm name: %s", got)
	}
}

func floatWAV(samples []float32, sampleRate int) []byte {
	dataSize := len(samples) * 4
	out := make([]byte, 0, wavHeaderSize+dataSize)
	out = append(out, "RIFF"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(36+dataSize))
	out = append(out, "WAVEfmt "...)
	out = binary.LittleEndian.AppendUint32(out, 16)
	out = binary.LittleEndian.AppendUint16(out, wavFormatFloat)
	out = binary.LittleEndian.AppendUint16(out, 1)
	out = binary.LittleEndian.AppendUint32(out, uint32(sampleRate))
	out = binary.LittleEndian.AppendUint32(out, uint32(sampleRate*4))
	out = binary.LittleEndian.AppendUint16(out, 4)
	out = binary.LittleEndian.AppendUint16(out, 32)
	out = append(out, "data"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(dataSize))
	for _, s := range samples {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(s))
	}
	return out
}
