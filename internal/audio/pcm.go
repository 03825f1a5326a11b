package audio

import "fmt"

// Downmix averages interleaved channels into mono.
func Downmix(p PCM) PCM {
	if p.Channels <= 1 {
		return p
	}
	frames := p.Frames()
	mono := make([]int16, frames)
	for f := 0; f < frames; f++ {
		var sum int32
		for c := 0; c < p.Channels; c++ {
			sum += int32(p.Samples[f*p.Channels+c])
		}
		mono[f] = clampPCM(sum / int32(p.Channels))
	}
	return PCM{Samples: mono, SampleRate: p.SampleRate, Channels: 1}
}

// Resample converts mono samples between rates with linear interpolation.
func Resample(samples []int16, from, to int) []int16 {
	if from == to || len(samples) == 0 || from <= 0 || to <= 0 {
		return samples
	}
	outLen := int(int64(len(samples)) * int64(to) / int64(from))
	if outLen == 0 {
		outLen = 1
	}
	out := make([]int16, outLen)
	step := float64(from) / float64(to)
	last := len(samples) - 1
	for i := range out {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= last {
			out[i] = samples[last]
			continue
		}
		frac := pos - float64(idx)
		a := float64(samples[idx])
		b := float64(samples[idx+1])
		out[i] = clampPCM(int32(a + (b-a)*frac))
	}
	return out
}

// Conform downmixes and resamples p to the layout in s.
func Conform(p PCM, s Spec) (PCM, error) {
	if s.Channels != 1 {
		return PCM{}, fmt.Errorf("%w: only mono targets are supported, got %d channels", ErrUnsupportedFormat, s.Channels)
	}
	if s.BitDepth != 0 && s.BitDepth != canonicalBitDepth {
		return PCM{}, fmt.Errorf("%w: only 16-bit targets are supported, got %d", ErrUnsupportedFormat, s.BitDepth)
	}
	mono := Downmix(p)
	return PCM{
		Samples:    Resample(mono.Samples, mono.SampleRate, s.SampleRate),
		SampleRate: s.SampleRate,
		Channels:   1,
	}, nil
}

// Encode packages p in the container named by s.
func Encode(p PCM, s Spec) (Blob, error) {
	switch s.Format {
	case FormatWAV:
		b, err := EncodeWAV(p)
		if err != nil {
			return Blob{}, err
		}
		return Blob{Data: b, Format: FormatWAV, SampleRate: p.SampleRate, Channels: p.Channels}, nil
	case FormatPCM16:
		return Blob{Data: SamplesToBytes(p.Samples), Format: FormatPCM16, SampleRate: p.SampleRate, Channels: p.Channels}, nil
	default:
		return Blob{}, fmt.Errorf("%w: cannot encode %s", ErrUnsupportedFormat, s.Format)
	}
}

func clampPCM(v int32) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
