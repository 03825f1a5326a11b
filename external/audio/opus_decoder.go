//go:build opus

package audio

import (
	"fmt"

	"github.com/foxseedlab/hatsuon/internal/audio"
	"github.com/hraban/opus"
)

// 120 ms at 48 kHz is the largest frame an Opus packet can carry.
const maxOpusFrameSamples = 5760

func decodeOggOpus(data []byte) (audio.PCM, error) {
	head, packets, err := splitOggOpus(data)
	if err != nil {
		return audio.PCM{}, fmt.Errorf("%w: %v", audio.ErrDecodeFailure, err)
	}
	dec, err := opus.NewDecoder(opusSampleRate, head.channels)
	if err != nil {
		return audio.PCM{}, fmt.Errorf("%w: create opus decoder: %v", audio.ErrDecodeFailure, err)
	}
	frame := make([]int16, maxOpusFrameSamples*head.channels)
	samples := make([]int16, 0, len(packets)*960*head.channels)
	for i, packet := range packets {
		if len(packet) == 0 {
			continue
		}
		n, err := dec.Decode(packet, frame)
		if err != nil {
			return audio.PCM{}, fmt.Errorf("%w: decode opus packet %d: %v", audio.ErrDecodeFailure, i, err)
		}
		samples = append(samples, frame[:n*head.channels]...)
	}
	skip := head.preSkip * head.channels
	if skip >= len(samples) {
		return audio.PCM{}, fmt.Errorf("%w: opus stream holds no audio after pre-skip", audio.ErrDecodeFailure)
	}
	return audio.PCM{Samples: samples[skip:], SampleRate: opusSampleRate, Channels: head.channels}, nil
}
