package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	oggPageHeaderSize = 27
	opusHeadMinSize   = 19
	opusSampleRate    = 48000
)

var errOggCorrupt = errors.New("corrupt ogg stream")

type opusHead struct {
	channels int
	preSkip  int
}

// demuxOgg reassembles the packets of the first logical bitstream.
func demuxOgg(data []byte) ([][]byte, error) {
	var (
		packets [][]byte
		partial []byte
		serial  uint32
		locked  bool
	)
	pos := 0
	for pos < len(data) {
		if pos+oggPageHeaderSize > len(data) {
			return nil, fmt.Errorf("%w: truncated page header at %d", errOggCorrupt, pos)
		}
		if string(data[pos:pos+4]) != "OggS" {
			return nil, fmt.Errorf("%w: missing capture pattern at %d", errOggCorrupt, pos)
		}
		pageSerial := binary.LittleEndian.Uint32(data[pos+14:])
		nSegs := int(data[pos+26])
		lacingStart := pos + oggPageHeaderSize
		if lacingStart+nSegs > len(data) {
			return nil, fmt.Errorf("%w: truncated lacing table at %d", errOggCorrupt, pos)
		}
		lacing := data[lacingStart : lacingStart+nSegs]
		body := lacingStart + nSegs
		bodySize := 0
		for _, l := range lacing {
			bodySize += int(l)
		}
		if body+bodySize > len(data) {
			return nil, fmt.Errorf("%w: truncated page body at %d", errOggCorrupt, pos)
		}
		if !locked {
			serial = pageSerial
			locked = true
		}
		if pageSerial == serial {
			off := body
			for _, l := range lacing {
				partial = append(partial, data[off:off+int(l)]...)
				off += int(l)
				if l < 255 {
					packets = append(packets, partial)
					partial = nil
				}
			}
		}
		pos = body + bodySize
	}
	if len(packets) == 0 {
		return nil, fmt.Errorf("%w: no packets", errOggCorrupt)
	}
	return packets, nil
}

func parseOpusHead(p []byte) (opusHead, error) {
	if len(p) < opusHeadMinSize || string(p[:8]) != "OpusHead" {
		return opusHead{}, fmt.Errorf("%w: first packet is not OpusHead", errOggCorrupt)
	}
	channels := int(p[9])
	if channels < 1 || channels > 2 {
		return opusHead{}, fmt.Errorf("%w: unsupported opus channel count %d", errOggCorrupt, channels)
	}
	return opusHead{
		channels: channels,
		preSkip:  int(binary.LittleEndian.Uint16(p[10:12])),
	}, nil
}

// splitOggOpus returns the stream header and the audio packets following OpusTags.
func splitOggOpus(data []byte) (opusHead, [][]byte, error) {
	packets, err := demuxOgg(data)
	if err != nil {
		return opusHead{}, nil, err
	}
	head, err := parseOpusHead(packets[0])
	if err != nil {
		return opusHead{}, nil, err
	}
	audioPackets := packets[1:]
	if len(audioPackets) > 0 && len(audioPackets[0]) >= 8 && string(audioPackets[0][:8]) == "OpusTags" {
		audioPackets = audioPackets[1:]
	}
	if len(audioPackets) == 0 {
		return opusHead{}, nil, fmt.Errorf("%w: no audio packets", errOggCorrupt)
	}
	return head, audioPackets, nil
}
