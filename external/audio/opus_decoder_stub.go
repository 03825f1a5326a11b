//go:build !opus

package audio

import (
	"fmt"

	"github.com/foxseedlab/hatsuon/internal/audio"
)

func decodeOggOpus(_ []byte) (audio.PCM, error) {
	return audio.PCM{}, fmt.Errorf("%w: built without libopus", audio.ErrUnsupportedFormat)
}
