package synthesis

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/foxseedlab/hatsuon/internal/audio"
	"github.com/foxseedlab/hatsuon/internal/synthesis"
)

type Espeak struct {
	binary string
	voice  string
}

func NewEspeak(binary, voice string) *Espeak {
	if binary == "" {
		binary = "espeak-ng"
	}
	if voice == "" {
		voice = "en-gb"
	}
	return &Espeak{binary: binary, voice: voice}
}

func (e *Espeak) Name() string {
	return "espeak"
}

func (e *Espeak) Available(context.Context) bool {
	_, err := exec.LookPath(e.binary)
	return err == nil
}

func (e *Espeak) Synthesize(ctx context.Context, text string) (audio.Blob, error) {
	cmd := exec.CommandContext(ctx, e.binary, "-q", "-v", e.voice, "--stdout", "--stdin")
	cmd.Stdin = strings.NewReader(text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return audio.Blob{}, fmt.Errorf("%w: %s failed: %v: %s", synthesis.ErrEngine, e.binary, err, strings.TrimSpace(stderr.String()))
	}
	return audio.Blob{Data: stdout.Bytes(), Format: audio.FormatWAV}, nil
}
