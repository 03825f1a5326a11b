package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/foxseedlab/hatsuon/internal/audio"
)

// decodeWithFFmpeg converts any container ffmpeg understands into mono PCM16 WAV
// at sampleRate. The scratch directory is removed before returning.
func decodeWithFFmpeg(ctx context.Context, binary string, in audio.Blob, sampleRate int) (audio.PCM, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return audio.PCM{}, fmt.Errorf("%w: no decoder for %s (ffmpeg not found)", audio.ErrUnsupportedFormat, in.Format)
	}

	dir, err := os.MkdirTemp("", "hatsuon-transcode-*")
	if err != nil {
		return audio.PCM{}, fmt.Errorf("%w: create temp dir: %v", audio.ErrDecodeFailure, err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("failed to remove transcode temp dir", "dir", dir, "error", err)
		}
	}()

	inputPath := filepath.Join(dir, "input"+in.Format.Extension())
	outputPath := filepath.Join(dir, "output.wav")
	if err := os.WriteFile(inputPath, in.Data, 0o600); err != nil {
		return audio.PCM{}, fmt.Errorf("%w: write temp input: %v", audio.ErrDecodeFailure, err)
	}

	args := []string{"-hide_banner", "-loglevel", "error"}
	if in.Format == audio.FormatPCM16 {
		args = append(args, "-f", "s16le", "-ar", strconv.Itoa(in.SampleRate), "-ac", strconv.Itoa(in.Channels))
	}
	args = append(args,
		"-i", inputPath,
		"-vn",
		"-ac", "1",
		"-ar", strconv.Itoa(sampleRate),
		"-c:a", "pcm_s16le",
		"-f", "wav",
		"-y", outputPath,
	)
	slog.Debug("running ffmpeg transcode", "format", in.Format, "input_bytes", len(in.Data), "sample_rate", sampleRate)
	cmd := exec.CommandContext(ctx, path, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return audio.PCM{}, fmt.Errorf("%w: ffmpeg failed: %v\n%s", audio.ErrDecodeFailure, err, string(out))
	}

	wav, err := os.ReadFile(outputPath)
	if err != nil {
		return audio.PCM{}, fmt.Errorf("%w: read ffmpeg output: %v", audio.ErrDecodeFailure, err)
	}
	pcm, err := audio.DecodeWAV(wav)
	if err != nil {
		return audio.PCM{}, fmt.Errorf("%w: parse ffmpeg output: %v", audio.ErrDecodeFailure, err)
	}
	return pcm, nil
}
