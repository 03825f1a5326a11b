package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/foxseedlab/hatsuon/internal/audio"
)

// FileSink writes playback audio to a file, replacing it atomically.
type FileSink struct {
	path string
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) Play(_ context.Context, waveform audio.Blob) error {
	if waveform.Empty() {
		return fmt.Errorf("no audio to write")
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".hatsuon-*"+waveform.Format.Extension())
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write(waveform.Data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write audio: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close audio file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("move audio into place: %w", err)
	}
	slog.Info("playback audio written", "path", s.path, "bytes", len(waveform.Data))
	return nil
}
