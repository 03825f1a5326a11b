package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	audioimpl "github.com/foxseedlab/hatsuon/external/audio"
	"github.com/foxseedlab/hatsuon/internal/audio"
	"github.com/foxseedlab/hatsuon/internal/pipeline"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

var errConversionFailed = errors.New("conversion failed")

type convertOptions struct {
	text    string
	audio   string
	format  string
	out     string
	noAudio bool
}

func newConvertCmd(root *rootOptions) *cobra.Command {
	opts := &convertOptions{}
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert one sentence or recording to IPA",
		Long: `Convert a typed sentence (--text) or a recording (--audio) into IPA.
When both are given the recording is used. The IPA is read back by the first
available speech backend and written to --out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := opts.input()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			injector := setupDI(cfg)
			defer shutdown(injector)

			orch, err := do.Invoke[*pipeline.Orchestrator](injector)
			if err != nil {
				return fmt.Errorf("resolve pipeline: %w", err)
			}
			run, err := orch.Run(cmd.Context(), in)
			if errors.Is(err, pipeline.ErrInputMissing) {
				return errors.New(pipeline.Message(pipeline.KindInputMissing))
			}
			if err != nil {
				return err
			}
			return opts.report(cmd, run)
		},
	}
	cmd.Flags().StringVarP(&opts.text, "text", "t", "", "sentence to convert")
	cmd.Flags().StringVarP(&opts.audio, "audio", "a", "", "recording to convert (wav, ogg/opus, or anything ffmpeg reads)")
	cmd.Flags().StringVar(&opts.format, "format", "", "recording format when the file name and contents are ambiguous")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "hatsuon.wav", "where to write the spoken IPA")
	cmd.Flags().BoolVar(&opts.noAudio, "no-audio", false, "only print the IPA")
	return cmd
}

func (o *convertOptions) input() (pipeline.Input, error) {
	in := pipeline.TextInput(o.text)
	if o.audio != "" {
		blob, err := readAudioFile(o.audio, o.format)
		if err != nil {
			return pipeline.Input{}, err
		}
		in = pipeline.AudioInput(blob)
		in.Text = o.text
	}
	in.Source = "cli"
	in.SkipSynthesis = o.noAudio
	return in, nil
}

func (o *convertOptions) report(cmd *cobra.Command, run *pipeline.Run) error {
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), pipeline.Summary(run)); err != nil {
		return err
	}
	if run.Synthesis != nil {
		if err := audioimpl.NewFileSink(o.out).Play(cmd.Context(), run.Synthesis.Audio); err != nil {
			return fmt.Errorf("write spoken ipa: %w", err)
		}
	}
	if run.Failure != nil && !run.PartialSuccess() {
		slog.Debug("conversion failed", "run_id", run.ID, "stage", run.Failure.Stage, "kind", run.Failure.Kind)
		return fmt.Errorf("%w: %s", errConversionFailed, run.Failure.Kind)
	}
	return nil
}

func readAudioFile(path, format string) (audio.Blob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return audio.Blob{}, fmt.Errorf("read recording: %w", err)
	}
	return audio.Blob{Data: data, Format: detectFormat(path, format, data)}, nil
}

// detectFormat prefers the explicit flag, then the file name, then magic bytes.
func detectFormat(path, flag string, data []byte) audio.Format {
	if flag = strings.TrimPrefix(strings.TrimSpace(flag), "."); flag != "" {
		if f := audio.FormatFromName("recording." + flag); f != audio.FormatUnknown {
			return f
		}
	}
	if f := audio.FormatFromName(path); f != audio.FormatUnknown {
		return f
	}
	return audio.Sniff(data)
}
