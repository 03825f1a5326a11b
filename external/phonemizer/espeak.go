package phonemizer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

const defaultEspeakBinary = "espeak-ng"

// EspeakEngine shells out to espeak-ng in IPA mode.
type EspeakEngine struct {
	binary string
}

func NewEspeakEngine(binary string) *EspeakEngine {
	if binary == "" {
		binary = defaultEspeakBinary
	}
	return &EspeakEngine{binary: binary}
}

func (e *EspeakEngine) Name() string {
	return "espeak"
}

func (e *EspeakEngine) Phonemize(ctx context.Context, text, language string) (string, error) {
	path, err := exec.LookPath(e.binary)
	if err != nil {
		return "", fmt.Errorf("%s not found: %w", e.binary, err)
	}
	cmd := exec.CommandContext(ctx, path, "-q", "--ipa", "-b", "1", "-v", language, "--stdin")
	cmd.Stdin = strings.NewReader(text)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed: %w: %s", e.binary, err, strings.TrimSpace(stderr.String()))
	}
	// espeak prints one line per clause.
	return strings.Join(strings.Fields(stdout.String()), " "), nil
}

func (e *EspeakEngine) Check(ctx context.Context, language string) error {
	out, err := e.Phonemize(ctx, "test", language)
	if err != nil {
		return err
	}
	if out == "" {
		return fmt.Errorf("%s produced no output for voice %s", e.binary, language)
	}
	return nil
}
