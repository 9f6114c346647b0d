package transcribe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Whisper transcribes audio with a locally installed whisper runtime.
type Whisper struct {
	model  string
	runner commandRunner
}

// NewWhisper creates the local runtime backend using the given model size.
func NewWhisper(model string) *Whisper {
	if strings.TrimSpace(model) == "" {
		model = "base"
	}
	return &Whisper{model: model}
}

// WithCommandRunner sets a custom command runner (for testing).
func (b *Whisper) WithCommandRunner(runner commandRunner) {
	b.runner = runner
}

func (b *Whisper) Name() string { return "whisper" }

func (b *Whisper) Available() bool {
	_, err := exec.LookPath("whisper")
	return err == nil
}

func (b *Whisper) Transcribe(ctx context.Context, path, language string) (string, error) {
	outputDir, err := os.MkdirTemp("", "podscribe-whisper-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(outputDir)

	args := []string{
		path,
		"--model", b.model,
		"--output_format", "txt",
		"--output_dir", outputDir,
		"--fp16", "False",
	}
	if language != "" {
		args = append(args, "--language", language)
	}
	if err := b.run(ctx, "whisper", args...); err != nil {
		return "", err
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	data, err := os.ReadFile(filepath.Join(outputDir, base+".txt"))
	if err != nil {
		return "", fmt.Errorf("read whisper output: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (b *Whisper) run(ctx context.Context, name string, args ...string) error {
	if b.runner != nil {
		return b.runner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
