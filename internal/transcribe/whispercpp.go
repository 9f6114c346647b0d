package transcribe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// WhisperCpp transcribes audio with the whisper.cpp binary, running purely
// on CPU against a pre-fetched ggml model file.
type WhisperCpp struct {
	binary string
	model  string
	runner commandRunner
}

// NewWhisperCpp creates the compiled-binary backend.
func NewWhisperCpp(binary, model string) *WhisperCpp {
	if strings.TrimSpace(binary) == "" {
		binary = "whisper-cpp"
	}
	return &WhisperCpp{binary: binary, model: model}
}

// WithCommandRunner sets a custom command runner (for testing).
func (b *WhisperCpp) WithCommandRunner(runner commandRunner) {
	b.runner = runner
}

func (b *WhisperCpp) Name() string { return "whispercpp" }

func (b *WhisperCpp) Available() bool {
	if strings.ContainsRune(b.binary, os.PathSeparator) {
		if _, err := os.Stat(b.binary); err != nil {
			return false
		}
	} else if _, err := exec.LookPath(b.binary); err != nil {
		return false
	}
	if b.model == "" {
		return false
	}
	_, err := os.Stat(b.model)
	return err == nil
}

func (b *WhisperCpp) Transcribe(ctx context.Context, path, language string) (string, error) {
	outputDir, err := os.MkdirTemp("", "podscribe-whispercpp-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(outputDir)

	prefix := filepath.Join(outputDir, "transcript")
	args := []string{
		"-m", b.model,
		"-f", path,
		"-otxt",
		"-of", prefix,
	}
	if language != "" {
		args = append(args, "-l", language)
	}
	if err := b.run(ctx, b.binary, args...); err != nil {
		return "", err
	}

	data, err := os.ReadFile(prefix + ".txt")
	if err != nil {
		return "", fmt.Errorf("read whisper.cpp output: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (b *WhisperCpp) run(ctx context.Context, name string, args ...string) error {
	if b.runner != nil {
		return b.runner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
