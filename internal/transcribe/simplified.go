package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
)

// Simplified is the no-op fallback backend. It never fails: instead of a
// transcript it returns a structured placeholder describing the audio file
// and how to enable real transcription, so the pipeline always terminates
// successfully even with zero configured transcription capability.
type Simplified struct{}

// NewSimplified creates the fallback backend.
func NewSimplified() *Simplified { return &Simplified{} }

func (b *Simplified) Name() string { return "simplified" }

func (b *Simplified) Available() bool { return true }

func (b *Simplified) Transcribe(_ context.Context, path, _ string) (string, error) {
	size := "unknown"
	if info, err := os.Stat(path); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}

	return fmt.Sprintf(`# Audio Pending Transcription

**File**: %s
**Size**: %s

No transcription backend was available, so the audio was saved without a
transcript.

To enable transcription:

- Set OPENAI_API_KEY in the environment to use the Whisper API.
- Install the whisper runtime (pip install openai-whisper) for local
  transcription.
- Or build whisper.cpp and download a ggml model for CPU-only
  transcription, then point transcription settings at the binary and
  model file.
`, filepath.Base(path), size), nil
}
