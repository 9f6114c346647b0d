// Package transcribe converts downloaded audio into text by trying an
// ordered list of backends, each probed once for availability.
//
// Backends:
//   - openai: Whisper API (requires an API key)
//   - whisper: local whisper runtime (requires the whisper executable)
//   - whispercpp: whisper.cpp (requires the binary and a ggml model file)
//   - simplified: placeholder output, always available
package transcribe

import "context"

// Backend is one concrete mechanism for producing text from audio.
type Backend interface {
	// Name identifies the backend in results and configuration.
	Name() string
	// Available reports whether the backend's preconditions are
	// satisfied. It must not panic; probing happens once at orchestrator
	// construction.
	Available() bool
	// Transcribe converts the audio file at path to plain text. The
	// language hint may be empty.
	Transcribe(ctx context.Context, path, language string) (string, error)
}

// commandRunner abstracts external process execution for testing.
type commandRunner func(ctx context.Context, name string, args ...string) error
