package transcribe

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"podscribe/internal/config"
	"podscribe/internal/domain"
)

// Error reports that every backend in the attempt order failed. With the
// simplified fallback in place this is unreachable in practice.
type Error struct {
	Path   string
	Causes []error
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Causes))
	for _, cause := range e.Causes {
		msgs = append(msgs, cause.Error())
	}
	return fmt.Sprintf("all transcription backends failed for %s: %s", e.Path, strings.Join(msgs, "; "))
}

// Hints carries naming context and an optional language override for one
// transcription call. The language never affects backend selection.
type Hints struct {
	PodcastName  string
	EpisodeTitle string
	Language     string
}

// Orchestrator tries transcription backends in order until one succeeds.
type Orchestrator struct {
	language string
	backends []Backend
}

// New builds an orchestrator from candidate backends. Availability is
// probed here, once; unavailable backends are excluded from the attempt
// order. The preferred backend goes first, the rest keep the given
// priority order. Callers pass the always-available fallback last.
func New(preferred, language string, candidates ...Backend) *Orchestrator {
	ordered := make([]Backend, 0, len(candidates))
	for _, backend := range candidates {
		if backend.Name() == preferred && backend.Available() {
			ordered = append(ordered, backend)
		}
	}
	for _, backend := range candidates {
		if backend.Name() == preferred {
			continue
		}
		if backend.Available() {
			ordered = append(ordered, backend)
		}
	}
	return &Orchestrator{language: language, backends: ordered}
}

// ForConfig assembles the standard backend set. The http client is used by
// the remote API backend.
func ForConfig(cfg config.Config, secrets config.Secrets, client *http.Client) *Orchestrator {
	return New(cfg.PreferredBackend, cfg.Language,
		NewOpenAI(client, "", secrets.OpenAIKey, cfg.OpenAIModel),
		NewWhisper(cfg.WhisperModel),
		NewWhisperCpp(cfg.WhisperCppBinary, cfg.WhisperCppModel),
		NewSimplified(),
	)
}

// Backends returns the names of the attempt order, for diagnostics.
func (o *Orchestrator) Backends() []string {
	names := make([]string, 0, len(o.backends))
	for _, backend := range o.backends {
		names = append(names, backend.Name())
	}
	return names
}

// Transcribe runs the attempt order against the audio file, stopping at
// the first success. A failing backend is logged and the next candidate
// tried; there are no retries within a backend.
func (o *Orchestrator) Transcribe(ctx context.Context, audioPath string, hints Hints) (domain.TranscriptionResult, error) {
	language := hints.Language
	if language == "" {
		language = o.language
	}

	var causes []error
	for _, backend := range o.backends {
		if err := ctx.Err(); err != nil {
			return domain.TranscriptionResult{}, err
		}
		text, err := backend.Transcribe(ctx, audioPath, language)
		if err != nil {
			log.Printf("transcription backend %s failed for %s: %v", backend.Name(), audioPath, err)
			causes = append(causes, fmt.Errorf("%s: %w", backend.Name(), err))
			continue
		}
		return domain.TranscriptionResult{
			Text:    text,
			Backend: backend.Name(),
			Chars:   utf8.RuneCountInString(text),
		}, nil
	}

	return domain.TranscriptionResult{}, &Error{Path: audioPath, Causes: causes}
}
