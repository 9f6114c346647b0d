// Package pipeline runs episode ingestion start to finish: parse the
// feed, skip already-completed episodes, fetch audio, transcribe and
// write the note. Episodes are processed one at a time; a failure is
// fatal to that episode only, never to the batch.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"podscribe/internal/domain"
	"podscribe/internal/fetch"
	"podscribe/internal/ledger"
	"podscribe/internal/transcribe"
)

type FeedParser interface {
	Parse(ctx context.Context, feedURL string) (domain.FeedMetadata, []domain.EpisodeRecord, error)
}

type AudioFetcher interface {
	Fetch(ctx context.Context, url string, hints fetch.Hints) (domain.DownloadResult, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, hints transcribe.Hints) (domain.TranscriptionResult, error)
}

type NoteWriter interface {
	Write(podcastName string, episode domain.EpisodeRecord, result domain.TranscriptionResult) (string, error)
}

type Store interface {
	IsCompleted(ctx context.Context, audioURL string) (bool, error)
	MarkProcessing(ctx context.Context, entry domain.LedgerEntry) error
	MarkCompleted(ctx context.Context, audioURL, outputPath string, transcriptLen int) error
	MarkFailed(ctx context.Context, audioURL string) error
}

// Summary reports the outcome of one feed run.
type Summary struct {
	Feed      domain.FeedMetadata
	Processed int
	Skipped   int
	Failed    int
	NotePaths []string
}

// Pipeline wires the ingestion stages together.
type Pipeline struct {
	parser      FeedParser
	fetcher     AudioFetcher
	transcriber Transcriber
	notes       NoteWriter
	store       Store
}

func New(parser FeedParser, fetcher AudioFetcher, transcriber Transcriber, notes NoteWriter, store Store) *Pipeline {
	return &Pipeline{
		parser:      parser,
		fetcher:     fetcher,
		transcriber: transcriber,
		notes:       notes,
		store:       store,
	}
}

// ProcessFeed ingests up to limit episodes from the feed, newest first.
// podcastName may be empty, in which case the parsed feed title is used.
func (p *Pipeline) ProcessFeed(ctx context.Context, podcastName, feedURL string, limit int) (Summary, error) {
	meta, episodes, err := p.parser.Parse(ctx, feedURL)
	if err != nil {
		return Summary{}, err
	}
	if podcastName == "" {
		podcastName = meta.Title
	}
	if limit > 0 && len(episodes) > limit {
		episodes = episodes[:limit]
	}

	summary := Summary{Feed: meta}
	for _, episode := range episodes {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := p.processEpisode(ctx, podcastName, episode, &summary); err != nil {
			log.Printf("episode %q (%s) failed: %v", episode.Title, episode.AudioURL, err)
			summary.Failed++
		}
	}
	return summary, nil
}

func (p *Pipeline) processEpisode(ctx context.Context, podcastName string, episode domain.EpisodeRecord, summary *Summary) error {
	if episode.AudioURL == "" {
		log.Printf("episode %q has no audio url, skipping", episode.Title)
		summary.Skipped++
		return nil
	}

	done, err := p.store.IsCompleted(ctx, episode.AudioURL)
	if err != nil {
		return fmt.Errorf("ledger lookup: %w", err)
	}
	if done {
		log.Printf("episode %q already completed, skipping", episode.Title)
		summary.Skipped++
		return nil
	}

	if err := p.store.MarkProcessing(ctx, domain.LedgerEntry{
		PodcastName:  podcastName,
		EpisodeTitle: episode.Title,
		AudioURL:     episode.AudioURL,
	}); err != nil {
		return err
	}

	download, err := p.fetcher.Fetch(ctx, episode.AudioURL, fetch.Hints{
		PodcastName:  podcastName,
		EpisodeTitle: episode.Title,
	})
	if err != nil {
		p.markFailed(ctx, episode.AudioURL)
		return fmt.Errorf("fetch audio: %w", err)
	}

	result, err := p.transcriber.Transcribe(ctx, download.Path, transcribe.Hints{
		PodcastName:  podcastName,
		EpisodeTitle: episode.Title,
	})
	if err != nil {
		p.markFailed(ctx, episode.AudioURL)
		return fmt.Errorf("transcribe: %w", err)
	}

	notePath, err := p.notes.Write(podcastName, episode, result)
	if err != nil {
		p.markFailed(ctx, episode.AudioURL)
		return fmt.Errorf("write note: %w", err)
	}

	// Placeholder transcripts carry no audio value; remove the file once
	// the note exists. Real transcripts leave the audio on disk for the
	// explicit purge to reclaim later.
	if result.Backend == "simplified" {
		if err := os.Remove(download.Path); err != nil {
			log.Printf("remove placeholder audio %s: %v", download.Path, err)
		}
	}

	if err := p.store.MarkCompleted(ctx, episode.AudioURL, notePath, result.Chars); err != nil {
		if errors.Is(err, ledger.ErrNoSuchEpisode) {
			log.Printf("mark completed: %v", err)
		} else {
			return err
		}
	}

	summary.Processed++
	summary.NotePaths = append(summary.NotePaths, notePath)
	return nil
}

func (p *Pipeline) markFailed(ctx context.Context, audioURL string) {
	if err := p.store.MarkFailed(ctx, audioURL); err != nil {
		log.Printf("mark failed %s: %v", audioURL, err)
	}
}
