// Package ledger is the persistent idempotency store preventing duplicate
// ingestion of the same episode.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"podscribe/internal/domain"
)

// ErrNoSuchEpisode reports a completion update for an audio URL that was
// never marked processing. Soft: callers log it and continue.
var ErrNoSuchEpisode = errors.New("no ledger entry for audio url")

// Ledger records, per audio URL, whether ingestion has completed.
type Ledger struct {
	db *sql.DB
}

// New wraps the shared database handle.
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// IsCompleted reports whether a row with this exact audio URL exists with
// status completed. Any other status, including a missing row, returns
// false and ingestion will be retried.
func (l *Ledger) IsCompleted(ctx context.Context, audioURL string) (bool, error) {
	if audioURL == "" {
		return false, nil
	}
	var count int
	err := l.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM processed_episodes WHERE audio_url = ? AND status = ?",
		audioURL, domain.StatusCompleted).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query ledger: %w", err)
	}
	return count > 0, nil
}

// MarkProcessing upserts a processing row keyed by audio URL. An existing
// row for the same URL is left untouched so a completed record is never
// overwritten.
func (l *Ledger) MarkProcessing(ctx context.Context, entry domain.LedgerEntry) error {
	_, err := l.db.ExecContext(ctx, `INSERT INTO processed_episodes
(podcast_name, episode_title, audio_url, audio_path, status, processed_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(audio_url) DO NOTHING`,
		entry.PodcastName, entry.EpisodeTitle, entry.AudioURL, entry.AudioPath,
		domain.StatusProcessing, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("mark processing %s: %w", entry.AudioURL, err)
	}
	return nil
}

// MarkCompleted transitions the row for the audio URL to completed,
// recording the output path and a fresh completion timestamp.
func (l *Ledger) MarkCompleted(ctx context.Context, audioURL, outputPath string, transcriptLen int) error {
	res, err := l.db.ExecContext(ctx, `UPDATE processed_episodes
SET status = ?, output_path = ?, transcript_length = ?, completed_at = ?
WHERE audio_url = ?`,
		domain.StatusCompleted, outputPath, transcriptLen, time.Now().UTC().Format(time.RFC3339Nano), audioURL)
	if err != nil {
		return fmt.Errorf("mark completed %s: %w", audioURL, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNoSuchEpisode, audioURL)
	}
	return nil
}

// MarkFailed records an ingestion failure for the audio URL. Missing rows
// are reported the same way as MarkCompleted.
func (l *Ledger) MarkFailed(ctx context.Context, audioURL string) error {
	res, err := l.db.ExecContext(ctx,
		"UPDATE processed_episodes SET status = ? WHERE audio_url = ? AND status != ?",
		domain.StatusFailed, audioURL, domain.StatusCompleted)
	if err != nil {
		return fmt.Errorf("mark failed %s: %w", audioURL, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNoSuchEpisode, audioURL)
	}
	return nil
}

// History returns recent completed entries, newest first.
func (l *Ledger) History(ctx context.Context, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := l.db.QueryContext(ctx, `SELECT podcast_name, episode_title, audio_url,
COALESCE(audio_path, ''), status, COALESCE(output_path, ''), COALESCE(transcript_length, 0),
processed_at, completed_at
FROM processed_episodes
WHERE status = ?
ORDER BY completed_at DESC
LIMIT ?`, domain.StatusCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.LedgerEntry, 0, limit)
	for rows.Next() {
		var entry domain.LedgerEntry
		var processed, completed sql.NullString
		if err := rows.Scan(&entry.PodcastName, &entry.EpisodeTitle, &entry.AudioURL,
			&entry.AudioPath, &entry.Status, &entry.OutputPath, &entry.TranscriptLen,
			&processed, &completed); err != nil {
			return nil, err
		}
		if processed.Valid {
			if parsed, ok := parseStoredTime(processed.String); ok {
				entry.ProcessedAt = parsed
			}
		}
		if completed.Valid {
			if parsed, ok := parseStoredTime(completed.String); ok {
				entry.CompletedAt = &parsed
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func parseStoredTime(value string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05.999999999-07:00"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
