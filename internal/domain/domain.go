package domain

import "time"

// Ledger entry lifecycle states.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// FeedMetadata describes a podcast feed as parsed from one fetch. It is
// never mutated after parsing.
type FeedMetadata struct {
	Title       string
	Description string
	Link        string
	Language    string
	Author      string
	ImageURL    string
	Platform    string
	FeedURL     string
}

// Enclosure is a raw media attachment declared by a feed entry.
type Enclosure struct {
	URL    string
	Type   string
	Length int64
}

// EpisodeRecord is one normalized feed entry. Records are created per feed
// fetch and discarded after the caller finishes with the batch.
type EpisodeRecord struct {
	ID          string
	Title       string
	Description string
	PublishedAt *time.Time
	AudioURL    string
	Duration    string
	Number      *int
	Link        string
	Author      string
	GUID        string
	FeedURL     string
	Enclosures  []Enclosure
}

// DownloadResult reports a completed audio fetch. The caller owns the file
// at Path once the result is handed over.
type DownloadResult struct {
	Path     string
	Size     int64
	URL      string
	Strategy string
	Warning  string
}

// TranscriptionResult is the text produced for one audio file.
type TranscriptionResult struct {
	Text    string
	Backend string
	Chars   int
}

// LedgerEntry is one row of the idempotency ledger, keyed by audio URL.
type LedgerEntry struct {
	PodcastName   string
	EpisodeTitle  string
	AudioURL      string
	AudioPath     string
	Status        string
	OutputPath    string
	TranscriptLen int
	ProcessedAt   time.Time
	CompletedAt   *time.Time
}

// Subscription is a named feed the user has registered.
type Subscription struct {
	ID          int64
	Name        string
	FeedURL     string
	Enabled     bool
	LastChecked *time.Time
}
