package feeds

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"podscribe/internal/domain"
)

// ErrFeedEmpty reports a syntactically valid feed with zero entries.
var ErrFeedEmpty = errors.New("feed has no entries")

// UnreachableError reports a feed that could not be fetched or parsed,
// including after the browser user-agent retry.
type UnreachableError struct {
	URL string
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("feed unreachable: %s: %v", e.URL, e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// Parser fetches and normalizes podcast RSS/Atom feeds.
type Parser struct {
	client    *http.Client
	userAgent string
	policy    *bluemonday.Policy
}

// NewParser creates a feed parser. The user agent is used for the retry
// fetch when the initial parse fails; hosts that block non-browser clients
// often serve a clean document to it.
func NewParser(client *http.Client, userAgent string) *Parser {
	if client == nil {
		client = http.DefaultClient
	}
	return &Parser{
		client:    client,
		userAgent: userAgent,
		policy:    bluemonday.StrictPolicy(),
	}
}

// Parse retrieves the feed at the given URL (or local file path) and
// returns its metadata together with episode records sorted newest-first.
func (p *Parser) Parse(ctx context.Context, feedURL string) (domain.FeedMetadata, []domain.EpisodeRecord, error) {
	feed, err := p.load(ctx, feedURL)
	if err != nil {
		return domain.FeedMetadata{}, nil, &UnreachableError{URL: feedURL, Err: err}
	}
	if len(feed.Items) == 0 {
		return domain.FeedMetadata{}, nil, fmt.Errorf("%w: %s", ErrFeedEmpty, feedURL)
	}

	meta := p.feedMetadata(feed, feedURL)
	episodes := p.extractEpisodes(feed, feedURL)

	// Newest first; entries without a parseable timestamp keep their feed
	// order at the end.
	sort.SliceStable(episodes, func(i, j int) bool {
		a, b := episodes[i].PublishedAt, episodes[j].PublishedAt
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})

	return meta, episodes, nil
}

func (p *Parser) load(ctx context.Context, src string) (*gofeed.Feed, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		data, err := os.ReadFile(strings.TrimPrefix(src, "file://"))
		if err != nil {
			return nil, err
		}
		return gofeed.NewParser().ParseString(string(data))
	}

	gp := gofeed.NewParser()
	gp.Client = p.client
	feed, err := gp.ParseURLWithContext(src, ctx)
	if err == nil {
		return feed, nil
	}

	// Some hosts return malformed or blocked responses to non-browser
	// clients. Refetch once with a browser user agent and re-parse.
	body, fetchErr := p.fetchRaw(ctx, src)
	if fetchErr != nil {
		return nil, fmt.Errorf("parse: %v; retry fetch: %w", err, fetchErr)
	}
	return gofeed.NewParser().ParseString(body)
}

func (p *Parser) fetchRaw(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch feed failed: %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (p *Parser) feedMetadata(feed *gofeed.Feed, feedURL string) domain.FeedMetadata {
	meta := domain.FeedMetadata{
		Title:       p.clean(feed.Title),
		Description: p.clean(feed.Description),
		Link:        feed.Link,
		Language:    feed.Language,
		Platform:    detectPlatform(feedURL),
		FeedURL:     feedURL,
	}
	if meta.Title == "" {
		meta.Title = "Unknown Podcast"
	}
	if meta.Link == "" {
		meta.Link = feedURL
	}
	if feed.Author != nil {
		meta.Author = feed.Author.Name
	}
	if meta.Author == "" && feed.ITunesExt != nil {
		meta.Author = feed.ITunesExt.Author
	}
	if feed.Image != nil {
		meta.ImageURL = feed.Image.URL
	}
	if meta.ImageURL == "" && feed.ITunesExt != nil {
		meta.ImageURL = feed.ITunesExt.Image
	}
	return meta
}

func (p *Parser) extractEpisodes(feed *gofeed.Feed, feedURL string) []domain.EpisodeRecord {
	now := time.Now()
	episodes := make([]domain.EpisodeRecord, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		title := p.clean(item.Title)
		if title == "" {
			continue
		}

		rawDescription := item.Description
		if rawDescription == "" {
			rawDescription = item.Content
		}

		audioURL := findAudioURL(item, rawDescription)

		record := domain.EpisodeRecord{
			ID:          episodeID(item.GUID, title, audioURL, now),
			Title:       title,
			Description: p.clean(rawDescription),
			PublishedAt: item.PublishedParsed,
			AudioURL:    audioURL,
			Link:        item.Link,
			GUID:        item.GUID,
			FeedURL:     feedURL,
			Enclosures:  convertEnclosures(item.Enclosures),
		}
		if item.Author != nil {
			record.Author = item.Author.Name
		}
		if item.ITunesExt != nil {
			record.Duration = NormalizeDuration(item.ITunesExt.Duration)
		}
		record.Number = extractOrdinal(item, title)

		episodes = append(episodes, record)
	}
	return episodes
}

// episodeID derives a stable identifier from the entry GUID when present,
// else from a content hash of title and audio URL plus a time suffix.
func episodeID(guid, title, audioURL string, now time.Time) string {
	guid = strings.TrimSpace(guid)
	if guid != "" {
		sum := md5.Sum([]byte(guid))
		return "ep_" + hex.EncodeToString(sum[:])[:12]
	}
	seed := title
	if audioURL != "" {
		seed = title + "_" + audioURL
	}
	sum := md5.Sum([]byte(seed))
	return fmt.Sprintf("ep_%s_%d", hex.EncodeToString(sum[:])[:12], now.Unix())
}

func convertEnclosures(enclosures []*gofeed.Enclosure) []domain.Enclosure {
	if len(enclosures) == 0 {
		return nil
	}
	out := make([]domain.Enclosure, 0, len(enclosures))
	for _, enc := range enclosures {
		if enc == nil {
			continue
		}
		converted := domain.Enclosure{URL: enc.URL, Type: enc.Type}
		if enc.Length != "" {
			fmt.Sscanf(enc.Length, "%d", &converted.Length)
		}
		out = append(out, converted)
	}
	return out
}
