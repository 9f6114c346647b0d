package fetch

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"

	"podscribe/internal/domain"
)

// blockSize is the read granularity of the streaming strategy.
const blockSize = 8192

// Recognized audio formats, plus two video containers sometimes used for
// audio-only content.
var knownFormats = map[string]string{
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".wav":  "audio/wav",
	".ogg":  "audio/ogg",
	".flac": "audio/flac",
	".aac":  "audio/aac",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
}

var unsafeFilenameChars = regexp.MustCompile(`[/\\:*?"<>|\s]+`)

// InvalidURLError reports a URL that fails validation before any network
// access is attempted.
type InvalidURLError struct {
	URL string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid audio url: %q", e.URL)
}

// Error aggregates the failures of both download strategies.
type Error struct {
	URL       string
	DirectErr error
	StreamErr error
}

func (e *Error) Error() string {
	return fmt.Sprintf("all download strategies failed for %s: direct: %v; streaming: %v", e.URL, e.DirectErr, e.StreamErr)
}

// Hints carries naming context for the downloaded file.
type Hints struct {
	PodcastName  string
	EpisodeTitle string
}

// Fetcher retrieves episode audio to local storage.
type Fetcher struct {
	dir       string
	client    *http.Client
	userAgent string
	progress  io.Writer
}

// New creates a fetcher writing into dir. The client's timeout bounds each
// strategy attempt; strategy fallback is the only retry mechanism.
func New(dir string, client *http.Client, userAgent string) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		dir:       dir,
		client:    client,
		userAgent: userAgent,
		progress:  os.Stderr,
	}
}

// SetProgressOutput redirects streaming progress rendering.
func (f *Fetcher) SetProgressOutput(w io.Writer) {
	f.progress = w
}

// Fetch downloads the audio at rawURL, trying the direct strategy first
// and streaming as fallback.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, hints Hints) (domain.DownloadResult, error) {
	if !validURL(rawURL) {
		return domain.DownloadResult{}, &InvalidURLError{URL: rawURL}
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return domain.DownloadResult{}, fmt.Errorf("create audio directory: %w", err)
	}

	result, directErr := f.downloadDirect(ctx, rawURL, hints)
	if directErr == nil {
		return result, nil
	}
	log.Printf("direct download failed for %s: %v; trying streaming", rawURL, directErr)

	result, streamErr := f.downloadStreaming(ctx, rawURL, hints)
	if streamErr == nil {
		return result, nil
	}

	return domain.DownloadResult{}, &Error{URL: rawURL, DirectErr: directErr, StreamErr: streamErr}
}

func validURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// downloadDirect probes the target with a HEAD request and fetches the
// whole body in one call. A declared-size mismatch is surfaced as a
// warning on the result, never as a failure.
func (f *Fetcher) downloadDirect(ctx context.Context, rawURL string, hints Hints) (domain.DownloadResult, error) {
	declaredSize, contentType := f.probe(ctx, rawURL)

	req, err := f.newRequest(ctx, http.MethodGet, rawURL)
	if err != nil {
		return domain.DownloadResult{}, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return domain.DownloadResult{}, fmt.Errorf("download audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.DownloadResult{}, fmt.Errorf("download failed: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.DownloadResult{}, fmt.Errorf("read audio body: %w", err)
	}

	dest := filepath.Join(f.dir, f.buildFilename(rawURL, hints, contentType))
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return domain.DownloadResult{}, fmt.Errorf("write audio file: %w", err)
	}

	result := domain.DownloadResult{
		Path:     dest,
		Size:     int64(len(data)),
		URL:      rawURL,
		Strategy: "direct",
	}
	if declaredSize > 0 && result.Size != declaredSize {
		result.Warning = fmt.Sprintf("size mismatch: expected %s, got %s",
			humanize.Bytes(uint64(declaredSize)), humanize.Bytes(uint64(result.Size)))
		log.Printf("download %s: %s", rawURL, result.Warning)
	}
	return result, nil
}

// probe issues a best-effort HEAD request. Missing metadata is not an
// error; the direct strategy simply skips size verification.
func (f *Fetcher) probe(ctx context.Context, rawURL string) (int64, string) {
	req, err := f.newRequest(ctx, http.MethodHead, rawURL)
	if err != nil {
		return -1, ""
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return -1, ""
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return -1, ""
	}

	size := int64(-1)
	if value := resp.Header.Get("Content-Length"); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			size = parsed
		}
	}
	return size, resp.Header.Get("Content-Type")
}

// downloadStreaming fetches with incremental fixed-size reads, writing
// each block as it arrives and rendering transfer progress.
func (f *Fetcher) downloadStreaming(ctx context.Context, rawURL string, hints Hints) (domain.DownloadResult, error) {
	req, err := f.newRequest(ctx, http.MethodGet, rawURL)
	if err != nil {
		return domain.DownloadResult{}, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return domain.DownloadResult{}, fmt.Errorf("download audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.DownloadResult{}, fmt.Errorf("download failed: %s", resp.Status)
	}

	dest := filepath.Join(f.dir, f.buildFilename(rawURL, hints, resp.Header.Get("Content-Type")))
	file, err := os.Create(dest)
	if err != nil {
		return domain.DownloadResult{}, fmt.Errorf("create audio file: %w", err)
	}

	bar := progressbar.NewOptions64(resp.ContentLength,
		progressbar.OptionSetWriter(f.progress),
		progressbar.OptionSetDescription("downloading"),
		progressbar.OptionShowBytes(true),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)

	buf := make([]byte, blockSize)
	written, err := io.CopyBuffer(io.MultiWriter(file, bar), resp.Body, buf)
	if err != nil {
		file.Close()
		os.Remove(dest)
		return domain.DownloadResult{}, fmt.Errorf("stream audio body: %w", err)
	}
	if err := file.Close(); err != nil {
		return domain.DownloadResult{}, err
	}

	return domain.DownloadResult{
		Path:     dest,
		Size:     written,
		URL:      rawURL,
		Strategy: "streaming",
	}, nil
}

func (f *Fetcher) newRequest(ctx context.Context, method, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "audio/*, video/*, */*")
	return req, nil
}

// buildFilename combines sanitized name fragments, a URL hash and a
// timestamp so repeated fetches never collide.
func (f *Fetcher) buildFilename(rawURL string, hints Hints, contentType string) string {
	sum := md5.Sum([]byte(rawURL))
	urlHash := hex.EncodeToString(sum[:])[:8]
	timestamp := time.Now().Unix()
	ext := extensionFor(rawURL, contentType)

	podcast := sanitizeFragment(hints.PodcastName, 20)
	episode := sanitizeFragment(hints.EpisodeTitle, 30)
	if podcast != "" && episode != "" {
		return fmt.Sprintf("%s_%s_%s_%d%s", podcast, episode, urlHash, timestamp, ext)
	}
	return fmt.Sprintf("audio_%s_%d%s", urlHash, timestamp, ext)
}

func sanitizeFragment(value string, max int) string {
	value = unsafeFilenameChars.ReplaceAllString(strings.TrimSpace(value), "_")
	value = strings.Trim(value, "._-")
	runes := []rune(value)
	if len(runes) > max {
		value = string(runes[:max])
	}
	return value
}

// extensionFor picks the output extension from the URL path, falling back
// to the declared content type, falling back to .mp3.
func extensionFor(rawURL, contentType string) string {
	if u, err := url.Parse(rawURL); err == nil {
		ext := strings.ToLower(path.Ext(u.Path))
		if _, ok := knownFormats[ext]; ok {
			return ext
		}
	}
	if contentType != "" {
		for ext, mime := range knownFormats {
			if strings.Contains(contentType, mime) {
				return ext
			}
		}
	}
	return ".mp3"
}

// PurgeOlderThan removes downloaded files whose modification time exceeds
// maxAge, returning the count and bytes reclaimed. Individual removal
// failures are logged and skipped.
func (f *Fetcher) PurgeOlderThan(maxAge time.Duration) (int, int64, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("read audio directory: %w", err)
	}

	var (
		removed int
		bytes   int64
	)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			log.Printf("purge: stat %s: %v", entry.Name(), err)
			continue
		}
		if time.Since(info.ModTime()) <= maxAge {
			continue
		}
		target := filepath.Join(f.dir, entry.Name())
		if err := os.Remove(target); err != nil {
			log.Printf("purge: remove %s: %v", target, err)
			continue
		}
		removed++
		bytes += info.Size()
	}
	return removed, bytes, nil
}
