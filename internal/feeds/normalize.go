package feeds

import (
	"fmt"
	"html"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"
)

// maxDescriptionRunes caps cleaned description text.
const maxDescriptionRunes = 1000

var audioExtensions = map[string]bool{
	".mp3":  true,
	".m4a":  true,
	".wav":  true,
	".ogg":  true,
	".flac": true,
	".aac":  true,
}

var (
	descriptionAudioURL = regexp.MustCompile(`(?i)https?://[^\s<>"']+\.(?:mp3|m4a|wav|ogg|flac|aac)[^\s<>"']*`)
	descriptionAudioSrc = regexp.MustCompile(`(?i)src=["']([^"']+\.(?:mp3|m4a|wav|ogg|flac|aac))["']`)
)

// findAudioURL resolves the playable audio location for one entry.
// Resolution order: typed enclosures, links carrying a known audio
// extension, and finally a regex scan of the raw description. An empty
// result is a valid terminal state.
func findAudioURL(item *gofeed.Item, rawDescription string) string {
	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		// Some feeds declare video/* for audio-only content.
		if strings.HasPrefix(enc.Type, "audio/") || strings.HasPrefix(enc.Type, "video/") {
			return enc.URL
		}
	}
	for _, enc := range item.Enclosures {
		if enc != nil && hasAudioExtension(enc.URL) {
			return enc.URL
		}
	}
	for _, link := range item.Links {
		if hasAudioExtension(link) {
			return link
		}
	}

	if match := descriptionAudioSrc.FindStringSubmatch(rawDescription); match != nil {
		return match[1]
	}
	if match := descriptionAudioURL.FindString(rawDescription); match != "" {
		return match
	}
	return ""
}

func hasAudioExtension(rawURL string) bool {
	if rawURL == "" {
		return false
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return audioExtensions[strings.ToLower(path.Ext(u.Path))]
}

// NormalizeDuration converts feed duration strings to HH:MM:SS. Values
// already in H:MM:SS form pass through; bare MM:SS is reinterpreted,
// promoting minutes of 60 or more into hours. Anything else yields "".
func NormalizeDuration(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	parts := strings.Split(raw, ":")
	switch len(parts) {
	case 3:
		return raw
	case 2:
		minutes, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return ""
		}
		seconds, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return ""
		}
		hours := minutes / 60
		minutes = minutes % 60
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	default:
		return ""
	}
}

// Ordinal patterns in priority order. These are heuristics over the title;
// a missing or duplicated ordinal never blocks processing.
var ordinalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`第\s*(\d+)\s*[期集回]`),
	regexp.MustCompile(`(?i)Episode\s*(\d+)`),
	regexp.MustCompile(`(?i)EP\.?\s*(\d+)`),
	regexp.MustCompile(`#\s*(\d+)`),
	regexp.MustCompile(`^\s*(\d+)\s*[.\-\s]`),
}

func extractOrdinal(item *gofeed.Item, title string) *int {
	if item.ITunesExt != nil && item.ITunesExt.Episode != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(item.ITunesExt.Episode)); err == nil {
			return &n
		}
	}
	for _, pattern := range ordinalPatterns {
		match := pattern.FindStringSubmatch(title)
		if match == nil {
			continue
		}
		n, err := strconv.Atoi(match[1])
		if err != nil {
			continue
		}
		return &n
	}
	return nil
}

// Known hosting domains, checked in order. Detection is informational
// only and never blocks parsing.
var platformDomains = []struct {
	name    string
	domains []string
}{
	{"apple", []string{"apple.com", "podcasts.apple.com", "itunes.apple.com"}},
	{"spotify", []string{"spotify.com", "open.spotify.com"}},
	{"google", []string{"google.com", "podcasts.google.com"}},
	{"xiaoyuzhou", []string{"xiaoyuzhoufm.com"}},
	{"getpodcast", []string{"getpodcast.xyz"}},
	{"dedao", []string{"dedao.cn", "igetget.com"}},
}

func detectPlatform(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return "unknown"
	}
	host := strings.ToLower(u.Host)
	for _, platform := range platformDomains {
		for _, domain := range platform.domains {
			if strings.Contains(host, domain) {
				return platform.name
			}
		}
	}
	return "unknown"
}

// clean strips markup, collapses whitespace and caps the length with an
// ellipsis marker.
func (p *Parser) clean(text string) string {
	if text == "" {
		return ""
	}
	text = p.policy.Sanitize(text)
	text = html.UnescapeString(text)
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > maxDescriptionRunes {
		text = string(runes[:maxDescriptionRunes]) + "..."
	}
	return text
}
