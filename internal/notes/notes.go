// Package notes renders one Markdown note per transcribed episode.
package notes

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"podscribe/internal/domain"
)

var unsafeNameChars = regexp.MustCompile(`[/\\:*?"<>|\s]+`)

// Writer persists notes under a base directory, one folder per podcast.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

type frontMatter struct {
	Podcast       string   `yaml:"podcast"`
	Episode       string   `yaml:"episode"`
	Date          string   `yaml:"date,omitempty"`
	ProcessedDate string   `yaml:"processed_date"`
	AudioURL      string   `yaml:"audio_url,omitempty"`
	Duration      string   `yaml:"duration,omitempty"`
	Backend       string   `yaml:"transcribed_with"`
	Tags          []string `yaml:"tags"`
}

// Write renders the note for one episode and returns its path.
func (w *Writer) Write(podcastName string, episode domain.EpisodeRecord, result domain.TranscriptionResult) (string, error) {
	podcastDir := filepath.Join(w.dir, sanitizeName(podcastName, 50))
	if err := os.MkdirAll(podcastDir, 0o755); err != nil {
		return "", fmt.Errorf("create notes directory: %w", err)
	}

	now := time.Now()
	date := now.Format("2006-01-02")
	if episode.PublishedAt != nil {
		date = episode.PublishedAt.Format("2006-01-02")
	}

	fm := frontMatter{
		Podcast:       podcastName,
		Episode:       episode.Title,
		Date:          date,
		ProcessedDate: now.Format("2006-01-02 15:04:05"),
		AudioURL:      episode.AudioURL,
		Duration:      episode.Duration,
		Backend:       result.Backend,
		Tags:          []string{"podcast", "transcript"},
	}
	header, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("marshal front matter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "## Episode\n\n")
	fmt.Fprintf(&b, "- **Podcast**: %s\n", podcastName)
	fmt.Fprintf(&b, "- **Title**: %s\n", episode.Title)
	if episode.PublishedAt != nil {
		fmt.Fprintf(&b, "- **Published**: %s\n", episode.PublishedAt.Format("2006-01-02"))
	}
	if episode.Duration != "" {
		fmt.Fprintf(&b, "- **Duration**: %s\n", episode.Duration)
	}
	if episode.Number != nil {
		fmt.Fprintf(&b, "- **Episode**: %d\n", *episode.Number)
	}
	if episode.AudioURL != "" {
		fmt.Fprintf(&b, "- **Audio**: %s\n", episode.AudioURL)
	}
	b.WriteString("\n")

	if episode.Description != "" {
		fmt.Fprintf(&b, "## Description\n\n%s\n\n", episode.Description)
	}

	fmt.Fprintf(&b, "## Transcript\n\n%s\n\n", result.Text)
	fmt.Fprintf(&b, "---\n*Generated %s*\n", now.Format("2006-01-02 15:04:05"))

	filename := fmt.Sprintf("%s_%s_%s.md", date, sanitizeName(podcastName, 30), sanitizeName(episode.Title, 50))
	outputPath := filepath.Join(podcastDir, filename)
	if err := os.WriteFile(outputPath, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write note: %w", err)
	}
	return outputPath, nil
}

func sanitizeName(value string, max int) string {
	value = unsafeNameChars.ReplaceAllString(strings.TrimSpace(value), "_")
	value = strings.Trim(value, "._-")
	if value == "" {
		value = "untitled"
	}
	runes := []rune(value)
	if len(runes) > max {
		value = string(runes[:max])
	}
	return value
}
