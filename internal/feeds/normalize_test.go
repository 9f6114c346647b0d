package feeds

import (
	"testing"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

func TestFindAudioURL(t *testing.T) {
	tests := []struct {
		name        string
		item        *gofeed.Item
		description string
		want        string
	}{
		{
			name: "typed audio enclosure wins",
			item: &gofeed.Item{
				Enclosures: []*gofeed.Enclosure{
					{URL: "https://cdn.example.com/ep.mp3", Type: "audio/mpeg"},
				},
				Links: []string{"https://example.com/other.mp3"},
			},
			want: "https://cdn.example.com/ep.mp3",
		},
		{
			name: "video enclosure accepted for audio-only feeds",
			item: &gofeed.Item{
				Enclosures: []*gofeed.Enclosure{
					{URL: "https://cdn.example.com/ep.mp4", Type: "video/mp4"},
				},
			},
			want: "https://cdn.example.com/ep.mp4",
		},
		{
			name: "untyped enclosure matched by extension",
			item: &gofeed.Item{
				Enclosures: []*gofeed.Enclosure{
					{URL: "https://cdn.example.com/ep.m4a"},
				},
			},
			want: "https://cdn.example.com/ep.m4a",
		},
		{
			name: "link matched by extension",
			item: &gofeed.Item{
				Links: []string{"https://example.com/page", "https://example.com/ep.ogg"},
			},
			want: "https://example.com/ep.ogg",
		},
		{
			name:        "src attribute in description",
			item:        &gofeed.Item{},
			description: `<audio src="https://cdn.example.com/embedded.mp3"></audio>`,
			want:        "https://cdn.example.com/embedded.mp3",
		},
		{
			name:        "bare url in description",
			item:        &gofeed.Item{},
			description: "Listen here: https://cdn.example.com/show.wav today",
			want:        "https://cdn.example.com/show.wav",
		},
		{
			name: "nothing playable",
			item: &gofeed.Item{
				Links: []string{"https://example.com/shownotes"},
			},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findAudioURL(tt.item, tt.description)
			if got != tt.want {
				t.Errorf("findAudioURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeDuration(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"01:02:03", "01:02:03"},
		{"45:30", "00:45:30"},
		{"75:30", "01:15:30"},
		{"60:00", "01:00:00"},
		{"", ""},
		{"90", ""},
		{"abc:def", ""},
		{"  45:30  ", "00:45:30"},
	}

	for _, tt := range tests {
		if got := NormalizeDuration(tt.raw); got != tt.want {
			t.Errorf("NormalizeDuration(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestExtractOrdinal(t *testing.T) {
	intp := func(n int) *int { return &n }

	tests := []struct {
		name  string
		item  *gofeed.Item
		title string
		want  *int
	}{
		{
			name:  "itunes episode field wins over title",
			item:  &gofeed.Item{ITunesExt: &ext.ITunesItemExtension{Episode: "42"}},
			title: "Episode 7",
			want:  intp(42),
		},
		{name: "chinese ordinal", item: &gofeed.Item{}, title: "第12期 人工智能", want: intp(12)},
		{name: "chinese ji", item: &gofeed.Item{}, title: "第 3 集", want: intp(3)},
		{name: "episode word", item: &gofeed.Item{}, title: "Episode 7: Interfaces", want: intp(7)},
		{name: "ep abbreviation", item: &gofeed.Item{}, title: "EP. 4 Concurrency", want: intp(4)},
		{name: "hash number", item: &gofeed.Item{}, title: "Generics #9", want: intp(9)},
		{name: "leading number", item: &gofeed.Item{}, title: "15 - The Scheduler", want: intp(15)},
		{name: "no ordinal", item: &gofeed.Item{}, title: "A Show About Nothing", want: nil},
		{name: "year mid-title not matched", item: &gofeed.Item{}, title: "Looking back at 2024 together", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractOrdinal(tt.item, tt.title)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("extractOrdinal(%q) = %v, want %v", tt.title, got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("extractOrdinal(%q) = %d, want %d", tt.title, *got, *tt.want)
			}
		})
	}
}

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		feedURL string
		want    string
	}{
		{"https://podcasts.apple.com/us/feed.xml", "apple"},
		{"https://open.spotify.com/show/abc", "spotify"},
		{"https://podcasts.google.com/feed/xyz", "google"},
		{"https://www.xiaoyuzhoufm.com/rss/123", "xiaoyuzhou"},
		{"https://getpodcast.xyz/data/feed.xml", "getpodcast"},
		{"https://www.dedao.cn/course/rss", "dedao"},
		{"https://example.com/feed.xml", "unknown"},
		{"not a url at all", "unknown"},
	}

	for _, tt := range tests {
		if got := detectPlatform(tt.feedURL); got != tt.want {
			t.Errorf("detectPlatform(%q) = %q, want %q", tt.feedURL, got, tt.want)
		}
	}
}
