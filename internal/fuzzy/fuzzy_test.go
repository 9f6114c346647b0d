package fuzzy_test

import (
	"testing"

	"podscribe/internal/fuzzy"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"GoTime", "gotime", 0},
		{"rabitt", "rabbit", 2},
		{"第一期播客", "第二期播客", 1},
		{"硬核历史", "硬核历史", 0},
	}

	for _, tt := range tests {
		if got := fuzzy.Distance(tt.a, tt.b); got != tt.want {
			t.Errorf("Distance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	if got := fuzzy.Similarity("gotime", "gotime"); got != 1 {
		t.Errorf("identical strings similarity = %f", got)
	}
	if got := fuzzy.Similarity("", ""); got != 1 {
		t.Errorf("empty strings similarity = %f", got)
	}
	if got := fuzzy.Similarity("abc", "xyz"); got != 0 {
		t.Errorf("disjoint strings similarity = %f", got)
	}
	// One edit over five runes, regardless of byte width.
	if got := fuzzy.Similarity("第一期播客", "第二期播客"); got != 0.8 {
		t.Errorf("multibyte similarity = %f, want 0.8", got)
	}
}

func TestBestMatchMultibyte(t *testing.T) {
	candidates := []string{"第一期播客", "硬核历史", "gotime"}

	got, ok := fuzzy.BestMatch(candidates, "第二期播客")
	if !ok || got != "第一期播客" {
		t.Errorf("BestMatch = %q, %v; want 第一期播客, true", got, ok)
	}
}

func TestBestMatch(t *testing.T) {
	candidates := []string{"gotime", "syntax", "changelog", "hardcore history"}

	tests := []struct {
		query string
		want  string
		ok    bool
	}{
		{"gotime", "gotime", true},
		{"gotmie", "gotime", true},
		{"got", "gotime", true},
		{"changelgo", "changelog", true},
		{"zzzzzz", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := fuzzy.BestMatch(candidates, tt.query)
		if ok != tt.ok || got != tt.want {
			t.Errorf("BestMatch(%q) = %q, %v; want %q, %v", tt.query, got, ok, tt.want, tt.ok)
		}
	}
}
