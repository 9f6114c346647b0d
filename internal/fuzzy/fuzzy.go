// Package fuzzy scores approximate string matches, used to resolve
// subscription names typed with small mistakes.
package fuzzy

import (
	"strings"
	"unicode/utf8"
)

// Distance is the Levenshtein edit distance over runes, case-insensitive.
func Distance(a, b string) int {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Similarity maps the edit distance to a score in [0, 1], where 1 is an
// exact match ignoring case.
func Similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(Distance(a, b))/float64(longest)
}

// BestMatch returns the candidate most similar to the query, provided the
// similarity clears the threshold for the query's length. Short queries
// require closer matches than long ones.
func BestMatch(candidates []string, query string) (string, bool) {
	if query == "" {
		return "", false
	}

	threshold := 0.65
	switch n := utf8.RuneCountInString(query); {
	case n <= 3:
		threshold = 0.8
	case n <= 5:
		threshold = 0.7
	}

	var (
		best      string
		bestScore float64
	)
	for _, candidate := range candidates {
		score := Similarity(candidate, query)
		if strings.HasPrefix(strings.ToLower(candidate), strings.ToLower(query)) && score < 0.9 {
			score = 0.9
		}
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	if bestScore < threshold {
		return "", false
	}
	return best, true
}
