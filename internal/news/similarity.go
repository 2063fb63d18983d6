// Package news fetches syndicated tractor news and collapses near-duplicate
// stories reported by several outlets.
package news

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// DefaultThreshold is the similarity at which two items are one story.
	DefaultThreshold = 0.6
	substringFloor   = 0.7
	minTokenLength   = 4
)

// sourceSuffixRe matches a trailing " - Outlet" attribution: at most four
// words, each capitalized or numeric, as outlet names are written.
var sourceSuffixRe = regexp.MustCompile(`\s+[-–—|]\s+[A-Z0-9][\w.&'’]*(?:\s+[A-Z0-9][\w.&'’]*){0,3}$`)

// NormalizeTitle strips a trailing source attribution, lowercases and drops
// punctuation.
func NormalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	if stripped := sourceSuffixRe.ReplaceAllString(title, ""); stripped != "" {
		title = stripped
	}

	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Similarity compares two raw titles. It is the Jaccard index over tokens
// longer than three characters, raised to at least 0.7 when one normalized
// title contains the other.
func Similarity(a, b string) float64 {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	ta, tb := tokenSet(na), tokenSet(nb)
	score := 0.0
	if union := len(ta) + len(tb) - intersection(ta, tb); union > 0 {
		score = float64(intersection(ta, tb)) / float64(union)
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		if score < substringFloor {
			score = substringFloor
		}
	}
	return score
}

func tokenSet(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(normalized) {
		if len([]rune(tok)) >= minTokenLength {
			set[tok] = struct{}{}
		}
	}
	return set
}

func intersection(a, b map[string]struct{}) int {
	n := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			n++
		}
	}
	return n
}
