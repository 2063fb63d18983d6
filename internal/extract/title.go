package extract

import (
	"regexp"
	"strings"

	"github.com/timmy/tractorhub/internal/brand"
)

var (
	titleSuffixes = []string{
		"tractor information",
		"tractor specifications",
		"tractor specs",
		"specifications",
		"specs",
		"information",
		"tractor",
		"lawn tractor",
		"garden tractor",
	}
	siteSeparatorRe = regexp.MustCompile(`\s+[|–—]\s+.*$|\s+-\s+[A-Za-z][\w.]*\.(?:com|net|org|co\.uk)\b.*$`)
	sitePrefixRe    = regexp.MustCompile(`(?i)^[\w-]+\.(?:com|net|org)\s*[:|-]?\s+`)
	yearRangeRe     = regexp.MustCompile(`\(?\b(1[89]\d{2}|20\d{2})\b(?:\s*[-–]\s*(?:\b(?:1[89]\d{2}|20\d{2})\b|present|current))?\)?`)
)

// placeholders are values that never identify a brand or model.
var placeholders = map[string]bool{
	"": true, "unknown": true, "n/a": true, "na": true, "-": true,
	"tractor": true, "model": true, "none": true, "brand": true, "null": true,
}

// IsPlaceholder reports whether s carries no identity.
func IsPlaceholder(s string) bool {
	return placeholders[strings.ToLower(strings.TrimSpace(s))]
}

// CleanTitle removes site names and descriptive suffixes from a page title.
func CleanTitle(title string) string {
	t := strings.Join(strings.Fields(title), " ")
	t = siteSeparatorRe.ReplaceAllString(t, "")
	t = sitePrefixRe.ReplaceAllString(t, "")
	for {
		lower := strings.ToLower(t)
		trimmed := false
		for _, suffix := range titleSuffixes {
			if strings.HasSuffix(lower, " "+suffix) {
				t = strings.TrimSpace(t[:len(t)-len(suffix)-1])
				trimmed = true
				break
			}
		}
		if !trimmed {
			break
		}
	}
	return strings.TrimSpace(t)
}

// SplitYear removes an embedded year from title and returns the first year
// that lies within bounds, or 0. Only a leading year, a parenthesised year or
// a year range counts; a bare number elsewhere is left as part of the model.
func SplitYear(title string, b Bounds) (string, int) {
	year := 0
	var out strings.Builder
	last := 0
	for _, loc := range yearRangeRe.FindAllStringSubmatchIndex(title, -1) {
		m := title[loc[0]:loc[1]]
		v, _ := parseNumber(title[loc[2]:loc[3]])
		isYear := loc[0] == 0 || strings.HasPrefix(m, "(") || strings.ContainsAny(m, "-–")
		if !isYear || !b.year(int(v)) {
			continue
		}
		if year == 0 {
			year = int(v)
		}
		out.WriteString(title[last:loc[0]])
		out.WriteByte(' ')
		last = loc[1]
	}
	out.WriteString(title[last:])
	return strings.Join(strings.Fields(out.String()), " "), year
}

// ParsedTitle is the identity read from a page heading.
type ParsedTitle struct {
	Brand string
	Model string
	Year  int
	Known bool
}

// ParseTitle cleans title, extracts the year and splits brand from model.
func ParseTitle(title string, brands *brand.Resolver, b Bounds) ParsedTitle {
	clean, year := SplitYear(CleanTitle(title), b)
	clean = CleanTitle(clean)
	br, model, known := brands.Split(clean)
	return ParsedTitle{Brand: br, Model: strings.TrimSpace(model), Year: year, Known: known}
}
