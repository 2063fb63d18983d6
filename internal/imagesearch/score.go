package imagesearch

import (
	"sort"
	"strings"
	"unicode"
)

const (
	// ScoreBanned marks a candidate mentioning a banned token.
	ScoreBanned = -1000
	// ScoreMismatch marks a candidate without both a brand and a model hit.
	ScoreMismatch = -999
)

const (
	brandTitleHit = 3
	brandDescHit  = 1
	modelTitleHit = 4
	modelDescHit  = 2
	familyBonus   = 5
)

var bannedTokens = map[string]bool{
	"logo": true, "logos": true,
	"icon": true, "icons": true,
	"manual": true, "manuals": true,
	"brochure": true, "brochures": true,
	"catalog": true, "catalogs": true, "catalogue": true, "catalogues": true,
	"diagram": true, "diagrams": true,
}

// genericBrandWords never identify a brand on their own.
var genericBrandWords = map[string]bool{
	"new": true, "john": true, "the": true, "de": true, "la": true, "and": true,
}

var familyWords = map[string]bool{
	"tractor":   true,
	"tractors":  true,
	"traktor":   true,
	"tracteur":  true,
	"trattore":  true,
	"tractores": true,
}

// Scored pairs a candidate with its score.
type Scored struct {
	Candidate
	Score int
}

// Score rates how well c depicts brand and model. Negative scores are never
// accepted.
func Score(c Candidate, brand, model string) int {
	title := tokenize(c.Title)
	desc := tokenize(c.Description)

	for _, tokens := range [][]string{title, desc} {
		for _, tok := range tokens {
			if bannedTokens[tok] {
				return ScoreBanned
			}
		}
	}

	titleSet := toSet(title)
	descSet := toSet(desc)

	score := 0
	brandTokens := tokenize(brand)
	distinctive := 0
	for _, tok := range brandTokens {
		if !genericBrandWords[tok] {
			distinctive++
		}
	}
	brandHit := false
	for _, tok := range brandTokens {
		hit := true
		switch {
		case titleSet[tok]:
			score += brandTitleHit
		case descSet[tok]:
			score += brandDescHit
		default:
			hit = false
		}
		// "New Holland" needs "holland"; an all-generic brand needs any token
		if hit && (distinctive == 0 || !genericBrandWords[tok]) {
			brandHit = true
		}
	}

	modelHit := false
	for _, tok := range tokenize(model) {
		switch {
		case titleSet[tok]:
			score += modelTitleHit
			modelHit = true
		case descSet[tok]:
			score += modelDescHit
			modelHit = true
		}
	}
	if !modelHit {
		compact := compactModel(model)
		switch {
		case compact == "":
		case strings.Contains(compactModel(c.Title), compact):
			score += modelTitleHit
			modelHit = true
		case strings.Contains(compactModel(c.Description), compact):
			score += modelDescHit
			modelHit = true
		}
	}

	if !brandHit || !modelHit {
		return ScoreMismatch
	}

	family := false
	for tok := range titleSet {
		if familyWords[tok] {
			family = true
			break
		}
	}
	if !family {
		for tok := range descSet {
			if familyWords[tok] {
				family = true
				break
			}
		}
	}
	if family {
		score += familyBonus
	} else if numericModel(model) {
		return ScoreMismatch
	}

	return score
}

// Rank scores every candidate and sorts them best first. Ties keep backend
// order.
func Rank(candidates []Candidate, brand, model string) []Scored {
	out := make([]Scored, len(candidates))
	for i, c := range candidates {
		out[i] = Scored{Candidate: c, Score: Score(c, brand, model)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Best returns the top-ranked candidate when its score is non-negative.
func Best(candidates []Candidate, brand, model string) (Scored, bool) {
	ranked := Rank(candidates, brand, model)
	if len(ranked) == 0 || ranked[0].Score < 0 {
		return Scored{}, false
	}
	return ranked[0], true
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func toSet(tokens []string) map[string]bool {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

func compactModel(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func numericModel(model string) bool {
	compact := compactModel(model)
	if compact == "" {
		return false
	}
	for _, r := range compact {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
