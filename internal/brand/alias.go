// Package brand resolves raw manufacturer strings to canonical brand names.
// A Resolver is built once per process and shared by every component.
package brand

import (
	"sort"
	"strings"
	"sync"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// canonicalBrands lists every brand the catalog recognises.
var canonicalBrands = []string{
	"AGCO", "Allis-Chalmers", "Antonio Carraro", "Belarus", "Bobcat", "Branson",
	"Case", "Case IH", "Caterpillar", "Challenger", "Claas", "Cockshutt",
	"Craftsman", "Cub Cadet", "David Brown", "Deutz", "Deutz-Fahr", "Farmall",
	"Fendt", "Ferguson", "Ford", "Fordson", "Hurlimann", "Husqvarna", "Iseki",
	"International Harvester", "JCB", "John Deere", "Kioti", "Komatsu", "Kubota",
	"Lamborghini", "Landini", "LS", "Mahindra", "Massey Ferguson", "Massey Harris",
	"McCormick", "McCormick-Deering", "Minneapolis-Moline", "Montana", "New Holland",
	"Oliver", "Renault", "Same", "Simplicity", "Solis", "Sonalika", "Steiger",
	"Swaraj", "Toro", "TYM", "Ursus", "Valmet", "Valtra", "Versatile", "Wheel Horse",
	"White", "Yanmar", "Zetor",
}

// variants maps spellings and abbreviations to canonical names. Keys use the
// form produced by aliasKey.
var variants = map[string]string{
	"deere":                   "John Deere",
	"jd":                      "John Deere",
	"john deer":               "John Deere",
	"johndeere":               "John Deere",
	"mf":                      "Massey Ferguson",
	"massey":                  "Massey Ferguson",
	"masseyferguson":          "Massey Ferguson",
	"nh":                      "New Holland",
	"newholland":              "New Holland",
	"ih":                      "International Harvester",
	"international":           "International Harvester",
	"intl harvester":          "International Harvester",
	"mccormick farmall":       "Farmall",
	"caseih":                  "Case IH",
	"case international":      "Case IH",
	"case ih agriculture":     "Case IH",
	"j i case":                "Case",
	"ji case":                 "Case",
	"cat":                     "Caterpillar",
	"deutz fahr":              "Deutz-Fahr",
	"deutzfahr":               "Deutz-Fahr",
	"sdf":                     "Same",
	"allis chalmers":          "Allis-Chalmers",
	"ac":                      "Allis-Chalmers",
	"minneapolis moline":      "Minneapolis-Moline",
	"mm":                      "Minneapolis-Moline",
	"mccormick deering":       "McCormick-Deering",
	"ls tractor":              "LS",
	"ls mtron":                "LS",
	"tym tractors":            "TYM",
	"tong yang moolsan":       "TYM",
	"kioti tractor":           "Kioti",
	"daedong":                 "Kioti",
	"mahindra tractors":       "Mahindra",
	"mahindra and mahindra":   "Mahindra",
	"cub":                     "Cub Cadet",
	"cubcadet":                "Cub Cadet",
	"wheelhorse":              "Wheel Horse",
	"db":                      "David Brown",
	"kubota tractor":          "Kubota",
	"mtz":                     "Belarus",
	"valmet valtra":           "Valtra",
	"agco allis":              "AGCO",
	"massey harris ferguson":  "Massey Ferguson",
	"hürlimann":               "Hurlimann",
	"john deere lawn":         "John Deere",
	"jcb agriculture":         "JCB",
	"new holland agriculture": "New Holland",
}

// Resolver maps raw brand text to canonical brands.
type Resolver struct {
	aliases   map[string]string
	canonical []string
	// compounds holds multi-word canonical brands, longest first.
	compounds [][]string

	mu      sync.Mutex
	unknown map[string]string
}

// NewResolver builds the alias table.
func NewResolver() *Resolver {
	r := &Resolver{
		aliases:   make(map[string]string, len(canonicalBrands)+len(variants)),
		canonical: append([]string(nil), canonicalBrands...),
		unknown:   make(map[string]string),
	}
	for _, b := range canonicalBrands {
		r.aliases[aliasKey(b)] = b
		if strings.ContainsAny(b, " -") {
			r.aliases[strings.ReplaceAll(aliasKey(b), " ", "")] = b
			r.compounds = append(r.compounds, strings.Fields(aliasKey(b)))
		}
	}
	for k, v := range variants {
		r.aliases[aliasKey(k)] = v
	}
	sort.SliceStable(r.compounds, func(i, j int) bool {
		return len(r.compounds[i]) > len(r.compounds[j])
	})
	return r
}

// aliasKey lowercases s and folds separators into single spaces.
func aliasKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", " ", "_", " ", ".", " ", "&", " and ", "/", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// Canonical returns the canonical brand for raw and whether it is known.
func (r *Resolver) Canonical(raw string) (string, bool) {
	b, ok := r.aliases[aliasKey(raw)]
	return b, ok
}

// Resolve returns the canonical brand for raw. Unknown brands are title-cased
// and remembered together with their nearest known brand.
func (r *Resolver) Resolve(raw string) string {
	if b, ok := r.Canonical(raw); ok {
		return b
	}
	key := aliasKey(raw)
	if key == "" {
		return ""
	}
	title := cases.Title(language.English).String(key)

	suggestion, _ := r.Suggest(raw)
	r.mu.Lock()
	r.unknown[title] = suggestion
	r.mu.Unlock()
	return title
}

// Suggest returns the known brand closest to raw by Jaro-Winkler similarity.
func (r *Resolver) Suggest(raw string) (string, float64) {
	key := aliasKey(raw)
	best, bestScore := "", 0.0
	for _, b := range r.canonical {
		score := matchr.JaroWinkler(key, aliasKey(b), false)
		if score > bestScore {
			best, bestScore = b, score
		}
	}
	return best, bestScore
}

// Unknown returns brands that Resolve could not map, with their suggestion.
func (r *Resolver) Unknown() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.unknown))
	for k, v := range r.unknown {
		out[k] = v
	}
	return out
}

// Brands returns the canonical brand list.
func (r *Resolver) Brands() []string {
	return append([]string(nil), r.canonical...)
}

// Split separates leading brand text from the model in text.
// Multi-word brands are matched before single words so "New Holland T7"
// yields brand "New Holland" rather than "New".
// Returns:
//   - brand: canonical brand, or the first word when no brand is recognised.
//   - model: remaining text.
//   - known: whether brand came from the alias table.
func (r *Resolver) Split(text string) (brand, model string, known bool) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return "", "", false
	}
	for n := min(4, len(words)); n >= 1; n-- {
		candidate := strings.Join(words[:n], " ")
		if b, ok := r.Canonical(candidate); ok {
			return b, strings.Join(words[n:], " "), true
		}
	}
	return words[0], strings.Join(words[1:], " "), false
}

// SplitCompound detects a compound brand that was split across the brand and
// model fields: a generic first token plus a model starting with the brand's
// remaining words, e.g. ("New", "Holland T6.180").
func (r *Resolver) SplitCompound(first, rest string) (brand, model string, ok bool) {
	head := aliasKey(first)
	restWords := strings.Fields(rest)
	for _, parts := range r.compounds {
		if parts[0] != head || len(restWords) < len(parts)-1 {
			continue
		}
		tail := aliasKey(strings.Join(restWords[:len(parts)-1], " "))
		if tail != strings.Join(parts[1:], " ") {
			continue
		}
		b, known := r.Canonical(strings.Join(parts, " "))
		if !known {
			continue
		}
		return b, strings.Join(restWords[len(parts)-1:], " "), true
	}
	return "", "", false
}
