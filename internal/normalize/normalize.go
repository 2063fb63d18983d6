// Package normalize derives stable identities for catalog records and merges
// curated and extracted record sets.
package normalize

import (
	"context"
	"strings"
	"unicode"

	"github.com/timmy/tractorhub/internal/brand"
	"github.com/timmy/tractorhub/internal/domain"
	"github.com/timmy/tractorhub/internal/logger"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slug folds accents, lowercases s and collapses every run of
// non-alphanumeric characters into one hyphen.
func Slug(s string) string {
	if folded, _, err := transform.String(foldAccents(), s); err == nil {
		s = folded
	}
	var b strings.Builder
	b.Grow(len(s))
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// foldAccents strips combining marks after decomposition ("ü" -> "u").
// Transformers are stateful, so each call gets its own chain.
func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// ID returns the record identity for a brand and model.
func ID(brandName, model string) string {
	return Slug(brandName + " " + model)
}

// Normalizer fixes brand and identity fields of extracted records.
type Normalizer struct {
	brands *brand.Resolver
}

func NewNormalizer(brands *brand.Resolver) *Normalizer {
	return &Normalizer{brands: brands}
}

// Normalize resolves the brand, repairs split compound brands and derives the
// id and slug. It mutates and returns rec.
func (n *Normalizer) Normalize(ctx context.Context, rec *domain.Tractor) *domain.Tractor {
	if b, m, ok := n.brands.SplitCompound(rec.Brand, rec.Model); ok {
		rec.Brand, rec.Model = b, m
	}

	canonical, known := n.brands.Canonical(rec.Brand)
	if !known {
		canonical = n.brands.Resolve(rec.Brand)
		suggestion, score := n.brands.Suggest(rec.Brand)
		logger.FromContext(ctx).WithFields(logger.Fields{
			"brand":      rec.Brand,
			"suggestion": suggestion,
			"similarity": score,
		}).Debug("Unknown brand")
	}
	rec.Brand = canonical
	rec.Model = strings.Join(strings.Fields(rec.Model), " ")

	rec.ID = ID(rec.Brand, rec.Model)
	rec.Slug = rec.ID
	return rec
}

// MergeStats reports what Merge did.
type MergeStats struct {
	Curated           int `json:"curated"`
	Extracted         int `json:"extracted"`
	Added             int `json:"added"`
	DroppedCollisions int `json:"dropped_collisions"`
	DroppedDuplicates int `json:"dropped_duplicates"`
	Total             int `json:"total"`
}

// Merge combines curated and extracted records. Curated records always win an
// id collision; later extracted duplicates of an already accepted id are
// dropped. Output order is curated first, then extracted in input order.
func Merge(curated, extracted []domain.Tractor) ([]domain.Tractor, MergeStats) {
	stats := MergeStats{Curated: len(curated), Extracted: len(extracted)}
	out := make([]domain.Tractor, 0, len(curated)+len(extracted))
	seen := make(map[string]bool, cap(out))
	curatedIDs := make(map[string]bool, len(curated))

	for _, rec := range curated {
		id := recordID(rec)
		if seen[id] {
			continue
		}
		seen[id] = true
		curatedIDs[id] = true
		out = append(out, rec)
	}
	for _, rec := range extracted {
		id := recordID(rec)
		switch {
		case curatedIDs[id]:
			stats.DroppedCollisions++
		case seen[id]:
			stats.DroppedDuplicates++
		default:
			seen[id] = true
			out = append(out, rec)
			stats.Added++
		}
	}
	stats.Total = len(out)
	return out, stats
}

func recordID(rec domain.Tractor) string {
	if rec.ID != "" {
		return rec.ID
	}
	return ID(rec.Brand, rec.Model)
}
