// Package imagesearch finds a representative image for a brand and model
// across pluggable search backends and ranks the candidates.
package imagesearch

import (
	"context"
	"fmt"
)

// Candidate is one image returned by a backend.
type Candidate struct {
	URL         string
	Title       string
	Description string
	Width       int
	Height      int
	// License is empty when the backend does not report one.
	License string
	Source  string
}

// Query is one search attempt for a brand and model.
type Query struct {
	Brand   string
	Model   string
	Text    string
	Variant int
}

// Searcher is a search backend.
type Searcher interface {
	Name() string
	Search(ctx context.Context, q Query) ([]Candidate, error)
	// Exclusive reports whether the backend holds non-shareable state and
	// must never be called by two workers at once.
	Exclusive() bool
}

// Queries returns the query variants for brand and model, most specific
// first.
func Queries(brand, model string) []Query {
	phrase := brand + " " + model
	texts := []string{
		fmt.Sprintf("intitle:%q", phrase),
		fmt.Sprintf("%q tractor", phrase),
		phrase + " tractor",
	}
	out := make([]Query, len(texts))
	for i, t := range texts {
		out[i] = Query{Brand: brand, Model: model, Text: t, Variant: i}
	}
	return out
}
