// Package extract turns a tractor detail page into a catalog record.
//
// Extraction runs in two passes. The structured pass reads label/value rows
// and hands each row to the first matching Rule. The fallback pass scans the
// page text for power and cylinder count when the table did not provide
// them. Numeric values outside Bounds are discarded.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/timmy/tractorhub/internal/brand"
	"github.com/timmy/tractorhub/internal/domain"
	"github.com/timmy/tractorhub/internal/logger"
	"github.com/timmy/tractorhub/internal/normalize"
)

// ErrUnresolvedIdentity is returned when brand or model is missing or a
// placeholder. The page is discarded.
var ErrUnresolvedIdentity = errors.New("brand or model unresolved")

const maxDocuments = 5

// Page is one fetched detail page.
type Page struct {
	URL  string
	HTML []byte
	// Type comes from the listing category; empty means infer from URL.
	Type domain.TractorType
}

// Extractor is safe for concurrent use.
type Extractor struct {
	brands     *brand.Resolver
	normalizer *normalize.Normalizer
	rules      []Rule
	bounds     Bounds
}

// New creates an extractor. A nil rules slice selects DefaultRules.
func New(brands *brand.Resolver, bounds Bounds, rules []Rule) *Extractor {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Extractor{
		brands:     brands,
		normalizer: normalize.NewNormalizer(brands),
		rules:      rules,
		bounds:     bounds,
	}
}

// Extract parses page into a normalised record.
// Parameters:
//   - ctx: carries the logger.
//   - page: URL and raw HTML of one detail page.
//
// Returns:
//   - *domain.Tractor: record with identity, specifications and derived text.
//   - error: ErrUnresolvedIdentity when the page does not name a brand and
//     model, or a parse error.
func (e *Extractor) Extract(ctx context.Context, page Page) (*domain.Tractor, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.HTML))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return e.ExtractDocument(ctx, page, doc)
}

// ExtractDocument is Extract over an already parsed document.
func (e *Extractor) ExtractDocument(ctx context.Context, page Page, doc *goquery.Document) (*domain.Tractor, error) {
	title := heading(doc)
	parsed := ParseTitle(title, e.brands, e.bounds)
	if IsPlaceholder(parsed.Brand) || IsPlaceholder(parsed.Model) {
		return nil, fmt.Errorf("%w: title %q", ErrUnresolvedIdentity, title)
	}

	typ := page.Type
	if typ == "" {
		typ = typeFromURL(page.URL)
	}
	rec := &domain.Tractor{
		Brand:     parsed.Brand,
		Model:     parsed.Model,
		Type:      typ,
		Year:      parsed.Year,
		SourceURL: page.URL,
	}

	applied := 0
	for _, p := range Table(doc) {
		for _, rule := range e.rules {
			if !rule.Match(p) {
				continue
			}
			if rule.Apply(rec, p, e.bounds) {
				applied++
			}
			break
		}
	}

	if rec.Engine.PowerHP == 0 || rec.Engine.Cylinders == 0 {
		Fallback(rec, cleanText(doc.Find("body").Text()), e.bounds)
	}
	e.completePower(rec)

	if rec.Dimensions.IsZero() {
		rec.Dimensions = nil
	}
	if rec.Capacities.IsZero() {
		rec.Capacities = nil
	}
	rec.Documentation = documents(doc, page.URL)

	e.normalizer.Normalize(ctx, rec)
	if IsPlaceholder(rec.Brand) || IsPlaceholder(rec.Model) || rec.ID == "" {
		return nil, fmt.Errorf("%w: title %q", ErrUnresolvedIdentity, title)
	}

	rec.Description = Describe(rec)
	rec.MetaKeywords = Keywords(rec)

	logger.FromContext(ctx).WithFields(logger.Fields{
		"id":            rec.ID,
		"rules_applied": applied,
	}).Debug("Extracted record")
	return rec, nil
}

// completePower derives the missing power unit from the one present.
func (e *Extractor) completePower(rec *domain.Tractor) {
	eng := &rec.Engine
	switch {
	case eng.PowerHP == 0 && eng.PowerKW > 0:
		if hp := HPFromKW(eng.PowerKW); e.bounds.hp(hp) {
			eng.PowerHP = hp
		}
	case eng.PowerKW == 0 && eng.PowerHP > 0:
		if kw := KWFromHP(eng.PowerHP); e.bounds.kw(kw) {
			eng.PowerKW = kw
		}
	}
}

func heading(doc *goquery.Document) string {
	var title string
	doc.Find("h1").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title = cleanText(s.Text())
		return title == ""
	})
	if title == "" {
		title = cleanText(doc.Find("title").First().Text())
	}
	return title
}

func typeFromURL(raw string) domain.TractorType {
	u, err := url.Parse(raw)
	if err != nil {
		return domain.TractorTypeFarm
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	return domain.TypeForCategory(segments[0])
}

// documents collects links to manuals and brochures.
func documents(doc *goquery.Document, pageURL string) []domain.DocumentLink {
	base, _ := url.Parse(pageURL)
	var out []domain.DocumentLink
	seen := make(map[string]bool)

	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		text := cleanText(a.Text())
		lowerText := strings.ToLower(text)
		lowerHref := strings.ToLower(href)
		isDoc := strings.HasSuffix(lowerHref, ".pdf") ||
			strings.Contains(lowerText, "manual") ||
			strings.Contains(lowerText, "brochure") ||
			strings.Contains(lowerText, "spec sheet")
		if !isDoc {
			return true
		}

		ref, err := url.Parse(href)
		if err != nil {
			return true
		}
		abs := ref
		if base != nil {
			abs = base.ResolveReference(ref)
		}
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return true
		}
		link := abs.String()
		if seen[link] {
			return true
		}
		seen[link] = true
		if text == "" {
			text = path.Base(abs.Path)
		}
		out = append(out, domain.DocumentLink{Title: text, URL: link})
		return len(out) < maxDocuments
	})
	return out
}
