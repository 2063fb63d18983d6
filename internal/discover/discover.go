// Package discover walks listing pages and collects canonical tractor
// detail links.
package discover

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/timmy/tractorhub/internal/config"
	"github.com/timmy/tractorhub/internal/domain"
	"github.com/timmy/tractorhub/internal/logger"
)

// Fetcher loads and parses one HTML page.
type Fetcher interface {
	Document(ctx context.Context, url string) (*goquery.Document, error)
}

// Discoverer extracts detail links from listing pages.
type Discoverer struct {
	fetcher   Fetcher
	canonical *regexp.Regexp
	exclude   []*regexp.Regexp
	pageCap   int
	now       func() time.Time
}

// New compiles the configured patterns into a Discoverer.
// Parameters:
//   - fetcher: page loader, usually *fetch.Client.
//   - cfg: canonical pattern, exclusions and page cap.
//
// Returns:
//   - *Discoverer: ready discoverer.
//   - error: a pattern failed to compile.
func New(fetcher Fetcher, cfg config.DiscoverConfig) (*Discoverer, error) {
	canonical, err := regexp.Compile(cfg.CanonicalPattern)
	if err != nil {
		return nil, fmt.Errorf("compile canonical pattern: %w", err)
	}

	exclude := make([]*regexp.Regexp, 0, len(cfg.ExcludePatterns))
	for _, p := range cfg.ExcludePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile exclude pattern %q: %w", p, err)
		}
		exclude = append(exclude, re)
	}

	pageCap := cfg.PageCap
	if pageCap <= 0 {
		pageCap = 25
	}

	return &Discoverer{
		fetcher:   fetcher,
		canonical: canonical,
		exclude:   exclude,
		pageCap:   pageCap,
		now:       time.Now,
	}, nil
}

// Discover returns the canonical detail links reachable from listingURL,
// following pagination up to the page cap. Links are unique and kept in
// order of first appearance.
func (d *Discoverer) Discover(ctx context.Context, listingURL string) ([]domain.DetailLink, error) {
	base, err := url.Parse(listingURL)
	if err != nil {
		return nil, fmt.Errorf("parse listing url: %w", err)
	}

	var (
		links   []domain.DetailLink
		seen    = make(map[string]struct{})
		visited = make(map[string]struct{})
		pageURL = base.String()
	)

	for page := 0; page < d.pageCap && pageURL != ""; page++ {
		if _, ok := visited[pageURL]; ok {
			break
		}
		visited[pageURL] = struct{}{}

		if err := ctx.Err(); err != nil {
			return links, err
		}

		doc, err := d.fetcher.Document(ctx, pageURL)
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("fetch listing %s: %w", pageURL, err)
			}
			logger.CtxWarn(ctx, "Stopping pagination at %s: %v", pageURL, err)
			break
		}

		current, _ := url.Parse(pageURL)
		found := d.collect(doc, current, base, listingURL, seen)
		links = append(links, found...)

		logger.With(logger.Fields{
			logger.FieldURL:   pageURL,
			logger.FieldCount: len(found),
		}).Debug(ctx, "Listing page scanned")

		pageURL = nextPage(doc, current)
	}

	return links, nil
}

// DiscoverAll runs Discover for every listing and concatenates the results.
// A failing listing is logged and skipped.
func (d *Discoverer) DiscoverAll(ctx context.Context, listingURLs []string) []domain.DetailLink {
	var all []domain.DetailLink
	seen := make(map[string]struct{})

	for _, listing := range listingURLs {
		if ctx.Err() != nil {
			break
		}
		links, err := d.Discover(ctx, listing)
		if err != nil {
			logger.CtxWarn(ctx, "Skipping listing %s: %v", listing, err)
			continue
		}
		for _, l := range links {
			if _, ok := seen[l.URL]; ok {
				continue
			}
			seen[l.URL] = struct{}{}
			all = append(all, l)
		}
	}

	logger.With(logger.Fields{
		logger.FieldCount: len(all),
	}).Info(ctx, "Discovery finished over %d listings", len(listingURLs))
	return all
}

// Canonical reports whether u is a canonical detail link on host.
func (d *Discoverer) Canonical(u *url.URL, host string) bool {
	if u == nil || !strings.EqualFold(u.Hostname(), host) {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if !d.canonical.MatchString(u.Path) {
		return false
	}
	for _, re := range d.exclude {
		if re.MatchString(u.Path) {
			return false
		}
	}
	return true
}

func (d *Discoverer) collect(doc *goquery.Document, current, base *url.URL, listingURL string, seen map[string]struct{}) []domain.DetailLink {
	var out []domain.DetailLink
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		u, err := current.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		u.Fragment = ""
		u.RawQuery = ""
		if !d.Canonical(u, base.Hostname()) {
			return
		}
		key := u.String()
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}

		category := Category(u.Path)
		out = append(out, domain.DetailLink{
			URL:          key,
			Category:     category,
			Type:         domain.TypeForCategory(category),
			BrandHint:    strings.Join(strings.Fields(a.Text()), " "),
			ListingURL:   listingURL,
			DiscoveredAt: d.now().UTC(),
		})
	})
	return out
}

// Category returns the first path segment of a detail link.
func Category(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.Index(path, "/"); i >= 0 {
		return path[:i]
	}
	return ""
}

var nextTexts = map[string]bool{
	"next":      true,
	"next page": true,
	"›":         true,
	"»":         true,
	"next ›":    true,
	"next »":    true,
}

func nextPage(doc *goquery.Document, current *url.URL) string {
	var next string
	doc.Find("a[rel~=next], link[rel~=next]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if href, ok := s.Attr("href"); ok && strings.TrimSpace(href) != "" {
			next = href
			return false
		}
		return true
	})
	if next == "" {
		doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := strings.ToLower(strings.Join(strings.Fields(s.Text()), " "))
			if nextTexts[text] {
				next, _ = s.Attr("href")
				return false
			}
			return true
		})
	}
	if next == "" {
		return ""
	}
	u, err := current.Parse(strings.TrimSpace(next))
	if err != nil || !strings.EqualFold(u.Hostname(), current.Hostname()) {
		return ""
	}
	u.Fragment = ""
	return u.String()
}
