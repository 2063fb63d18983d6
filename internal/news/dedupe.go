package news

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/timmy/tractorhub/internal/domain"
)

var aggregatorHosts = map[string]bool{
	"news.google.com":      true,
	"feedproxy.google.com": true,
	"feeds.feedburner.com": true,
	"news.yahoo.com":       true,
	"www.msn.com":          true,
	"flipboard.com":        true,
	"www.bing.com":         true,
	"t.co":                 true,
	"l.facebook.com":       true,
	"www.newsnow.co.uk":    true,
	"apple.news":           true,
}

// IsAggregator reports whether rawURL points at a redirecting aggregator
// rather than the publisher.
func IsAggregator(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if aggregatorHosts[host] {
		return true
	}
	q := u.Query()
	return q.Get("url") != "" || q.Get("u") != ""
}

// Better reports whether a should replace b when both report the same story.
// Preference order: has an image, an excerpt more than 20% longer, a direct
// publisher URL, then the more recent item. Full ties keep b.
func Better(a, b domain.NewsItem) bool {
	if (a.ImageURL != "") != (b.ImageURL != "") {
		return a.ImageURL != ""
	}

	la, lb := len([]rune(a.Excerpt)), len([]rune(b.Excerpt))
	if float64(la) > float64(lb)*1.2 {
		return true
	}
	if float64(lb) > float64(la)*1.2 {
		return false
	}

	if aggA, aggB := IsAggregator(a.URL), IsAggregator(b.URL); aggA != aggB {
		return !aggA
	}

	return a.PublishedAt.After(b.PublishedAt)
}

// Dedupe merges items whose titles are at least threshold similar, keeping
// the better item of each group. Order of first appearance is kept.
func Dedupe(items []domain.NewsItem, threshold float64) []domain.NewsItem {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	kept := make([]domain.NewsItem, 0, len(items))
	for _, item := range items {
		merged := false
		for i := range kept {
			if kept[i].URL == item.URL || Similarity(kept[i].Title, item.Title) >= threshold {
				if Better(item, kept[i]) {
					kept[i] = item
				}
				merged = true
				break
			}
		}
		if !merged {
			kept = append(kept, item)
		}
	}
	return kept
}

// Retain drops items published before now minus months. An item exactly on
// the boundary is kept.
func Retain(items []domain.NewsItem, now time.Time, months int) []domain.NewsItem {
	cutoff := now.AddDate(0, -months, 0)
	out := make([]domain.NewsItem, 0, len(items))
	for _, item := range items {
		if !item.PublishedAt.Before(cutoff) {
			out = append(out, item)
		}
	}
	return out
}

// SortNewest orders items by publication time, newest first. Ties are broken
// by URL so output is stable across runs.
func SortNewest(items []domain.NewsItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].PublishedAt.Equal(items[j].PublishedAt) {
			return items[i].PublishedAt.After(items[j].PublishedAt)
		}
		return items[i].URL < items[j].URL
	})
}

// Options controls Build.
type Options struct {
	Threshold       float64
	RetentionMonths int
}

// Build combines the previously persisted items with fresh ones and returns
// the retained, deduplicated, sorted document. Expired items are dropped
// before merging so an expired copy can never absorb a live story.
func Build(previous *domain.NewsDocument, fresh []domain.NewsItem, now time.Time, opts Options) domain.NewsDocument {
	var all []domain.NewsItem
	if previous != nil {
		all = append(all, previous.Items...)
	}
	all = append(all, fresh...)

	items := Dedupe(Retain(all, now, opts.RetentionMonths), opts.Threshold)
	SortNewest(items)
	return domain.NewsDocument{FetchedAt: now.UTC(), Items: items}
}
