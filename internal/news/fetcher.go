package news

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/timmy/tractorhub/internal/config"
	"github.com/timmy/tractorhub/internal/domain"
	"github.com/timmy/tractorhub/internal/logger"
)

// Getter downloads a URL body.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// FeedFetcher downloads RSS/Atom feeds and maps their entries to news items.
type FeedFetcher struct {
	getter     Getter
	excerptLen int
	now        func() time.Time
}

// NewFeedFetcher creates a fetcher.
// Parameters:
//   - getter: HTTP body getter, usually *fetch.Client.
//   - excerptLen: maximum excerpt length in runes.
//
// Returns:
//   - *FeedFetcher: ready fetcher.
func NewFeedFetcher(getter Getter, excerptLen int) *FeedFetcher {
	if excerptLen <= 0 {
		excerptLen = 280
	}
	return &FeedFetcher{getter: getter, excerptLen: excerptLen, now: time.Now}
}

// FetchAll fetches every feed. A failing feed is logged and skipped.
func (f *FeedFetcher) FetchAll(ctx context.Context, feeds []config.FeedConfig) []domain.NewsItem {
	var all []domain.NewsItem
	for _, feed := range feeds {
		if ctx.Err() != nil {
			break
		}
		items, err := f.Fetch(ctx, feed)
		if err != nil {
			logger.FromContext(ctx).WithError(err).WithField(logger.FieldSource, feed.Name).
				Warn("Skipping news feed")
			continue
		}
		logger.With(logger.Fields{
			logger.FieldSource: feed.Name,
			logger.FieldCount:  len(items),
		}).Info(ctx, "News feed fetched")
		all = append(all, items...)
	}
	return all
}

// Fetch downloads and parses one feed.
func (f *FeedFetcher) Fetch(ctx context.Context, feed config.FeedConfig) ([]domain.NewsItem, error) {
	body, err := f.getter.Get(ctx, feed.URL)
	if err != nil {
		return nil, err
	}
	return f.Parse(body, feed)
}

// Parse maps a raw feed document to news items. Entries without a title or
// link are dropped.
func (f *FeedFetcher) Parse(body []byte, feed config.FeedConfig) ([]domain.NewsItem, error) {
	parsed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feed.Name, err)
	}

	fetchedAt := f.now().UTC()
	items := make([]domain.NewsItem, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		title := strings.TrimSpace(it.Title)
		link := strings.TrimSpace(it.Link)
		if title == "" || link == "" {
			continue
		}

		published := fetchedAt
		switch {
		case it.PublishedParsed != nil:
			published = it.PublishedParsed.UTC()
		case it.UpdatedParsed != nil:
			published = it.UpdatedParsed.UTC()
		}

		raw := it.Description
		if raw == "" {
			raw = it.Content
		}

		items = append(items, domain.NewsItem{
			Title:       title,
			URL:         link,
			PublishedAt: published,
			Source:      feed.Name,
			Category:    feed.Category,
			Excerpt:     Excerpt(raw, f.excerptLen),
			ImageURL:    itemImage(it),
		})
	}
	return items, nil
}

// Excerpt strips markup from html and truncates the text to max runes on a
// word boundary.
func Excerpt(html string, max int) string {
	text := html
	if strings.Contains(html, "<") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(html)); err == nil {
			text = doc.Text()
		}
	}
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if max <= 0 || len(runes) <= max {
		return text
	}
	cut := string(runes[:max])
	if i := strings.LastIndex(cut, " "); i > max/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

func itemImage(it *gofeed.Item) string {
	if it.Image != nil && it.Image.URL != "" {
		return it.Image.URL
	}
	for _, enc := range it.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	if media, ok := it.Extensions["media"]; ok {
		for _, name := range []string{"thumbnail", "content"} {
			for _, e := range media[name] {
				if u := e.Attrs["url"]; u != "" {
					return u
				}
			}
		}
	}
	for _, html := range []string{it.Content, it.Description} {
		if !strings.Contains(html, "<img") {
			continue
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			continue
		}
		if src, ok := doc.Find("img[src]").First().Attr("src"); ok && strings.HasPrefix(src, "http") {
			return src
		}
	}
	return ""
}
