package imagesearch

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/timmy/tractorhub/internal/brand"
)

// DocumentFetcher loads and parses one HTML page.
type DocumentFetcher interface {
	Document(ctx context.Context, url string) (*goquery.Document, error)
}

// BrandSiteSearcher looks for the model on the brand's own website and
// returns the page's Open Graph images. It only answers the first query
// variant since the result does not depend on the query text.
type BrandSiteSearcher struct {
	fetcher DocumentFetcher
	assets  *brand.Assets
}

// NewBrandSiteSearcher creates the backend.
func NewBrandSiteSearcher(fetcher DocumentFetcher, assets *brand.Assets) *BrandSiteSearcher {
	return &BrandSiteSearcher{fetcher: fetcher, assets: assets}
}

func (s *BrandSiteSearcher) Name() string {
	return "brand-site"
}

func (s *BrandSiteSearcher) Exclusive() bool {
	return false
}

// Search fetches the brand home page, follows the first link mentioning the
// model and collects og:image and twitter:image tags along the way.
func (s *BrandSiteSearcher) Search(ctx context.Context, q Query) ([]Candidate, error) {
	if q.Variant != 0 {
		return nil, nil
	}
	site, ok := s.assets.Website(q.Brand)
	if !ok {
		return nil, nil
	}
	base, err := url.Parse(site)
	if err != nil {
		return nil, fmt.Errorf("brand site %q: %w", site, err)
	}

	home, err := s.fetcher.Document(ctx, site)
	if err != nil {
		return nil, err
	}

	model := strings.ToLower(q.Model)
	var modelPage string
	home.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		text := strings.ToLower(a.Text())
		href, _ := a.Attr("href")
		if strings.Contains(text, model) || strings.Contains(strings.ToLower(href), strings.ReplaceAll(model, " ", "-")) {
			if u, err := base.Parse(href); err == nil && u.Host == base.Host {
				modelPage = u.String()
				return false
			}
		}
		return true
	})
	if modelPage == "" {
		return nil, nil
	}

	doc, err := s.fetcher.Document(ctx, modelPage)
	if err != nil {
		return nil, err
	}
	pageBase, _ := url.Parse(modelPage)

	title := strings.TrimSpace(doc.Find(`meta[property="og:title"]`).AttrOr("content", ""))
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	desc := strings.TrimSpace(doc.Find(`meta[property="og:description"]`).AttrOr("content", ""))

	var out []Candidate
	seen := make(map[string]bool)
	doc.Find(`meta[property="og:image"], meta[name="twitter:image"]`).Each(func(_ int, m *goquery.Selection) {
		content := strings.TrimSpace(m.AttrOr("content", ""))
		if content == "" {
			return
		}
		u, err := pageBase.Parse(content)
		if err != nil || seen[u.String()] {
			return
		}
		seen[u.String()] = true
		out = append(out, Candidate{
			URL:         u.String(),
			Title:       title,
			Description: desc,
			Source:      s.Name(),
		})
	})
	return out, nil
}
