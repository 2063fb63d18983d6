package imagesearch

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

// CommonsSearcher queries the Wikimedia Commons file namespace through the
// MediaWiki API. It reports license and dimensions for every result.
type CommonsSearcher struct {
	client   *resty.Client
	endpoint string
	limit    int
}

// NewCommonsSearcher creates a Commons backend.
// Parameters:
//   - client: shared resty client (paced and identified).
//   - endpoint: api.php URL.
//   - limit: maximum results per query.
//
// Returns:
//   - *CommonsSearcher: ready backend.
func NewCommonsSearcher(client *resty.Client, endpoint string, limit int) *CommonsSearcher {
	if limit <= 0 {
		limit = 20
	}
	return &CommonsSearcher{client: client, endpoint: endpoint, limit: limit}
}

func (s *CommonsSearcher) Name() string {
	return "commons"
}

func (s *CommonsSearcher) Exclusive() bool {
	return false
}

// Search runs one full-text search over File: pages.
func (s *CommonsSearcher) Search(ctx context.Context, q Query) ([]Candidate, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"action":        "query",
			"format":        "json",
			"formatversion": "2",
			"generator":     "search",
			"gsrsearch":     q.Text,
			"gsrnamespace":  "6",
			"gsrlimit":      fmt.Sprintf("%d", s.limit),
			"prop":          "imageinfo",
			"iiprop":        "url|size|extmetadata",
		}).
		Get(s.endpoint)
	if err != nil {
		return nil, fmt.Errorf("commons search: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("commons search: status %d", resp.StatusCode())
	}
	return parseCommons(resp.Body())
}

type indexedCandidate struct {
	index int
	Candidate
}

func parseCommons(body []byte) ([]Candidate, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("commons search: invalid json response")
	}
	root := gjson.ParseBytes(body)
	if msg := root.Get("error.info"); msg.Exists() {
		return nil, fmt.Errorf("commons search: %s", msg.String())
	}

	var found []indexedCandidate
	root.Get("query.pages").ForEach(func(_, page gjson.Result) bool {
		info := page.Get("imageinfo.0")
		if !info.Exists() || info.Get("url").String() == "" {
			return true
		}
		meta := info.Get("extmetadata")
		title := page.Get("title").String()
		if name := meta.Get("ObjectName.value").String(); name != "" {
			title = name + " " + title
		}
		found = append(found, indexedCandidate{
			index: int(page.Get("index").Int()),
			Candidate: Candidate{
				URL:         info.Get("url").String(),
				Title:       fileTitle(title),
				Description: stripHTML(meta.Get("ImageDescription.value").String()),
				Width:       int(info.Get("width").Int()),
				Height:      int(info.Get("height").Int()),
				License:     meta.Get("LicenseShortName.value").String(),
				Source:      "commons",
			},
		})
		return true
	})

	sort.SliceStable(found, func(i, j int) bool { return found[i].index < found[j].index })
	out := make([]Candidate, len(found))
	for i, f := range found {
		out[i] = f.Candidate
	}
	return out, nil
}

func fileTitle(t string) string {
	t = strings.TrimSpace(t)
	if i := strings.Index(t, "File:"); i >= 0 {
		name := t[i+len("File:"):]
		name = strings.TrimSuffix(name, path.Ext(name))
		t = strings.TrimSpace(t[:i] + name)
	}
	return strings.ReplaceAll(t, "_", " ")
}

func stripHTML(s string) string {
	if !strings.Contains(s, "<") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
