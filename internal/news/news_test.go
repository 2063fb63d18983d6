package news

import (
	"testing"
	"time"

	"github.com/timmy/tractorhub/internal/config"
	"github.com/timmy/tractorhub/internal/domain"
)

func TestNormalizeTitle(t *testing.T) {
	tests := map[string]string{
		"Deere Unveils New 8R Series — Farm Progress":        "deere unveils new 8r series",
		"Kubota's M7 gets a refresh - AgWeb":                 "kubotas m7 gets a refresh",
		"  Fendt: 1000 Vario, tested!  ":                     "fendt 1000 vario tested",
		"John Deere - recalls 5E tractors over brake defect": "john deere recalls 5e tractors over brake defect",
	}
	for in, want := range tests {
		if got := NormalizeTitle(in); got != want {
			t.Errorf("NormalizeTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		min  float64
		max  float64
	}{
		{"identical after normalization", "Deere unveils 8R — Farm Progress", "Deere unveils 8R - AgWeb", 1, 1},
		{"substring boost", "Deere unveils new 8R tractor lineup", "Deere unveils new 8R tractor lineup at Farm Show", 0.7, 1},
		{"unrelated", "Kubota opens new plant in Georgia", "Fendt wins tractor of the year award", 0, 0.1},
		{"empty", "", "Anything", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if got < tt.min || got > tt.max {
				t.Errorf("Similarity() = %v, want in [%v, %v]", got, tt.min, tt.max)
			}
		})
	}
}

func TestDedupeMergesTitleVariants(t *testing.T) {
	day := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	items := []domain.NewsItem{
		{Title: "John Deere announces electric tractor — Farm Journal", URL: "https://news.google.com/rss/articles/abc", PublishedAt: day, Excerpt: "Short"},
		{Title: "Kubota opens new plant", URL: "https://kubota.test/plant", PublishedAt: day},
		{Title: "John Deere Announces Electric Tractor", URL: "https://farmjournal.test/deere-electric", PublishedAt: day.Add(-time.Hour), Excerpt: "Short", ImageURL: "https://img.test/jd.jpg"},
	}

	got := Dedupe(items, DefaultThreshold)
	if len(got) != 2 {
		t.Fatalf("Dedupe() kept %d items, want 2", len(got))
	}
	if got[0].URL != "https://farmjournal.test/deere-electric" {
		t.Errorf("merged item = %q, want the one with an image", got[0].URL)
	}
}

func TestDedupeKeepsStoriesSharingAPrefix(t *testing.T) {
	day := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	items := []domain.NewsItem{
		{Title: "John Deere - new 8R series unveiled at Agritechnica", URL: "https://a.test/8r", PublishedAt: day},
		{Title: "John Deere - recalls 5E tractors over brake defect", URL: "https://b.test/recall", PublishedAt: day},
	}
	if got := Similarity(items[0].Title, items[1].Title); got >= DefaultThreshold {
		t.Errorf("Similarity() = %v, want below %v", got, DefaultThreshold)
	}
	if got := Dedupe(items, DefaultThreshold); len(got) != 2 {
		t.Errorf("Dedupe() kept %d items, want 2", len(got))
	}
}

func TestBetter(t *testing.T) {
	base := domain.NewsItem{URL: "https://pub.test/a", PublishedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Excerpt: "0123456789"}

	withImage := base
	withImage.ImageURL = "https://img.test/x.jpg"

	longer := base
	longer.Excerpt = "0123456789abc"

	slightlyLonger := base
	slightlyLonger.Excerpt = "0123456789a"

	aggregated := base
	aggregated.URL = "https://news.google.com/articles/x"
	aggregated.PublishedAt = base.PublishedAt.Add(time.Hour)

	newer := base
	newer.PublishedAt = base.PublishedAt.Add(time.Hour)

	tests := []struct {
		name string
		a, b domain.NewsItem
		want bool
	}{
		{"image wins", withImage, longer, true},
		{"no image loses", longer, withImage, false},
		{"richer excerpt wins", longer, base, true},
		{"under 20 percent is a tie", slightlyLonger, base, false},
		{"direct beats aggregator even when older", base, aggregated, true},
		{"newer wins last", newer, base, true},
		{"full tie keeps existing", base, base, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Better(tt.a, tt.b); got != tt.want {
				t.Errorf("Better() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRetainBoundaryInclusive(t *testing.T) {
	now := time.Date(2026, 7, 15, 10, 0, 0, 0, time.UTC)
	cutoff := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	items := []domain.NewsItem{
		{URL: "on-boundary", PublishedAt: cutoff},
		{URL: "just-before", PublishedAt: cutoff.Add(-time.Second)},
		{URL: "recent", PublishedAt: now.Add(-time.Hour)},
	}

	got := Retain(items, now, 6)
	if len(got) != 2 || got[0].URL != "on-boundary" || got[1].URL != "recent" {
		t.Errorf("Retain() = %+v", got)
	}
}

func TestBuildMergesHistory(t *testing.T) {
	now := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	previous := &domain.NewsDocument{Items: []domain.NewsItem{
		{Title: "Claas launches Xerion 12 - Profi", URL: "https://profi.test/xerion", PublishedAt: now.AddDate(0, -1, 0)},
		{Title: "Old story", URL: "https://old.test/x", PublishedAt: now.AddDate(-1, 0, 0)},
	}}
	fresh := []domain.NewsItem{
		{Title: "Claas Launches Xerion 12", URL: "https://claas.test/xerion", PublishedAt: now.AddDate(0, -1, 1), ImageURL: "https://img.test/x.jpg"},
		{Title: "Valtra Q series arrives", URL: "https://valtra.test/q", PublishedAt: now.AddDate(0, 0, -1)},
	}

	doc := Build(previous, fresh, now, Options{Threshold: DefaultThreshold, RetentionMonths: 6})
	if len(doc.Items) != 2 {
		t.Fatalf("Build() kept %d items: %+v", len(doc.Items), doc.Items)
	}
	if doc.Items[0].URL != "https://valtra.test/q" || doc.Items[1].URL != "https://claas.test/xerion" {
		t.Errorf("Build() order = %q, %q", doc.Items[0].URL, doc.Items[1].URL)
	}
	if !doc.FetchedAt.Equal(now) {
		t.Errorf("FetchedAt = %v", doc.FetchedAt)
	}
}

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:media="http://search.yahoo.com/mrss/">
<channel>
  <title>Farm Equipment News</title>
  <item>
    <title>New compact tractor from Kioti</title>
    <link>https://fe.test/kioti</link>
    <pubDate>Mon, 06 Jul 2026 09:00:00 GMT</pubDate>
    <description><![CDATA[<p>Kioti has <b>announced</b> a new compact tractor for hobby farms and small acreage owners.</p>]]></description>
    <media:thumbnail url="https://fe.test/kioti.jpg"/>
  </item>
  <item>
    <title></title>
    <link>https://fe.test/untitled</link>
  </item>
  <item>
    <title>Dealer news</title>
    <link>https://fe.test/dealer</link>
    <enclosure url="https://fe.test/dealer.png" type="image/png" length="10"/>
  </item>
</channel>
</rss>`

func TestParseFeed(t *testing.T) {
	f := NewFeedFetcher(nil, 40)
	fetchedAt := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	f.now = func() time.Time { return fetchedAt }

	items, err := f.Parse([]byte(rssFixture), config.FeedConfig{Name: "FE", URL: "https://fe.test/rss", Category: "industry"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Parse() returned %d items", len(items))
	}

	first := items[0]
	if first.Source != "FE" || first.Category != "industry" {
		t.Errorf("source/category = %q/%q", first.Source, first.Category)
	}
	if first.ImageURL != "https://fe.test/kioti.jpg" {
		t.Errorf("ImageURL = %q", first.ImageURL)
	}
	if !first.PublishedAt.Equal(time.Date(2026, 7, 6, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("PublishedAt = %v", first.PublishedAt)
	}
	if len([]rune(first.Excerpt)) > 41 || first.Excerpt[:9] != "Kioti has" {
		t.Errorf("Excerpt = %q", first.Excerpt)
	}

	second := items[1]
	if second.ImageURL != "https://fe.test/dealer.png" {
		t.Errorf("enclosure image = %q", second.ImageURL)
	}
	if !second.PublishedAt.Equal(fetchedAt) {
		t.Errorf("undated item PublishedAt = %v, want fetch time", second.PublishedAt)
	}
}

func TestExcerpt(t *testing.T) {
	if got := Excerpt("<p>Short text</p>", 100); got != "Short text" {
		t.Errorf("Excerpt() = %q", got)
	}
	got := Excerpt("one two three four five six", 12)
	if got != "one two…" {
		t.Errorf("Excerpt() = %q", got)
	}
}
