package discover

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/timmy/tractorhub/internal/config"
	"github.com/timmy/tractorhub/internal/domain"
	"github.com/timmy/tractorhub/internal/fetch"
)

func testDiscoverConfig() config.DiscoverConfig {
	return config.DiscoverConfig{
		PageCap:          25,
		CanonicalPattern: `^/[a-z-]+/\d+/\d+/\d+/\d+-[a-z0-9-]+\.html$`,
		ExcludePatterns:  []string{`(?i)index`, `(?i)/category/`, `(?i)/show/`, `(?i)-show\.html$`},
	}
}

func newTestDiscoverer(t *testing.T) *Discoverer {
	t.Helper()
	client := fetch.NewClient(config.HTTPConfig{UserAgent: "test", Timeout: 5 * time.Second})
	d, err := New(client, testDiscoverConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	d.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return d
}

func serve(pages map[string]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = fmt.Fprint(w, body)
	}))
}

func TestDiscoverPrecision(t *testing.T) {
	srv := serve(map[string]string{
		"/farm-tractors/index.html": `<html><body>
			<a href="/farm-tractors/000/0/0/12-john-deere-5075e.html">John Deere 5075E</a>
			<a href="/farm-tractors/000/0/0/13-kubota-m7060.html">Kubota M7060</a>
			<a href="/lawn-tractors/000/0/0/14-cub-cadet-xt1.html">Cub Cadet XT1</a>
			<a href="/farm-tractors/category/john-deere.html">John Deere</a>
			<a href="/farm-tractors/index.html">Farm tractors</a>
			<a href="https://elsewhere.example/farm-tractors/000/0/0/15-other.html">Other</a>
			<a href="/farm-tractors/000/0/0/12-john-deere-5075e.html#specs">again</a>
		</body></html>`,
	})
	defer srv.Close()

	d := newTestDiscoverer(t)
	links, err := d.Discover(context.Background(), srv.URL+"/farm-tractors/index.html")
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	var got []string
	for _, l := range links {
		got = append(got, strings.TrimPrefix(l.URL, srv.URL))
	}
	want := []string{
		"/farm-tractors/000/0/0/12-john-deere-5075e.html",
		"/farm-tractors/000/0/0/13-kubota-m7060.html",
		"/lawn-tractors/000/0/0/14-cub-cadet-xt1.html",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}

	if links[2].Type != domain.TractorTypeLawn || links[2].Category != "lawn-tractors" {
		t.Errorf("lawn link = %+v", links[2])
	}
	if links[0].Type != domain.TractorTypeFarm {
		t.Errorf("farm link type = %q", links[0].Type)
	}
	if links[0].BrandHint != "John Deere 5075E" {
		t.Errorf("BrandHint = %q", links[0].BrandHint)
	}
}

func TestDiscoverPagination(t *testing.T) {
	srv := serve(map[string]string{
		"/farm-tractors/p1.html": `<a href="/farm-tractors/000/0/0/1-a-one.html">a</a>
			<a rel="next" href="/farm-tractors/p2.html">2</a>`,
		"/farm-tractors/p2.html": `<a href="/farm-tractors/000/0/0/2-b-two.html">b</a>
			<a href="/farm-tractors/000/0/0/1-a-one.html">a again</a>
			<a href="/farm-tractors/p3.html">Next</a>`,
		"/farm-tractors/p3.html": `<a href="/farm-tractors/000/0/0/3-c-three.html">c</a>
			<a href="/farm-tractors/p1.html">»</a>`,
	})
	defer srv.Close()

	t.Run("follows next links until a page repeats", func(t *testing.T) {
		d := newTestDiscoverer(t)
		links, err := d.Discover(context.Background(), srv.URL+"/farm-tractors/p1.html")
		if err != nil {
			t.Fatalf("Discover() error = %v", err)
		}
		if len(links) != 3 {
			t.Fatalf("got %d links, want 3: %+v", len(links), links)
		}
	})

	t.Run("page cap", func(t *testing.T) {
		d := newTestDiscoverer(t)
		d.pageCap = 2
		links, err := d.Discover(context.Background(), srv.URL+"/farm-tractors/p1.html")
		if err != nil {
			t.Fatalf("Discover() error = %v", err)
		}
		if len(links) != 2 {
			t.Fatalf("got %d links, want 2", len(links))
		}
	})
}

func TestDiscoverAllSkipsFailures(t *testing.T) {
	srv := serve(map[string]string{
		"/farm-tractors/p1.html": `<a href="/farm-tractors/000/0/0/1-a-one.html">a</a>`,
		"/lawn-tractors/p1.html": `<a href="/lawn-tractors/000/0/0/2-b-two.html">b</a>
			<a href="/farm-tractors/000/0/0/1-a-one.html">a</a>`,
	})
	defer srv.Close()

	d := newTestDiscoverer(t)
	links := d.DiscoverAll(context.Background(), []string{
		srv.URL + "/farm-tractors/p1.html",
		srv.URL + "/missing.html",
		srv.URL + "/lawn-tractors/p1.html",
	})
	if len(links) != 2 {
		t.Fatalf("got %d links, want 2: %+v", len(links), links)
	}
}

func TestNewRejectsBadPattern(t *testing.T) {
	cfg := testDiscoverConfig()
	cfg.CanonicalPattern = "("
	if _, err := New(nil, cfg); err == nil {
		t.Fatal("New() with invalid pattern should fail")
	}
}

func TestCategory(t *testing.T) {
	tests := map[string]string{
		"/farm-tractors/000/0/0/1-a.html": "farm-tractors",
		"/x.html":                         "",
		"":                                "",
	}
	for in, want := range tests {
		if got := Category(in); got != want {
			t.Errorf("Category(%q) = %q, want %q", in, got, want)
		}
	}
}
