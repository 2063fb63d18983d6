package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, `
http:
  timeout: 10s
runner:
  concurrency: 2
news:
  retention_months: 3
  feeds:
    - name: Farm Weekly
      url: https://farm.test/rss
      category: industry
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTP.Timeout != 10*time.Second {
		t.Errorf("http.timeout = %v, want 10s", cfg.HTTP.Timeout)
	}
	if cfg.Runner.Concurrency != 2 || cfg.Runner.SaveEvery != 10 {
		t.Errorf("runner = %+v", cfg.Runner)
	}
	if cfg.Discover.PageCap != 25 || cfg.Extract.Bounds.MaxHP != 1000 {
		t.Errorf("defaults not applied: page_cap=%d max_hp=%v", cfg.Discover.PageCap, cfg.Extract.Bounds.MaxHP)
	}
	wantFeeds := []FeedConfig{{Name: "Farm Weekly", URL: "https://farm.test/rss", Category: "industry"}}
	if diff := cmp.Diff(wantFeeds, cfg.News.Feeds); diff != "" {
		t.Errorf("feeds mismatch (-want +got):\n%s", diff)
	}
	if cfg.News.RetentionMonths != 3 || cfg.News.SimilarityThreshold != 0.6 {
		t.Errorf("news = %+v", cfg.News)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown log level", "logging:\n  level: loud\n"},
		{"inverted hp bounds", "extract:\n  bounds:\n    min_hp: 500\n    max_hp: 100\n"},
		{"zero concurrency", "runner:\n  concurrency: 0\n"},
		{"storage without bucket", "storage:\n  enabled: true\n  endpoint: http://minio:9000\n"},
		{"feed without url", "news:\n  feeds:\n    - name: broken\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.body)); err == nil {
				t.Error("Load() error = nil, want validation error")
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Load() error = nil for a missing explicit file")
	}
}

func TestPathsResolve(t *testing.T) {
	p := PathsConfig{DataDir: "/srv/data", CheckpointDir: "checkpoints"}
	tests := []struct {
		in   string
		want string
	}{
		{"catalog.json", "/srv/data/catalog.json"},
		{"/abs/news.json", "/abs/news.json"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := p.Resolve(tt.in); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := p.Checkpoint("scrape"); got != "/srv/data/checkpoints/scrape.checkpoint.json" {
		t.Errorf("Checkpoint() = %q", got)
	}
}

func TestToLoggerConfig(t *testing.T) {
	cfg := &Config{Logging: LoggingConfig{Level: "debug", Format: "json", File: "run.log", MaxSizeMB: 5}}
	got := cfg.ToLoggerConfig("tractorhub-scrape")
	if got.ServiceName != "tractorhub-scrape" || got.Level != "debug" || got.File != "run.log" || got.MaxSizeMB != 5 {
		t.Errorf("ToLoggerConfig() = %+v", got)
	}
}
