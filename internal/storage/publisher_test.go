package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/timmy/tractorhub/internal/config"
)

func TestPublisher(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/data/catalog.json", []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "/data/links.jsonl", []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewMemoryStorage()
	p := NewPublisher(store, fs, "/tractorhub/")
	p.now = func() time.Time { return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC) }

	urls, err := p.Publish(context.Background(), "scrape", "/data/catalog.json", "/data/missing.json", "/data/links.jsonl")
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if len(urls) != 2 || urls[0] != "memory://tractorhub/latest/catalog.json" {
		t.Fatalf("urls = %v", urls)
	}

	for _, key := range []string{
		"tractorhub/scrape/20260203T040506Z/catalog.json",
		"tractorhub/latest/catalog.json",
		"tractorhub/latest/links.jsonl",
	} {
		ok, _ := store.Exists(context.Background(), key)
		if !ok {
			t.Errorf("object %s missing", key)
		}
	}
	if ct := store.ContentType("tractorhub/latest/links.jsonl"); ct != "application/x-ndjson" {
		t.Errorf("content type = %q", ct)
	}

	rc, err := store.Download(context.Background(), "tractorhub/latest/catalog.json")
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "[]" {
		t.Errorf("body = %q", body)
	}
}

func TestPublisherSkipsUnchanged(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/data/news.json", []byte(`{"items":[]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewMemoryStorage()
	p := NewPublisher(store, fs, "tractorhub")
	ctx := context.Background()

	p.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	if _, err := p.Publish(ctx, "news", "/data/news.json"); err != nil {
		t.Fatalf("first Publish() error = %v", err)
	}
	p.now = func() time.Time { return time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC) }
	urls, err := p.Publish(ctx, "news", "/data/news.json")
	if err != nil {
		t.Fatalf("second Publish() error = %v", err)
	}
	if len(urls) != 1 {
		t.Errorf("urls = %v, want the latest URL", urls)
	}
	if ok, _ := store.Exists(ctx, "tractorhub/news/20260102T000000Z/news.json"); ok {
		t.Error("unchanged artifact uploaded a second snapshot")
	}

	if err := afero.WriteFile(fs, "/data/news.json", []byte(`{"items":[1]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Publish(ctx, "news", "/data/news.json"); err != nil {
		t.Fatalf("third Publish() error = %v", err)
	}
	if ok, _ := store.Exists(ctx, "tractorhub/news/20260102T000000Z/news.json"); !ok {
		t.Error("changed artifact not snapshotted")
	}
}

func TestNewStorageDisabled(t *testing.T) {
	if _, err := NewStorage(context.Background(), config.StorageConfig{}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("NewStorage() error = %v, want ErrDisabled", err)
	}
}

func TestDetectStorageType(t *testing.T) {
	tests := map[string]StorageType{
		"https://abc.r2.cloudflarestorage.com": StorageTypeR2,
		"s3.us-east-1.amazonaws.com":           StorageTypeS3,
		"localhost:9000":                       StorageTypeS3Compatible,
	}
	for endpoint, want := range tests {
		if got := detectStorageType(endpoint); got != want {
			t.Errorf("detectStorageType(%q) = %q, want %q", endpoint, got, want)
		}
	}
}

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		endpoint string
		useSSL   bool
		want     string
	}{
		{"https://minio.local:9000/bucket/", false, "https://minio.local:9000"},
		{"minio.local:9000", false, "http://minio.local:9000"},
		{"abc.r2.cloudflarestorage.com", true, "https://abc.r2.cloudflarestorage.com"},
	}
	for _, tt := range tests {
		got, err := endpointURL(tt.endpoint, tt.useSSL)
		if err != nil || got != tt.want {
			t.Errorf("endpointURL(%q, %v) = %q, %v; want %q", tt.endpoint, tt.useSSL, got, err, tt.want)
		}
	}
	if _, err := endpointURL("", true); err == nil {
		t.Error("endpointURL(\"\") error = nil")
	}
}
