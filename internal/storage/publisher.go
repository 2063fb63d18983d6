package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/timmy/tractorhub/internal/logger"
)

// Publisher uploads finished artifacts. Every file goes to a dated key and
// to a stable "latest" key; a file identical to the current latest object is
// not uploaded again.
type Publisher struct {
	store  ObjectStorage
	fs     afero.Fs
	prefix string
	now    func() time.Time
}

// NewPublisher creates a publisher writing under prefix.
func NewPublisher(store ObjectStorage, fs afero.Fs, prefix string) *Publisher {
	return &Publisher{
		store:  store,
		fs:     fs,
		prefix: strings.Trim(prefix, "/"),
		now:    time.Now,
	}
}

// Publish uploads files produced by job and returns their latest URLs.
// Missing files are skipped with a warning.
func (p *Publisher) Publish(ctx context.Context, job string, files ...string) ([]string, error) {
	stamp := p.now().UTC().Format("20060102T150405Z")
	var urls []string

	for _, file := range files {
		data, err := afero.ReadFile(p.fs, file)
		if err != nil {
			logger.FromContext(ctx).WithError(err).WithField("path", file).Warn("Skipping artifact")
			continue
		}

		name := filepath.Base(file)
		contentType := contentTypeFor(name)
		keys := []string{
			path.Join(p.prefix, job, stamp, name),
			path.Join(p.prefix, "latest", name),
		}
		url := p.store.GetURL(keys[1])
		if p.unchanged(ctx, keys[1], data) {
			urls = append(urls, url)
			logger.FromContext(ctx).WithField(logger.FieldURL, url).Debug("Artifact unchanged")
			continue
		}
		for _, key := range keys {
			if err := p.store.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
				return urls, fmt.Errorf("publish %s: %w", name, err)
			}
		}

		urls = append(urls, url)
		logger.With(logger.Fields{
			logger.FieldURL:  url,
			logger.FieldSize: len(data),
		}).Info(ctx, "Artifact published")
	}
	return urls, nil
}

// unchanged reports whether the object at key already holds data. Lookup
// errors count as changed.
func (p *Publisher) unchanged(ctx context.Context, key string, data []byte) bool {
	ok, err := p.store.Exists(ctx, key)
	if err != nil || !ok {
		return false
	}
	rc, err := p.store.Download(ctx, key)
	if err != nil {
		return false
	}
	defer rc.Close()
	current, err := io.ReadAll(rc)
	return err == nil && bytes.Equal(current, data)
}

func contentTypeFor(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return "application/json"
	case ".jsonl":
		return "application/x-ndjson"
	default:
		return "application/octet-stream"
	}
}
