// Package staging reads and writes the JSONL links manifest produced by the
// discover job, so a scrape can replay a fixed work list.
package staging

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/timmy/tractorhub/internal/atomicfile"
	"github.com/timmy/tractorhub/internal/domain"
	"github.com/timmy/tractorhub/internal/logger"
)

// Adapter implements source.Source over a links manifest.
type Adapter struct {
	fs     afero.Fs
	path   string
	links  []domain.DetailLink
	loaded bool
}

// NewAdapter creates a manifest-backed adapter.
// Parameters:
//   - fs: filesystem holding the manifest.
//   - path: manifest location.
//
// Returns:
//   - *Adapter: initialized staging adapter.
func NewAdapter(fs afero.Fs, path string) *Adapter {
	return &Adapter{fs: fs, path: path}
}

// GetSourceID returns the unique identifier for this source.
func (a *Adapter) GetSourceID() string {
	return "staging:" + a.path
}

// GetDisplayName returns a human-readable name for this source.
func (a *Adapter) GetDisplayName() string {
	return fmt.Sprintf("Links manifest (%s)", a.path)
}

// FetchBatch returns up to limit links starting at the index in cursor.
// Parameters:
//   - ctx: used for logging only.
//   - cursor: index string, empty for the start.
//   - limit: maximum number of links.
//
// Returns:
//   - []domain.DetailLink: batch of links.
//   - string: next cursor or empty if no more links.
//   - error: non-nil if loading or parsing fails.
func (a *Adapter) FetchBatch(ctx context.Context, cursor string, limit int) ([]domain.DetailLink, string, error) {
	if !a.loaded {
		links, err := ReadManifest(ctx, a.fs, a.path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load links manifest: %w", err)
		}
		a.links = links
		a.loaded = true
	}

	startIndex := 0
	if cursor != "" {
		var err error
		startIndex, err = strconv.Atoi(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", err)
		}
	}

	if startIndex >= len(a.links) {
		return []domain.DetailLink{}, "", nil
	}

	endIndex := startIndex + limit
	if limit <= 0 || endIndex > len(a.links) {
		endIndex = len(a.links)
	}

	nextCursor := ""
	if endIndex < len(a.links) {
		nextCursor = strconv.Itoa(endIndex)
	}
	return a.links[startIndex:endIndex], nextCursor, nil
}

// ReadManifest parses a JSONL manifest, keeping file order. Malformed lines
// and lines without a URL are skipped with a warning.
func ReadManifest(ctx context.Context, fs afero.Fs, path string) ([]domain.DetailLink, error) {
	file, err := fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("manifest file not found: %s. Run the discover job first", path)
		}
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	var links []domain.DetailLink
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var link domain.DetailLink
		if err := json.Unmarshal([]byte(line), &link); err != nil || link.URL == "" {
			logger.CtxWarn(ctx, "Skipping manifest line %d of %s", lineNo, path)
			continue
		}
		if link.Type == "" {
			link.Type = domain.TypeForCategory(link.Category)
		}
		links = append(links, link)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}
	return links, nil
}

// WriteManifest replaces the manifest at path with links, one JSON object
// per line.
func WriteManifest(fs afero.Fs, path string, links []domain.DetailLink) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, l := range links {
		if err := enc.Encode(l); err != nil {
			return fmt.Errorf("encode link %s: %w", l.URL, err)
		}
	}
	return atomicfile.New(fs).WriteFile(path, buf.Bytes(), 0o644)
}
