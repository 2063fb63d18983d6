package tractordata

import (
	"context"
	"fmt"
	"strconv"

	"github.com/timmy/tractorhub/internal/domain"
)

const (
	SourceID   = "tractordata"
	SourceName = "TractorData listings"
)

// Discoverer is the part of discover.Discoverer the adapter needs.
type Discoverer interface {
	DiscoverAll(ctx context.Context, listingURLs []string) []domain.DetailLink
}

// Adapter discovers detail links live from the configured listing pages.
// The cursor is the index of the next listing page and limit counts
// listing pages, not links.
type Adapter struct {
	discoverer Discoverer
	listings   []string
}

// NewAdapter creates a live discovery adapter.
func NewAdapter(discoverer Discoverer, listings []string) *Adapter {
	return &Adapter{discoverer: discoverer, listings: listings}
}

func (a *Adapter) GetSourceID() string {
	return SourceID
}

func (a *Adapter) GetDisplayName() string {
	return SourceName
}

// FetchBatch discovers the links of up to limit listing pages.
func (a *Adapter) FetchBatch(ctx context.Context, cursor string, limit int) ([]domain.DetailLink, string, error) {
	startIndex := 0
	if cursor != "" {
		var err error
		startIndex, err = strconv.Atoi(cursor)
		if err != nil || startIndex < 0 {
			return nil, "", fmt.Errorf("invalid cursor: %q", cursor)
		}
	}

	if startIndex >= len(a.listings) {
		return []domain.DetailLink{}, "", nil
	}

	if limit <= 0 {
		limit = 1
	}
	endIndex := startIndex + limit
	if endIndex > len(a.listings) {
		endIndex = len(a.listings)
	}

	links := a.discoverer.DiscoverAll(ctx, a.listings[startIndex:endIndex])

	nextCursor := ""
	if endIndex < len(a.listings) {
		nextCursor = strconv.Itoa(endIndex)
	}
	return links, nextCursor, nil
}
