package source

import (
	"context"
	"fmt"

	"github.com/timmy/tractorhub/internal/domain"
)

// Source defines a producer of detail links for the scrape job.
type Source interface {
	// GetSourceID returns the unique identifier for this source.
	// Parameters: none.
	// Returns:
	//   - string: stable source identifier.
	GetSourceID() string

	// GetDisplayName returns a human-readable name for this source.
	// Parameters: none.
	// Returns:
	//   - string: display-friendly source name.
	GetDisplayName() string

	// FetchBatch fetches a batch of detail links starting from the given cursor.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - cursor: pagination cursor or empty for first page.
	//   - limit: batch size; its unit is source specific.
	// Returns:
	//   - links: batch of detail links.
	//   - nextCursor: cursor for the next batch or empty if done.
	//   - err: non-nil if fetching fails.
	FetchBatch(ctx context.Context, cursor string, limit int) (links []domain.DetailLink, nextCursor string, err error)
}

// Collect drains src into one work list. Links already seen in an earlier
// batch are dropped so the list stays stable across runs.
func Collect(ctx context.Context, src Source, batch int) ([]domain.DetailLink, error) {
	if batch <= 0 {
		batch = 1
	}

	var (
		all    []domain.DetailLink
		seen   = make(map[string]struct{})
		cursor string
	)
	for {
		links, next, err := src.FetchBatch(ctx, cursor, batch)
		if err != nil {
			return all, fmt.Errorf("fetch batch from %s: %w", src.GetSourceID(), err)
		}
		for _, l := range links {
			if _, ok := seen[l.Key()]; ok {
				continue
			}
			seen[l.Key()] = struct{}{}
			all = append(all, l)
		}
		if next == "" {
			return all, nil
		}
		cursor = next
	}
}
