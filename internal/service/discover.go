package service

import (
	"context"
	"fmt"

	"github.com/timmy/tractorhub/internal/domain"
	"github.com/timmy/tractorhub/internal/logger"
	"github.com/timmy/tractorhub/internal/source/staging"
)

// LinkDiscoverer finds detail links across listing pages.
type LinkDiscoverer interface {
	DiscoverAll(ctx context.Context, listingURLs []string) []domain.DetailLink
}

// DiscoverService writes the links manifest that scrape can replay.
type DiscoverService struct {
	env        *Env
	discoverer LinkDiscoverer
	listings   []string
}

// NewDiscoverService creates a discover service over the given listings.
func NewDiscoverService(env *Env, discoverer LinkDiscoverer, listings []string) *DiscoverService {
	return &DiscoverService{env: env, discoverer: discoverer, listings: listings}
}

// Run discovers every listing and rewrites the manifest.
// Returns the number of links written.
func (s *DiscoverService) Run(ctx context.Context) (int, error) {
	ctx, run := s.env.Runs.Start(ctx, domain.JobDiscover, fmt.Sprintf("listings=%d", len(s.listings)))
	start := s.env.now()

	links := s.discoverer.DiscoverAll(ctx, s.listings)
	err := staging.WriteManifest(s.env.Store.FS().Fs(), s.env.Store.LinksPath(), links)
	if err != nil {
		err = fmt.Errorf("write links manifest: %w", err)
	} else {
		logger.With(logger.Fields{
			logger.FieldCount: len(links),
			"path":            s.env.Store.LinksPath(),
		}).Info(ctx, "Links manifest written")
		s.env.publish(ctx, domain.JobDiscover, s.env.Store.LinksPath())
	}

	s.env.Runs.Finish(ctx, run, countStats(domain.JobDiscover, start, s.env.now(), len(s.listings), len(links)), err)
	return len(links), err
}
