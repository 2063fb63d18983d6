package service

import (
	"context"
	"fmt"
	"time"

	"github.com/timmy/tractorhub/internal/brand"
	"github.com/timmy/tractorhub/internal/catalog"
	"github.com/timmy/tractorhub/internal/config"
	"github.com/timmy/tractorhub/internal/domain"
	"github.com/timmy/tractorhub/internal/fetch"
	"github.com/timmy/tractorhub/internal/imagesearch"
	"github.com/timmy/tractorhub/internal/logger"
	"github.com/timmy/tractorhub/internal/runner"
)

const (
	probeCacheSize = 512
	probeCacheTTL  = time.Hour
)

// ImagesOptions selects the optional search backends for one run.
type ImagesOptions struct {
	Runner runner.Options
	// EnableBrowser adds the headless browser image search backend. The job
	// then runs with a single worker.
	EnableBrowser bool
	// EnableBrandSites adds the brand website backend.
	EnableBrandSites bool
}

// imageTarget is one distinct brand and model of the catalog.
type imageTarget struct {
	Key      string
	Brand    string
	Model    string
	Existing *string
}

// ImagesService resolves a representative image for every catalog record.
type ImagesService struct {
	env       *Env
	cfg       config.ImagesConfig
	client    *fetch.Client
	assets    *brand.Assets
	userAgent string
}

// NewImagesService creates an images service.
func NewImagesService(env *Env, cfg config.ImagesConfig, client *fetch.Client, assets *brand.Assets, userAgent string) *ImagesService {
	return &ImagesService{env: env, cfg: cfg, client: client, assets: assets, userAgent: userAgent}
}

// Searchers builds the backends for opts in query order: Commons, then brand
// sites, then the browser. The returned func releases backend resources.
func (s *ImagesService) Searchers(opts ImagesOptions) ([]imagesearch.Searcher, func()) {
	searchers := []imagesearch.Searcher{
		imagesearch.NewCommonsSearcher(s.client.Resty(), s.cfg.CommonsEndpoint, s.cfg.MaxCandidates),
	}
	if opts.EnableBrandSites {
		searchers = append(searchers, imagesearch.NewBrandSiteSearcher(s.client, s.assets))
	}
	release := func() {}
	if opts.EnableBrowser {
		browser := imagesearch.NewBrowserSearcher(s.cfg.Browser, s.userAgent)
		searchers = append(searchers, browser)
		release = browser.Close
	}
	return searchers, release
}

// Run resolves images for the catalog, writes the image map and applies
// resolved URLs to the catalog.
// Parameters:
//   - ctx: job context.
//   - opts: runner options and backend selection.
//
// Returns:
//   - *runner.Stats: run statistics.
//   - error: a runner.ErrCheckpointIO wrap or an artifact read/write error.
func (s *ImagesService) Run(ctx context.Context, opts ImagesOptions) (*runner.Stats, error) {
	searchers, release := s.Searchers(opts)
	defer release()

	resolverOpts := imagesearch.ResolverOptions{
		Assets:          s.assets,
		AllowedLicenses: s.cfg.AllowedLicenses,
		MinWidth:        s.cfg.MinWidth,
	}
	if s.cfg.MinWidth > 0 {
		resolverOpts.Prober = imagesearch.NewWidthProber(s.client, probeCacheSize, probeCacheTTL)
	}
	resolver := imagesearch.NewResolver(searchers, resolverOpts)

	runOpts := opts.Runner
	if resolver.Exclusive() && runOpts.Concurrency != 1 {
		logger.FromContext(ctx).WithField("requested", runOpts.Concurrency).
			Info("Exclusive image backend enabled, running with one worker")
		runOpts.Concurrency = 1
	}

	ctx, run := s.env.Runs.Start(ctx, domain.JobImages, runOpts.String())
	stats, err := s.run(ctx, resolver, runOpts)
	s.env.Runs.Finish(ctx, run, stats, err)
	return stats, err
}

func (s *ImagesService) run(ctx context.Context, resolver *imagesearch.Resolver, opts runner.Options) (*runner.Stats, error) {
	store := s.env.Store
	records, err := store.LoadTractors(store.CatalogPath())
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	targets := imageTargets(records)
	logger.With(logger.Fields{
		logger.FieldCount: len(targets),
		"backends":        resolver.Backends(),
	}).Info(ctx, "Resolving images")

	process := func(ctx context.Context, t imageTarget) (*string, error) {
		if t.Existing != nil && !opts.Force {
			return t.Existing, nil
		}
		return resolver.Resolve(ctx, t.Brand, t.Model)
	}
	key := func(t imageTarget) string { return t.Key }

	stats, state, err := runCheckpointed(ctx, s.env, domain.JobImages, targets, key, process, opts)
	if err != nil {
		return stats, err
	}

	images := catalog.ImageMap(state.Results)
	if err := store.SaveImages(images); err != nil {
		return stats, fmt.Errorf("write image map: %w", err)
	}

	if opts.Force {
		for i := range records {
			if u, ok := images[catalog.ImageKey(records[i])]; ok && u != nil {
				records[i].ImageURL = nil
			}
		}
	}
	applied := catalog.ApplyImages(records, images)
	if err := store.SaveTractors(store.CatalogPath(), records); err != nil {
		return stats, fmt.Errorf("write catalog: %w", err)
	}
	logger.FromContext(ctx).WithField(logger.FieldCount, applied).Info("Images applied to catalog")

	s.env.publish(ctx, domain.JobImages, store.ImagesPath(), store.CatalogPath())
	return stats, nil
}

// imageTargets returns one target per image key in catalog order. A record
// that already carries an image contributes it as the existing value.
func imageTargets(records []domain.Tractor) []imageTarget {
	index := make(map[string]int, len(records))
	var out []imageTarget
	for _, rec := range records {
		key := catalog.ImageKey(rec)
		if i, ok := index[key]; ok {
			if out[i].Existing == nil {
				out[i].Existing = rec.ImageURL
			}
			continue
		}
		index[key] = len(out)
		out = append(out, imageTarget{Key: key, Brand: rec.Brand, Model: rec.Model, Existing: rec.ImageURL})
	}
	return out
}
