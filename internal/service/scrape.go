package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/timmy/tractorhub/internal/checkpoint"
	"github.com/timmy/tractorhub/internal/domain"
	"github.com/timmy/tractorhub/internal/extract"
	"github.com/timmy/tractorhub/internal/logger"
	"github.com/timmy/tractorhub/internal/runner"
	"github.com/timmy/tractorhub/internal/source"
)

// collectBatch is the number of source units requested per FetchBatch call.
const collectBatch = 10

// PageFetcher downloads a detail page.
type PageFetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// ScrapeService turns detail links into extracted records.
type ScrapeService struct {
	env       *Env
	fetcher   PageFetcher
	extractor *extract.Extractor
}

// NewScrapeService creates a scrape service.
func NewScrapeService(env *Env, fetcher PageFetcher, extractor *extract.Extractor) *ScrapeService {
	return &ScrapeService{env: env, fetcher: fetcher, extractor: extractor}
}

// Run scrapes every link src yields and rewrites the extracted record set
// from the checkpoint.
// Parameters:
//   - ctx: job context.
//   - src: work-list source, live discovery or a links manifest.
//   - opts: runner selection and concurrency options.
//
// Returns:
//   - *runner.Stats: run statistics, nil if the work list could not be built.
//   - error: ErrNoWorkList, a runner.ErrCheckpointIO wrap, or an artifact
//     write error.
func (s *ScrapeService) Run(ctx context.Context, src source.Source, opts runner.Options) (*runner.Stats, error) {
	ctx = logger.SetSource(ctx, src.GetSourceID())
	ctx, run := s.env.Runs.Start(ctx, domain.JobScrape, opts.String())

	stats, err := s.run(ctx, src, opts)
	s.env.Runs.Finish(ctx, run, stats, err)
	return stats, err
}

func (s *ScrapeService) run(ctx context.Context, src source.Source, opts runner.Options) (*runner.Stats, error) {
	log := logger.FromContext(ctx)

	links, err := source.Collect(ctx, src, collectBatch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoWorkList, err)
	}
	log.WithFields(logger.Fields{
		logger.FieldCount: len(links),
		"source":          src.GetDisplayName(),
	}).Info("Work list collected")

	stats, state, err := runCheckpointed(ctx, s.env, domain.JobScrape, links, domain.DetailLink.Key, s.process, opts)
	if err != nil {
		return stats, err
	}

	records := ExtractedRecords(state)
	if err := s.env.Store.SaveTractors(s.env.Store.ExtractedPath(), records); err != nil {
		return stats, fmt.Errorf("write extracted records: %w", err)
	}
	log.WithField(logger.FieldCount, len(records)).Info("Extracted records written")

	s.env.publish(ctx, domain.JobScrape, s.env.Store.ExtractedPath())
	return stats, nil
}

// process fetches and extracts one page. Pages without a usable identity
// are recorded as null so retry-null can revisit them.
func (s *ScrapeService) process(ctx context.Context, link domain.DetailLink) (*domain.Tractor, error) {
	body, err := s.fetcher.Get(ctx, link.URL)
	if err != nil {
		return nil, err
	}
	rec, err := s.extractor.Extract(ctx, extract.Page{URL: link.URL, HTML: body, Type: link.Type})
	if errors.Is(err, extract.ErrUnresolvedIdentity) {
		logger.FromContext(ctx).WithError(err).Debug("Page rejected")
		return nil, nil
	}
	return rec, err
}

// ExtractedRecords returns the non-null results of a scrape checkpoint,
// one record per id. When two pages produce the same id the page with the
// smaller URL wins.
func ExtractedRecords(state *checkpoint.State[domain.Tractor]) []domain.Tractor {
	keys := make([]string, 0, len(state.Results))
	for k, v := range state.Results {
		if v != nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	seen := make(map[string]bool, len(keys))
	out := make([]domain.Tractor, 0, len(keys))
	for _, k := range keys {
		rec := state.Results[k]
		if seen[rec.ID] {
			continue
		}
		seen[rec.ID] = true
		out = append(out, *rec)
	}
	return out
}
