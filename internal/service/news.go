package service

import (
	"context"
	"fmt"

	"github.com/timmy/tractorhub/internal/config"
	"github.com/timmy/tractorhub/internal/domain"
	"github.com/timmy/tractorhub/internal/logger"
	"github.com/timmy/tractorhub/internal/news"
)

// FeedReader fetches items from every configured feed.
type FeedReader interface {
	FetchAll(ctx context.Context, feeds []config.FeedConfig) []domain.NewsItem
}

// NewsService refreshes the news document.
type NewsService struct {
	env    *Env
	reader FeedReader
	cfg    config.NewsConfig
}

// NewNewsService creates a news service.
// Parameters:
//   - env: shared job environment.
//   - reader: feed fetcher, usually a *news.FeedFetcher.
//   - cfg: feeds, retention and similarity settings.
//
// Returns:
//   - *NewsService: service ready to Run.
func NewNewsService(env *Env, reader FeedReader, cfg config.NewsConfig) *NewsService {
	return &NewsService{env: env, reader: reader, cfg: cfg}
}

// Run fetches every feed, merges the fresh items into the persisted
// document and writes the retained, deduplicated result.
func (s *NewsService) Run(ctx context.Context) (*domain.NewsDocument, error) {
	ctx, run := s.env.Runs.Start(ctx, domain.JobNews, fmt.Sprintf("feeds=%d", len(s.cfg.Feeds)))
	start := s.env.now()

	doc, fresh, err := s.refresh(ctx)
	kept := 0
	if doc != nil {
		kept = len(doc.Items)
	}
	s.env.Runs.Finish(ctx, run, countStats(domain.JobNews, start, s.env.now(), fresh, kept), err)
	return doc, err
}

func (s *NewsService) refresh(ctx context.Context) (*domain.NewsDocument, int, error) {
	store := s.env.Store
	previous, err := store.LoadNews()
	if err != nil {
		return nil, 0, fmt.Errorf("load news: %w", err)
	}

	fresh := s.reader.FetchAll(ctx, s.cfg.Feeds)
	doc := news.Build(previous, fresh, s.env.now(), news.Options{
		Threshold:       s.cfg.SimilarityThreshold,
		RetentionMonths: s.cfg.RetentionMonths,
	})
	if err := store.SaveNews(doc); err != nil {
		return nil, len(fresh), fmt.Errorf("write news: %w", err)
	}

	previousCount := 0
	if previous != nil {
		previousCount = len(previous.Items)
	}
	logger.With(logger.Fields{
		"fresh":           len(fresh),
		"previous":        previousCount,
		logger.FieldCount: len(doc.Items),
	}).Info(ctx, "News document written")

	s.env.publish(ctx, domain.JobNews, store.NewsPath())
	return &doc, len(fresh), nil
}
