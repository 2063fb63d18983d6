package service

import (
	"context"
	"fmt"

	"github.com/timmy/tractorhub/internal/domain"
	"github.com/timmy/tractorhub/internal/logger"
	"github.com/timmy/tractorhub/internal/pricing"
)

// PricesService fills missing price bands in the catalog.
type PricesService struct {
	env       *Env
	estimator *pricing.Estimator
}

func NewPricesService(env *Env, estimator *pricing.Estimator) *PricesService {
	return &PricesService{env: env, estimator: estimator}
}

// Run estimates a band for every record without one and returns how many
// records were filled. Existing bands are never overwritten.
func (s *PricesService) Run(ctx context.Context) (int, error) {
	ctx, run := s.env.Runs.Start(ctx, domain.JobPrices, "")
	start := s.env.now()

	total, filled, err := s.fill(ctx)
	s.env.Runs.Finish(ctx, run, countStats(domain.JobPrices, start, s.env.now(), total, filled), err)
	return filled, err
}

func (s *PricesService) fill(ctx context.Context) (int, int, error) {
	store := s.env.Store
	records, err := store.LoadTractors(store.CatalogPath())
	if err != nil {
		return 0, 0, fmt.Errorf("load catalog: %w", err)
	}

	filled := s.estimator.EstimateMissing(records)
	if filled > 0 {
		if err := store.SaveTractors(store.CatalogPath(), records); err != nil {
			return len(records), 0, fmt.Errorf("write catalog: %w", err)
		}
		s.env.publish(ctx, domain.JobPrices, store.CatalogPath())
	}

	logger.With(logger.Fields{
		"records":         len(records),
		logger.FieldCount: filled,
	}).Info(ctx, "Price bands estimated")
	return len(records), filled, nil
}
